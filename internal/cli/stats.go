package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/models"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show resolution and merge statistics",
		Long: `Print read-only aggregates: live entities by kind, identifiers by
source system, and merge activity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := runContext(cmd.Context(), models.MergeTriggerManualCLI)

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			kindCounts, err := a.entities.CountByKind(ctx)
			if err != nil {
				return err
			}
			sourceCounts, err := a.identifiers.CountBySource(ctx)
			if err != nil {
				return err
			}
			recent, err := a.records.CountSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
			if err != nil {
				return err
			}
			total, err := a.records.Count(ctx)
			if err != nil {
				return err
			}

			report := models.StatsReport{
				EntitiesByKind:      map[string]int{},
				IdentifiersBySource: map[string]int{},
				MergesLast7Days:     recent,
				TotalMerges:         total,
			}
			for _, kc := range kindCounts {
				report.EntitiesByKind[kc.Kind] = kc.Count
			}
			for _, sc := range sourceCounts {
				report.IdentifiersBySource[sc.SourceSystem] = sc.Count
			}

			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	return cmd
}
