package cli

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/models"
)

// AutoMergeOptions holds flags for the auto-merge command.
type AutoMergeOptions struct {
	DryRun    bool
	MaxMerges int
}

// NewAutoMergeCommand creates the auto-merge command.
func NewAutoMergeCommand() *cobra.Command {
	opts := &AutoMergeOptions{}

	cmd := &cobra.Command{
		Use:   "auto-merge [threshold]",
		Short: "Merge high-confidence duplicate pairs unattended",
		Long: `Run one auto-merge pass over the canonical population.

Pairs scoring at or above the auto-merge threshold are merged without
operator review, most confident first, up to the per-pass cap. The survivor
of each pair is the entity with more populated fields (ties go to the one
seen first). With --dry-run the pass reports what it would merge without
writing.

Example:
  aster auto-merge --dry-run
  aster auto-merge 0.95 --max-merges 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAutoMerge(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report merges without performing them")
	cmd.Flags().IntVar(&opts.MaxMerges, "max-merges", 0, "cap on merges per pass (default: configured cap)")

	return cmd
}

func runAutoMerge(cmd *cobra.Command, opts *AutoMergeOptions, args []string) error {
	ctx := runContext(cmd.Context(), models.MergeTriggerAutoMerge)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	threshold, err := thresholdArg(args, a.cfg.AutoMergeThreshold)
	if err != nil {
		return err
	}
	maxMerges := opts.MaxMerges
	if maxMerges == 0 {
		maxMerges = a.cfg.AutoMergeMaxMerges
	}

	report, err := a.autoMerge(threshold, maxMerges).Run(ctx, opts.DryRun)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), report)
}
