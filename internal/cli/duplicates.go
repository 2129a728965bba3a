package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/models"
)

// DuplicatesOptions holds flags for the duplicates command.
type DuplicatesOptions struct {
	Kind string
}

// NewDuplicatesCommand creates the duplicates command.
func NewDuplicatesCommand() *cobra.Command {
	opts := &DuplicatesOptions{}

	cmd := &cobra.Command{
		Use:   "duplicates [threshold]",
		Short: "List likely duplicate entity pairs",
		Long: `Scan the canonical population for likely duplicate pairs.

Every pair of entities of the same kind is scored; pairs at or above the
threshold are printed as JSON, highest score first. The threshold defaults
to the configured duplicate threshold.

Example:
  aster duplicates
  aster duplicates 0.8 --kind organization`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDuplicates(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "restrict to one entity kind (person|organization)")

	return cmd
}

func runDuplicates(cmd *cobra.Command, opts *DuplicatesOptions, args []string) error {
	ctx := runContext(cmd.Context(), models.MergeTriggerManualCLI)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	threshold, err := thresholdArg(args, a.cfg.DuplicateThreshold)
	if err != nil {
		return err
	}

	kinds := []models.EntityKind{models.EntityKindPerson, models.EntityKindOrganization}
	if opts.Kind != "" {
		kind := models.EntityKind(opts.Kind)
		if kind != models.EntityKindPerson && kind != models.EntityKindOrganization {
			return fmt.Errorf("unknown entity kind %q", opts.Kind)
		}
		kinds = []models.EntityKind{kind}
	}

	pairs := []models.CandidatePair{}
	for _, kind := range kinds {
		population, err := a.entities.ListByKind(ctx, kind)
		if err != nil {
			return err
		}
		pairs = append(pairs, a.detector.FindDuplicates(ctx, population, threshold)...)
	}
	rankPairs(pairs)

	return printJSON(cmd.OutOrStdout(), pairs)
}

// rankPairs orders candidate pairs by descending score. Per-kind scans come
// back ranked already, but their concatenation does not.
func rankPairs(pairs []models.CandidatePair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Score > pairs[j].Score
	})
}
