package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the aster CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aster",
		Short: "Aster - contact entity resolution and deduplication",
		Long: `Aster resolves raw contact records from source systems into canonical
entities, finds likely duplicates in the canonical population, and merges
them with a full audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewResolveCommand())
	cmd.AddCommand(NewDuplicatesCommand())
	cmd.AddCommand(NewMergeCommand())
	cmd.AddCommand(NewAutoMergeCommand())
	cmd.AddCommand(NewStatsCommand())

	return cmd
}
