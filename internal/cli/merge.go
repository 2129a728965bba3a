package cli

import (
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/models"
)

// NewMergeCommand creates the merge command.
func NewMergeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <surviving-id> <losing-id>",
		Short: "Merge one entity into another",
		Long: `Merge the losing entity into the surviving entity.

The losing entity's identifiers are re-pointed at the survivor, its populated
fields fill any gaps on the survivor, an audit record is written, and the
losing entity is deleted. All of it happens in one transaction.

Example:
  aster merge 5f2b8c1e-... 9d4a7e03-...`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := runContext(cmd.Context(), models.MergeTriggerManualCLI)

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			result, err := a.merger.Merge(ctx, args[0], args[1], models.MergeTriggerManualCLI)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	return cmd
}
