package cli

import (
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/models"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: `Apply pending schema migrations from the migration folder.

DB_MIGRATION_VERSION pins a target version and DB_MIGRATION_FORCE recovers a
dirty migration state; both default to off.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := runContext(cmd.Context(), models.MergeTriggerManualCLI)

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			driver, err := migratepg.WithInstance(a.db.Unsafe().DB, &migratepg.Config{})
			if err != nil {
				return err
			}

			service := database.NewMigrationService(a.logger, &database.MigrationConfig{
				MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
				Version:             a.cfg.DatabaseMigrationVersion,
				Force:               a.cfg.DatabaseMigrationForce,
			})

			return service.Migrate(a.cfg.DatabaseName, driver)
		},
	}

	return cmd
}
