package cli

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/mrlokans/sessionauth/internal/entrypoint"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the users schema",
		Long: `Apply pending schema changes to the configured user database.
The server does this on start as well; run it separately to migrate
ahead of a deploy.`,
		Args: cobra.NoArgs,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if err := cfg.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}

	cmd.Printf("Migrating %s database...\n", cfg.Database.Driver)
	storage, err := entrypoint.OpenUsers(cmd.Context(), cfg)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
	}
	storage.Close()

	cmd.Println("Migrations completed successfully")
	return nil
}
