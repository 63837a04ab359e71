package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"aycf/internal/config"
	"aycf/internal/database"
	"aycf/internal/database/migration"
)

// InitDBCommands registers the database commands.
func InitDBCommands(rootCmd *cobra.Command, cfg config.DatabaseConfig) {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the search, flight and usage tables if they are missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.NewPostgres(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := migration.EnsureMigrated(ctx, db, cfg.Host); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")
			return nil
		},
	}
	rootCmd.AddCommand(migrateCmd)
}
