package main

import (
	"errors"
	"fmt"

	"blog-api/internal/config"
	"blog-api/internal/store/postgres"

	"github.com/spf13/cobra"
)

func newMigrateCommand(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply or inspect database migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.UsePostgres() {
				return errors.New("db.dsn is required for migrations")
			}

			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if err := postgres.Migrate(cmd.Context(), cfg.DB.DSN, command); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: ok\n", command)
			return nil
		},
	}
}
