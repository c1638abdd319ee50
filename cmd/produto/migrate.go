package main

import (
	"github.com/deppfellow/produto-service/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, _, err := bootstrap()
			if err != nil {
				return err
			}

			return database.Migrate(cmd.Context(), log, cfg)
		},
	}
}
