package main

import (
	"context"
	"fmt"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/config"
	"github.com/aretw0/quire/pkg/adapters/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables and seed the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Backend.Kind != config.BackendPostgres {
			return fmt.Errorf("migrate needs the postgres backend, configured backend is %q", cfg.Backend.Kind)
		}

		ctx := context.Background()
		pool, err := postgres.Connect(ctx, cfg.Backend.Postgres.DSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := cli.Migrate(ctx, postgres.New(pool)); err != nil {
			return err
		}
		logger.Info("Schema ready")
		cli.PrintSystemMessage(cmd.OutOrStdout(), "Postgres schema is up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
