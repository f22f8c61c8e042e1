package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Quire builds branching questionnaires for clinical scenarios",
	Long: `Quire edits questionnaire graphs of sections and questions, validates them
and saves them as scenario templates.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
}

func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newApp(ctx context.Context, cmd *cobra.Command) (*cli.App, *config.Config, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error initializing quire: %w", err)
	}
	return app, cfg, logger, nil
}
