package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/cli"
	"github.com/aretw0/quire/internal/presentation/tui"
	httpAdapter "github.com/aretw0/quire/pkg/adapters/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Serves the builder HTTP API, its OpenAPI document and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()

		app, cfg, logger, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}

		r := chi.NewRouter()
		if cfg.Server.Metrics {
			r.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
		}
		r.Mount("/", httpAdapter.NewHandler(app.Studio,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(quire.Version),
		))

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(os.Stdout, quire.Version)

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting Quire server", "addr", srv.Addr, "backend", cfg.Backend.Kind, "drafts", cfg.Drafts.Kind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown", "signal", ctx.Signal())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Quire server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on (overrides server.addr)")
}
