package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smartpdf/smartpdf/cmd/smartpdf-api/handlers"
	"github.com/smartpdf/smartpdf/internal/pdfops"
	"github.com/smartpdf/smartpdf/internal/service"
	"github.com/smartpdf/smartpdf/internal/store"
)

// newServeCmd creates the serve subcommand, which runs the HTTP API server.
func newServeCmd() *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the converter API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			st, err := store.New(logger, cfg.Storage)
			if err != nil {
				return fmt.Errorf("initialize storage: %w", err)
			}

			renderer, caps := pdfops.DetectCapabilities(logger)

			sweeper := store.NewSweeper(st, cfg.Storage.Retention, cfg.Storage.SweepInterval)
			svc := service.New(logger, st, sweeper, cfg.Storage, renderer, caps)

			ctx, stop := context.WithCancel(context.Background())
			defer stop()
			go sweeper.Run(ctx)

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      handlers.NewRouter(logger, cfg, svc),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("HTTP server listening")
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErrors:
				return fmt.Errorf("server error: %w", err)
			case sig := <-shutdown:
				logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			}

			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("Graceful shutdown failed")
				return srv.Close()
			}

			logger.Info().Msg("Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides config)")

	return cmd
}
