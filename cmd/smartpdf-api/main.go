// Package main provides the Smart PDF Converter API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/smartpdf/smartpdf/cmd/smartpdf-api/handlers"
	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/pdfops"
	"github.com/smartpdf/smartpdf/internal/service"
	"github.com/smartpdf/smartpdf/internal/store"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "smartpdf",
	})

	st, err := store.New(logger, cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	renderer, caps := pdfops.DetectCapabilities(logger)

	sweeper := store.NewSweeper(st, cfg.Storage.Retention, cfg.Storage.SweepInterval)
	svc := service.New(logger, st, sweeper, cfg.Storage, renderer, caps)

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("response_mode", cfg.Server.ResponseMode).
		Bool("rasterize", caps.Rasterize).
		Bool("convert_doc", caps.ConvertDoc).
		Msg("Starting Smart PDF Converter API")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go sweeper.Run(ctx)

	router := handlers.NewRouter(logger, cfg, svc)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
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
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
