// Landsat datacube catalog server entry point
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/config"
	"github.com/robert-malhotra/landsat-lst/internal/metrics"
	"github.com/robert-malhotra/landsat-lst/pkg/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotenv(".env"); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up logger
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting datacube catalog server",
		"version", cfg.STAC.Version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"datacube_dir", cfg.Datacube.Dir,
	)

	var m *metrics.Manager
	if cfg.Features.EnableMetrics {
		m = metrics.NewManager(metrics.WithNamespace(cfg.Metrics.Namespace))
	}

	srv, err := server.New(server.Options{
		BaseURL:          cfg.STAC.BaseURL,
		DatacubeDir:      cfg.Datacube.Dir,
		CatalogsDir:      cfg.Datacube.CatalogsDir,
		Title:            cfg.STAC.Title,
		Description:      cfg.STAC.Description,
		DefaultLimit:     cfg.Features.DefaultLimit,
		MaxLimit:         cfg.Features.MaxLimit,
		EnableSearch:     cfg.Features.EnableSearch,
		EnableQueryables: cfg.Features.EnableQueryables,
		Metrics:          m,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	logger.Info("loaded catalogs", "collections", srv.Collections())

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
