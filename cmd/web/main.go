package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"salesboard/internal/config"
	"salesboard/internal/ingest"
	"salesboard/internal/observability"
	"salesboard/internal/server"
	"salesboard/internal/services"
)

const (
	version         = "1.0.0"
	dataLoadTimeout = 30 * time.Second
	sweepInterval   = time.Minute
	limiterIdle     = 3 * time.Minute
)

// app is the wired service before it starts listening.
type app struct {
	server    *server.Server
	analytics *services.Analytics
	tracing   *observability.Tracing
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	tracing, err := observability.NewTracing(cfg.Telemetry, version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	var metrics *observability.Metrics
	if cfg.Telemetry.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	analytics, err := services.NewAnalytics(services.Options{
		Logger:  logger,
		Metrics: metrics,
		Tracer:  tracing.Provider,
		Batch: ingest.BatchOptions{
			BatchSize:  cfg.Data.BatchSize,
			MaxWorkers: cfg.Data.Workers,
		},
		CacheSize: cfg.Engine.CacheSize,
		TopN:      cfg.Engine.TopN,
	})
	if err != nil {
		return nil, fmt.Errorf("init analytics: %w", err)
	}

	if err := loadDataset(ctx, analytics, cfg.Data, logger); err != nil {
		return nil, err
	}

	srv := server.NewServer(server.Deps{
		Config:    cfg,
		Analytics: analytics,
		Logger:    logger,
		Metrics:   metrics,
		Tracer:    tracing.Provider,
		Version:   version,
	})
	return &app{server: srv, analytics: analytics, tracing: tracing}, nil
}

// loadDataset loads the configured source file. A missing file starts the
// service empty so data can be uploaded later.
func loadDataset(ctx context.Context, analytics *services.Analytics, cfg config.DataConfig, logger *slog.Logger) error {
	if cfg.SourceFile == "" {
		logger.Info("no source file configured, starting empty")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, dataLoadTimeout)
	defer cancel()

	_, err := analytics.LoadFile(ctx, cfg.SourceFile, ingest.Format(cfg.Format))
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("source file not found, starting empty", "file", cfg.SourceFile)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"source_file", cfg.Data.SourceFile,
		"tracing", cfg.Telemetry.TracingEnabled,
	)

	ctx := context.Background()
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)
	gracefulServer.Go(server.SweepLoop(a.server.Limiter(), sweepInterval, limiterIdle, logger))
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing traces")
		return a.tracing.Shutdown(ctx)
	})
	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service", "stats", a.analytics.Stats())
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
