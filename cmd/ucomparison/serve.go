package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pitabwire/ucomparison/internal/config"
	"github.com/pitabwire/ucomparison/internal/definition"
	"github.com/pitabwire/ucomparison/internal/observability"
	"github.com/pitabwire/ucomparison/internal/session"
	"github.com/pitabwire/ucomparison/internal/transport"
	"github.com/pitabwire/ucomparison/internal/watcher"
	"github.com/pitabwire/ucomparison/model"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the comparison HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if code := serve(cfg); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}

func serve(cfg *config.Config) int {
	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "ucomparison", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	var metrics *observability.Metrics
	if cfg.Observability.Metrics.Enabled {
		metrics = observability.InitMetrics(prometheus.DefaultRegisterer)
	}

	// Load the comparison before accepting traffic.
	registry := definition.NewRegistry(nil)
	sessions := session.NewStore(cfg.Session, logger, session.WithMetrics(metrics))
	w := watcher.New(definition.NewLoader(), sourceFor(cfg), registry, logger,
		watcher.WithMetrics(metrics),
		watcher.WithDebounce(cfg.Comparison.ReloadDebounce),
		watcher.WithPublisher(func(ctx context.Context, ds *model.Dataset) {
			sessions.Broadcast(ctx, ds)
		}),
	)
	if err := w.Reload(ctx); err != nil {
		logger.Error("comparison loading failed", zap.Error(err))
		return 1
	}

	limiter := transport.NewRateLimiter(cfg.RateLimit, logger, metrics)

	readiness := observability.ReadinessChecks{
		Dataset:  registry,
		Sessions: sessions,
	}
	if cfg.Comparison.HotReload {
		readiness.Watcher = w
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:         cfg,
		Logger:         logger,
		Registry:       registry,
		Sessions:       sessions,
		Metrics:        metrics,
		MetricsHandler: observability.Handler(),
		RateLimiter:    limiter,
		Readiness:      readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Background tasks.
	bgCtx, bgCancel := context.WithCancel(ctx)
	defer bgCancel()

	go sessions.Run(bgCtx)
	go limiter.Run(bgCtx)
	if cfg.Comparison.HotReload {
		if err := w.Start(bgCtx); err != nil {
			logger.Error("file watcher failed to start", zap.Error(err))
			return 1
		}
	}

	ds := registry.Current()
	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.Int("entities", len(ds.Entities)),
		zap.String("checksum", ds.Checksum),
		zap.Bool("hot_reload", cfg.Comparison.HotReload),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	bgCancel()

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete", zap.Int("sessions", sessions.Len()))
	return 0
}
