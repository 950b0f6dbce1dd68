package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"purchases/internal/amqp"
	"purchases/internal/backend"
	"purchases/internal/cache"
	"purchases/internal/cli"
	apphttp "purchases/internal/http"
	applog "purchases/internal/log"
	"purchases/internal/services"
	"purchases/internal/worker"
)

func main() {
	cfg := cli.LoadConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp, nil)
	cli.MustValidate(logger, cfg)

	startCtx, startCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer startCancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	result, err := backend.NewFactory(slog.Default()).CreateBackend(startCtx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tables := cache.NewTableCache(4, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(tables)
	manager.StartCleanup(cfg.CacheCleanupInterval)

	dash := services.NewDashboard(tables, result.Source)

	srv := apphttp.NewServer(":"+cfg.Port, dash, apphttp.Options{
		Logger:          logger,
		ReloadPerMinute: cfg.ReloadRateLimit,
	})
	srv.OnShutdown(manager.Stop)
	srv.OnShutdown(func() {
		if err := result.Close(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	// Warm the cache so the first page view does not pay for the load. A
	// failure here is shown on the page instead of stopping the server.
	if _, err := dash.Table(startCtx); err != nil {
		logger.Warn("Initial dataset load failed", "error", err, "source", dash.SourceID())
	}

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Reload notifications are optional; manual reloads still work.
			logger.Error("Failed to initialize AMQP client", "error", err)
		} else {
			srv.OnShutdown(func() { _ = client.Close() })
			reloader := worker.NewReloadWorker(tables, result.Source)
			go func() {
				if err := client.ConsumeDatasetChanged(ctx, reloader.HandleDatasetChanged); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("Dataset notification consumer stopped", "error", err)
				}
			}()
			logger.Info("Listening for dataset notifications", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	if result.Repository != nil && cfg.SnapshotPollInterval > 0 {
		go worker.NewSnapshotWatcher(tables, result.Repository, cfg.SnapshotPollInterval).Run(ctx)
	}

	logger.Info("Starting purchases dashboard",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"source", dash.SourceID())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
