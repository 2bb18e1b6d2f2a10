package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"paycheck/internal/amqp"
	"paycheck/internal/cache"
	"paycheck/internal/cli"
	apphttp "paycheck/internal/http"
	"paycheck/internal/log"
	"paycheck/internal/pipeline"
	"paycheck/internal/services"
)

const dashboardCacheSize = 16

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx := context.Background()
	store := cli.OpenBackend(ctx, logger, cfg)

	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		c, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 5, logger)
		if err != nil {
			// Refresh messages are best effort; the worker's periodic export
			// catches up.
			logger.Warn("AMQP unavailable, refresh messages disabled", log.FieldError, err)
		} else {
			amqpClient, publisher = c, c
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var dashboards cache.Cache[*pipeline.Dashboard]
	cacheManager := cache.NewManager(logger)
	if cfg.DashboardCacheTTL > 0 {
		lru := cache.NewLRUCache[*pipeline.Dashboard](dashboardCacheSize, cfg.DashboardCacheTTL)
		cacheManager.Register(lru)
		dashboards = lru
	}

	svc := services.NewDashboardService(
		store.Persistence.Uploads,
		pipeline.New(cfg.PipelineOptions(), logger),
		dashboards,
		publisher,
		logger,
	)
	store.Persistence.Ledgers.Observe(svc.NotifyLedgerChange)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Dependencies{
		Dashboards: svc,
		Ledgers:    store.Persistence.Ledgers,
		Ready:      store.Persistence.Ready,
		RateLimit:  cfg.RateLimit,
	}, logger)
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})
	cacheManager.StartCleanup(shutdownCtx, time.Minute)

	logger.Info("Starting paycheck server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp", amqpClient != nil,
		"cache_ttl", cfg.DashboardCacheTTL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
