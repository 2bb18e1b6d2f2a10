package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"paycheck/internal/amqp"
	"paycheck/internal/cli"
	"paycheck/internal/log"
	"paycheck/internal/pipeline"
	"paycheck/internal/services"
	"paycheck/internal/sheets"
	gsheet "paycheck/internal/sheets/google"
	mem "paycheck/internal/sheets/memory"
	"paycheck/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting paycheck-worker")

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	store := cli.OpenBackend(ctx, logger, cfg)
	if store.Cleanup != nil {
		defer func() {
			if err := store.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}()
	}

	var exporter sheets.DashboardExporter
	if cfg.ExportEnabled() {
		g, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		exporter = g
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = mem.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exports stay in memory")
	}

	// The worker shares storage with the server and rereads it before every
	// export, so the dashboard is not cached here.
	svc := services.NewDashboardService(store.Persistence.Uploads, pipeline.New(cfg.PipelineOptions(), logger), nil, nil, logger)
	w := worker.NewExportWorker(svc, store.Persistence.Ledgers, exporter, logger)

	if err := w.StartupExport(ctx); err != nil {
		logger.Error("Startup export failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.ExportInterval)
	})

	if cfg.AMQPEnabled() {
		client, err := amqp.Dial(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, 10, logger)
		if err != nil {
			logger.Error("Failed to connect to AMQP", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		g.Go(func() error {
			return client.ConsumeRefresh(gctx, w.HandleRefresh)
		})
	} else {
		logger.Info("AMQP disabled - relying on periodic export", "interval", cfg.ExportInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete", "last_export", w.LastExport())
}
