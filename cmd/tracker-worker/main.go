package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/cli"
	applog "tracker/internal/log"
	"tracker/internal/sheets"
	gsheet "tracker/internal/sheets/google"
	"tracker/internal/sheets/memory"
	"tracker/internal/storage"
	"tracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(applog.DefaultConfig().Level)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.SlogLevel()).WithComponent(applog.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker",
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	var exporter sheets.Exporter
	if cfg.GoogleSpreadsheetID != "" {
		gs, err := gsheet.NewExporter(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets exporter", applog.FieldError, err)
			os.Exit(1)
		}
		exporter = gs
		logger.Info("Google Sheets exporter initialized",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		exporter = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting in memory")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	exportWorker := worker.NewExportWorker(exporter, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Backfill finishes before live events are consumed so the two never
	// race on the sheet. Events published meanwhile wait in the queue.
	var store *storage.SQLiteStore
	if cfg.DataBackend == "sqlite" {
		store, err = storage.NewSQLiteStore(cfg.SQLiteDBPath, logger)
		if err != nil {
			logger.Error("Failed to open SQLite store for backfill", applog.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer store.Close()
	}

	g.Go(func() error {
		if store != nil {
			if err := exportWorker.Backfill(gctx, store); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				logger.Warn("Backfill failed, continuing with live events", applog.FieldError, err)
			}
		}
		return exportWorker.Run(gctx, client)
	})

	logger.Info("Starting tracker-worker", "queue", cfg.AMQPQueue)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
