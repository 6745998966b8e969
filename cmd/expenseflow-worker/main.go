package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expenseflow/internal/amqp"
	"expenseflow/internal/cli"
	"expenseflow/internal/config"
	applog "expenseflow/internal/log"
	"expenseflow/internal/repository"
	"expenseflow/internal/sheets"
	gsheet "expenseflow/internal/sheets/google"
	"expenseflow/internal/sheets/memory"
	"expenseflow/internal/storage"
	"expenseflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	logger.Info("Starting expenseflow-worker")

	var exporter sheets.ExpenseExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		exporter = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		exporter = memory.New()
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, exporting to memory")
	}
	exportWorker := worker.NewExportWorker(exporter)

	if cfg.ReconcileOnStart {
		if err := reconcile(ctx, cfg, exportWorker); err != nil {
			// Not fatal: events still flow.
			logger.Error("Startup reconcile failed", "error", err)
		}
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
		return amqpClient.Consume(gctx, exportWorker.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// reconcile exports the expenses already stored in the SQLite database.
func reconcile(ctx context.Context, cfg *config.Config, w *worker.ExportWorker) error {
	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return w.StartupReconcile(ctx, repository.NewExpenseRepository(store))
}
