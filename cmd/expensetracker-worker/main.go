package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/storage"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to open sqlite repository",
			log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, _ := cli.ShutdownContext(logger, 0)

	// Without a spreadsheet the worker cannot export; it still runs and
	// reports the growing backlog so the gap is visible.
	if !cfg.SheetsEnabled() {
		logger.Warn("no GOOGLE_SPREADSHEET_ID set, export disabled")
		syncWorker := worker.NewSyncWorker(repo, nil, logger, cfg.SyncBatchSize)
		if err := syncWorker.ReportBacklog(ctx, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped with error", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("worker stopped")
		return
	}

	ledger, err := google.New(context.Background(), google.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("failed to initialize ledger client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to message broker", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(repo, ledger, logger, cfg.SyncBatchSize)

	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("startup sync check failed", log.FieldError, err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeTransactionSyncWithRedial(ctx, cfg.AMQPURL, func(msg *amqp.TransactionSyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		})
	})
	g.Go(func() error {
		return syncWorker.RunSweep(ctx, cfg.SyncInterval)
	})

	logger.Info("worker started",
		"queue", cfg.AMQPQueue, "sweep_interval", cfg.SyncInterval.String())
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
