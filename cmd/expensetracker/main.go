package main

import (
	"context"
	"os"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitRepository(logger, cfg)
	if closer, ok := repo.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	// The AMQP publisher is optional: without it the worker's periodic
	// sweep still picks up recorded transactions.
	var publisher services.SyncPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, sync messages disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	svc := services.NewTransactionService(repo, publisher)
	srv := apphttp.NewServer(cfg.Port, svc, logger)

	ctx, grace := cli.ShutdownContext(logger, 30*time.Second)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("starting expensetracker server",
		"port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server error", log.FieldError, err)
		os.Exit(1)
	}
	if ctx.Err() != nil {
		<-drained
	}
	logger.Info("server stopped")
}
