// Package cli holds initialization shared by the server and worker binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expensetracker/internal/config"
	"expensetracker/internal/log"
	"expensetracker/internal/storage"
)

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, exiting on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitRepository opens the configured backend. The memory backend serves
// local development and tests; sqlite is the default.
func InitRepository(logger *log.Logger, cfg *config.Config) storage.TransactionRepository {
	switch cfg.DataBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory storage, data will not survive restarts")
		return storage.NewMemoryRepository()
	default:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("failed to open sqlite repository",
				log.FieldError, err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		return repo
	}
}

// ShutdownContext returns a context cancelled on SIGINT/SIGTERM, plus the
// grace period callers should give in-flight work after cancellation.
func ShutdownContext(logger *log.Logger, grace time.Duration) (context.Context, time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())
		cancel()
	}()
	return ctx, grace
}
