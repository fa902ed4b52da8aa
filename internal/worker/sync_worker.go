// Package worker exports recorded transactions to the spreadsheet ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// repository combines the read side the worker needs with the sync queue.
type repository interface {
	storage.TransactionRepository
	storage.SyncQueue
}

// SyncWorker moves pending transactions from local storage into the ledger.
// AMQP messages drive the fast path; the periodic sweep catches anything the
// queue missed.
type SyncWorker struct {
	repo      repository
	ledger    sheets.LedgerAppender
	logger    *log.Logger
	batchSize int
}

func NewSyncWorker(repo repository, ledger sheets.LedgerAppender, logger *log.Logger, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		repo:      repo,
		ledger:    ledger,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the transaction named by a queue message.
// A missing transaction is dropped, not requeued: it will never appear.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	w.logger.InfoContext(ctx, "processing sync message",
		log.FieldTransactionID, msg.ID, "version", msg.Version)

	tx, err := w.repo.Get(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			w.logger.WarnContext(ctx, "sync message references unknown transaction",
				log.FieldTransactionID, msg.ID)
			return nil
		}
		return fmt.Errorf("load transaction: %w", err)
	}

	return w.export(ctx, tx)
}

// ProcessPending exports up to one batch of transactions still waiting.
// Failures are recorded per transaction and do not stop the batch.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.repo.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending transactions", "count", len(pending))

	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "failed to export pending transaction",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
		}
	}
	return nil
}

// StartupSyncCheck drains a larger backlog once at worker start, recovering
// from missed messages or downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.repo.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list pending transactions: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "no pending transactions on startup")
		return nil
	}

	var synced, failed int
	for _, tx := range pending {
		if err := w.export(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "startup export failed",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "startup sync completed",
		"total", len(pending), "synced", synced, "errors", failed)
	return nil
}

// ReportBacklog logs the pending backlog without exporting, for running
// the worker when no ledger is configured.
func (w *SyncWorker) ReportBacklog(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pending, err := w.repo.PendingSync(ctx, w.batchSize*5)
			if err != nil {
				w.logger.ErrorContext(ctx, "failed to list pending transactions", log.FieldError, err)
				continue
			}
			if len(pending) > 0 {
				w.logger.WarnContext(ctx, "transactions awaiting export, no ledger configured",
					"count", len(pending))
			}
		}
	}
}

// RunSweep loops ProcessPending on the given interval until ctx ends.
func (w *SyncWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				w.logger.ErrorContext(ctx, "pending sweep failed", log.FieldError, err)
			}
		}
	}
}

func (w *SyncWorker) export(ctx context.Context, tx core.Transaction) error {
	ref, err := w.ledger.AppendTransaction(ctx, tx)
	if err != nil {
		if markErr := w.repo.MarkSyncError(ctx, tx.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error",
				log.FieldTransactionID, tx.ID, log.FieldError, markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.repo.MarkSynced(ctx, tx.ID); err != nil {
		// The row was written; a stale status only means a duplicate later.
		w.logger.ErrorContext(ctx, "failed to mark as synced",
			log.FieldTransactionID, tx.ID, log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "transaction exported",
		log.FieldTransactionID, tx.ID,
		"ledger_ref", ref,
		log.FieldAmountCents, tx.Amount.Cents)
	return nil
}
