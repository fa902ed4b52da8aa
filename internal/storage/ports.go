package storage

import (
	"context"
	"time"

	"expensetracker/internal/core"
)

// TransactionRepository is the persistence port for transactions.
type TransactionRepository interface {
	// Create persists a new transaction.
	Create(ctx context.Context, tx core.Transaction) error

	// Get returns a transaction by id, or core.ErrNotFound.
	Get(ctx context.Context, id string) (core.Transaction, error)

	// ListByUser returns a user's transactions, newest created first.
	ListByUser(ctx context.Context, userID string) ([]core.Transaction, error)

	// ListByUserAndCategories filters a user's transactions by category set,
	// newest created first. An empty set yields an empty result.
	ListByUserAndCategories(ctx context.Context, userID string, categoryIDs []string) ([]core.Transaction, error)

	// ListByUserAndPeriod returns transactions with occurred_at inside the
	// inclusive [start, end] range, most recently occurred first.
	ListByUserAndPeriod(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error)
}

// SyncQueue exposes the pending-export queue backing the ledger worker.
type SyncQueue interface {
	// PendingSync returns up to limit transactions awaiting export,
	// oldest created first.
	PendingSync(ctx context.Context, limit int) ([]core.Transaction, error)

	// MarkSynced records a successful export.
	MarkSynced(ctx context.Context, id string) error

	// MarkSyncError flags a failed export for later inspection.
	MarkSyncError(ctx context.Context, id string) error
}
