package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// SyncPublisher notifies the export worker that a transaction needs syncing.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
}

// TransactionService orchestrates transaction operations over the repository
// and the optional sync publisher.
type TransactionService struct {
	repo      storage.TransactionRepository
	publisher SyncPublisher
}

// NewTransactionService wires the service. publisher may be nil, in which
// case recorded transactions are picked up by the worker's periodic sweep.
func NewTransactionService(repo storage.TransactionRepository, publisher SyncPublisher) *TransactionService {
	return &TransactionService{repo: repo, publisher: publisher}
}

// RecordInput carries the raw fields of a record request.
type RecordInput struct {
	UserID      string
	Type        string
	AmountCents int64
	Currency    string
	OccurredAt  time.Time
	CategoryID  string
	AccountID   string
	Description string
}

// Record validates and persists a new transaction, then publishes a sync
// message. Publish failures are logged but never fail the request: the
// transaction is durable locally and the worker sweep catches up later.
func (s *TransactionService) Record(ctx context.Context, in RecordInput) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}

	amount := core.Money{Cents: in.AmountCents, Currency: core.NormalizeCurrency(in.Currency)}
	tx, err := core.NewTransaction(in.UserID, typ, amount, in.OccurredAt, in.CategoryID, in.AccountID, in.Description)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionSync(ctx, tx.ID, 1); err != nil {
			slog.ErrorContext(ctx, "Failed to publish sync message",
				"id", tx.ID, "error", err)
		}
	}

	return tx, nil
}

// Get returns a user's transaction. A transaction belonging to another user
// reports core.ErrNotFound, not a permission error.
func (s *TransactionService) Get(ctx context.Context, userID, transactionID string) (core.Transaction, error) {
	tx, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

// List returns all of a user's transactions, newest created first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ByCategories returns a user's transactions in the given categories along
// with expense totals. Duplicate ids collapse; an empty set is an error.
func (s *TransactionService) ByCategories(ctx context.Context, userID string, categoryIDs []string) ([]core.Transaction, core.ExpenseSummary, error) {
	unique := core.DedupCategoryIDs(categoryIDs)
	if len(unique) == 0 {
		return nil, core.ExpenseSummary{}, core.ErrEmptyCategoryIDs
	}

	txs, err := s.repo.ListByUserAndCategories(ctx, userID, unique)
	if err != nil {
		return nil, core.ExpenseSummary{}, fmt.Errorf("list by categories: %w", err)
	}

	return txs, core.SummarizeByCategories(txs, unique), nil
}

// ByPeriod returns a user's transactions inside [start, end] along with
// expense totals per category, the empty category included.
func (s *TransactionService) ByPeriod(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, core.ExpenseSummary, error) {
	start, end = start.UTC(), end.UTC()
	if start.After(end) {
		return nil, core.ExpenseSummary{}, core.ErrInvalidPeriod
	}

	txs, err := s.repo.ListByUserAndPeriod(ctx, userID, start, end)
	if err != nil {
		return nil, core.ExpenseSummary{}, fmt.Errorf("list by period: %w", err)
	}

	return txs, core.SummarizePeriod(txs), nil
}
