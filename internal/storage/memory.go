package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"expensetracker/internal/core"
)

// MemoryRepository is an in-memory TransactionRepository used for tests and
// for running the server without a database file.
type MemoryRepository struct {
	mu     sync.RWMutex
	txs    map[string]core.Transaction
	status map[string]string // id -> sync status
	order  []string          // insertion order, oldest first
}

var (
	_ TransactionRepository = (*MemoryRepository)(nil)
	_ SyncQueue             = (*MemoryRepository)(nil)
)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		txs:    make(map[string]core.Transaction),
		status: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(_ context.Context, tx core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx
	r.status[tx.ID] = "pending"
	r.order = append(r.order, tx.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.txs[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (r *MemoryRepository) ListByUser(_ context.Context, userID string) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(tx core.Transaction) bool {
		return tx.UserID == userID
	}, byCreatedDesc), nil
}

func (r *MemoryRepository) ListByUserAndCategories(_ context.Context, userID string, categoryIDs []string) ([]core.Transaction, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[string]struct{}, len(categoryIDs))
	for _, id := range categoryIDs {
		wanted[id] = struct{}{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(tx core.Transaction) bool {
		if tx.UserID != userID || tx.CategoryID == "" {
			return false
		}
		_, ok := wanted[tx.CategoryID]
		return ok
	}, byCreatedDesc), nil
}

func (r *MemoryRepository) ListByUserAndPeriod(_ context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(tx core.Transaction) bool {
		if tx.UserID != userID {
			return false
		}
		return !tx.OccurredAt.Before(start) && !tx.OccurredAt.After(end)
	}, byOccurredDesc), nil
}

func (r *MemoryRepository) PendingSync(_ context.Context, limit int) ([]core.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []core.Transaction
	for _, id := range r.order {
		if r.status[id] != "pending" {
			continue
		}
		out = append(out, r.txs[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) MarkSynced(_ context.Context, id string) error {
	return r.setStatus(id, "synced")
}

func (r *MemoryRepository) MarkSyncError(_ context.Context, id string) error {
	return r.setStatus(id, "error")
}

func (r *MemoryRepository) setStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.txs[id]; !ok {
		return core.ErrNotFound
	}
	r.status[id] = status
	return nil
}

type lessFunc func(a, b core.Transaction) bool

func byCreatedDesc(a, b core.Transaction) bool  { return a.CreatedAt.After(b.CreatedAt) }
func byOccurredDesc(a, b core.Transaction) bool { return a.OccurredAt.After(b.OccurredAt) }

func (r *MemoryRepository) filter(keep func(core.Transaction) bool, less lessFunc) []core.Transaction {
	var out []core.Transaction
	for _, id := range r.order {
		if tx := r.txs[id]; keep(tx) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
