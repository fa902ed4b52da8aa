package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists transactions in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ TransactionRepository = (*SQLiteRepository)(nil)
	_ SyncQueue             = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const insertTransaction = `
INSERT INTO transactions (
    id, user_id, type, amount_cents, currency,
    occurred_at, created_at, category_id, account_id, description
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteRepository) Create(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, insertTransaction,
		tx.ID,
		tx.UserID,
		string(tx.Type),
		tx.Amount.Cents,
		tx.Amount.Currency,
		tx.OccurredAt.UTC().Format(time.RFC3339Nano),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
		nullable(tx.CategoryID),
		nullable(tx.AccountID),
		nullable(tx.Description),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"user_id", tx.UserID,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"currency", tx.Amount.Currency)

	return nil
}

const selectColumns = `
    id, user_id, type, amount_cents, currency,
    occurred_at, created_at, category_id, account_id, description`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+selectColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM transactions WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list by user: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) ListByUserAndCategories(ctx context.Context, userID string, categoryIDs []string) ([]core.Transaction, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?,", len(categoryIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(categoryIDs)+1)
	args = append(args, userID)
	for _, id := range categoryIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM transactions
         WHERE user_id = ? AND category_id IN (`+placeholders+`)
         ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list by categories: %w", err)
	}
	return collect(rows)
}

func (r *SQLiteRepository) ListByUserAndPeriod(ctx context.Context, userID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM transactions
         WHERE user_id = ? AND occurred_at >= ? AND occurred_at <= ?
         ORDER BY occurred_at DESC`,
		userID,
		start.UTC().Format(time.RFC3339Nano),
		end.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("list by period: %w", err)
	}
	return collect(rows)
}

// PendingSync implements SyncQueue.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM transactions
         WHERE sync_status = 'pending'
         ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	return collect(rows)
}

// MarkSynced implements SyncQueue.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError implements SyncQueue.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx                             core.Transaction
		typ                            string
		occurredAt, createdAt          string
		category, account, description sql.NullString
	)
	err := row.Scan(&tx.ID, &tx.UserID, &typ, &tx.Amount.Cents, &tx.Amount.Currency,
		&occurredAt, &createdAt, &category, &account, &description)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Type = core.TransactionType(typ)
	if tx.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at: %w", err)
	}
	if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	tx.CategoryID = category.String
	tx.AccountID = account.String
	tx.Description = description.String
	return tx, nil
}

func collect(rows *sql.Rows) ([]core.Transaction, error) {
	defer rows.Close()
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
