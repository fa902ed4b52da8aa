package core

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// MaxDescriptionLength bounds the free-text description field.
const MaxDescriptionLength = 500

type (
	TransactionType string

	Money struct {
		Cents    int64
		Currency string // 3-letter code, e.g. "EUR"
	}

	Transaction struct {
		ID          string
		UserID      string
		Type        TransactionType
		Amount      Money
		OccurredAt  time.Time
		CreatedAt   time.Time
		CategoryID  string // optional, empty means uncategorized
		AccountID   string // optional
		Description string // optional
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than 0")
	ErrInvalidCurrency    = errors.New("currency must be a 3-letter code")
	ErrInvalidType        = errors.New("unsupported transaction type")
	ErrMissingUser        = errors.New("user id is required")
	ErrMissingOccurredAt  = errors.New("occurred_at is required")
	ErrDescriptionTooLong = errors.New("description too long")
	ErrEmptyCategoryIDs   = errors.New("category ids must not be empty")
	ErrInvalidPeriod      = errors.New("start must be before or equal to end")
	ErrNotFound           = errors.New("transaction not found")
)

// ParseTransactionType validates a raw type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case Expense, Income:
		return TransactionType(s), nil
	default:
		return "", ErrInvalidType
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if len(m.Currency) != 3 {
		return ErrInvalidCurrency
	}
	for _, r := range m.Currency {
		if !unicode.IsLetter(r) {
			return ErrInvalidCurrency
		}
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrMissingUser
	}
	switch t.Type {
	case Expense, Income:
	default:
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.OccurredAt.IsZero() {
		return ErrMissingOccurredAt
	}
	if len(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// NewTransaction builds a validated transaction with a fresh UUID and
// creation timestamp.
func NewTransaction(userID string, typ TransactionType, amount Money, occurredAt time.Time, categoryID, accountID, description string) (Transaction, error) {
	tx := Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        typ,
		Amount:      amount,
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   time.Now().UTC(),
		CategoryID:  categoryID,
		AccountID:   accountID,
		Description: description,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}
