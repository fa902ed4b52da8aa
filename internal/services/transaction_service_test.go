package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type recordingPublisher struct {
	ids []string
	err error
}

func (p *recordingPublisher) PublishTransactionSync(_ context.Context, id string, _ int64) error {
	p.ids = append(p.ids, id)
	return p.err
}

func newService(pub SyncPublisher) (*TransactionService, *storage.MemoryRepository) {
	repo := storage.NewMemoryRepository()
	return NewTransactionService(repo, pub), repo
}

func validInput() RecordInput {
	return RecordInput{
		UserID:      "u1",
		Type:        "expense",
		AmountCents: 1234,
		Currency:    "eur",
		OccurredAt:  time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		CategoryID:  "food",
		Description: "lunch",
	}
}

func TestRecordPersistsAndPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, repo := newService(pub)

	tx, err := svc.Record(context.Background(), validInput())
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if tx.Amount.Currency != "EUR" {
		t.Fatalf("currency not normalized: %q", tx.Amount.Currency)
	}

	stored, err := repo.Get(context.Background(), tx.ID)
	if err != nil {
		t.Fatalf("stored transaction missing: %v", err)
	}
	if stored.Amount.Cents != 1234 {
		t.Fatalf("stored cents = %d", stored.Amount.Cents)
	}
	if len(pub.ids) != 1 || pub.ids[0] != tx.ID {
		t.Fatalf("publish ids = %v", pub.ids)
	}
}

func TestRecordSurvivesPublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc, repo := newService(pub)

	tx, err := svc.Record(context.Background(), validInput())
	if err != nil {
		t.Fatalf("publish failure must not fail the record: %v", err)
	}
	if _, err := repo.Get(context.Background(), tx.ID); err != nil {
		t.Fatalf("transaction not persisted: %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	svc, _ := newService(nil)

	cases := []struct {
		name    string
		mutate  func(*RecordInput)
		wantErr error
	}{
		{"bad type", func(in *RecordInput) { in.Type = "loan" }, core.ErrInvalidType},
		{"zero amount", func(in *RecordInput) { in.AmountCents = 0 }, core.ErrInvalidAmount},
		{"bad currency", func(in *RecordInput) { in.Currency = "euros" }, core.ErrInvalidCurrency},
		{"missing user", func(in *RecordInput) { in.UserID = "" }, core.ErrMissingUser},
		{"zero occurred_at", func(in *RecordInput) { in.OccurredAt = time.Time{} }, core.ErrMissingOccurredAt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			if _, err := svc.Record(context.Background(), in); !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestGetHidesOtherUsers(t *testing.T) {
	svc, _ := newService(nil)
	tx, err := svc.Record(context.Background(), validInput())
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	if _, err := svc.Get(context.Background(), "u1", tx.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := svc.Get(context.Background(), "u2", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("other user should see not-found, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "u1", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing id should be not-found, got %v", err)
	}
}

func TestByCategories(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	record := func(cents int64, typ, category string) {
		in := validInput()
		in.AmountCents = cents
		in.Type = typ
		in.CategoryID = category
		if _, err := svc.Record(ctx, in); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	record(100, "expense", "food")
	record(200, "expense", "food")
	record(50, "expense", "transport")
	record(9000, "income", "food")

	txs, sum, err := svc.ByCategories(ctx, "u1", []string{"food", "food", "rent"})
	if err != nil {
		t.Fatalf("by categories: %v", err)
	}
	if len(txs) != 3 { // both food expenses + food income; duplicate id collapsed
		t.Fatalf("got %d transactions", len(txs))
	}
	if sum.TotalCents != 300 {
		t.Fatalf("total = %d", sum.TotalCents)
	}
	if len(sum.ByCategory) != 2 {
		t.Fatalf("expected requested categories seeded, got %+v", sum.ByCategory)
	}
	if sum.ByCategory[1] != (core.CategoryTotal{CategoryID: "rent", Cents: 0}) {
		t.Fatalf("rent bucket = %+v", sum.ByCategory[1])
	}

	if _, _, err := svc.ByCategories(ctx, "u1", nil); !errors.Is(err, core.ErrEmptyCategoryIDs) {
		t.Fatalf("expected ErrEmptyCategoryIDs, got %v", err)
	}
}

func TestByPeriod(t *testing.T) {
	svc, _ := newService(nil)
	ctx := context.Background()

	at := func(day int) time.Time { return time.Date(2025, 5, day, 0, 0, 0, 0, time.UTC) }
	for day, cents := range map[int]int64{1: 100, 15: 200, 31: 400} {
		in := validInput()
		in.OccurredAt = at(day)
		in.AmountCents = cents
		if _, err := svc.Record(ctx, in); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	txs, sum, err := svc.ByPeriod(ctx, "u1", at(1), at(15))
	if err != nil {
		t.Fatalf("by period: %v", err)
	}
	if len(txs) != 2 || sum.TotalCents != 300 {
		t.Fatalf("got %d txs, total %d", len(txs), sum.TotalCents)
	}

	if _, _, err := svc.ByPeriod(ctx, "u1", at(15), at(1)); !errors.Is(err, core.ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
	// Equal bounds are a valid single-instant period.
	if _, _, err := svc.ByPeriod(ctx, "u1", at(15), at(15)); err != nil {
		t.Fatalf("equal bounds: %v", err)
	}
}
