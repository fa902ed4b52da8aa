package core

import (
	"testing"
	"time"
)

func tx(typ TransactionType, cents int64, category string) Transaction {
	return Transaction{
		ID:         "id",
		UserID:     "u1",
		Type:       typ,
		Amount:     Money{Cents: cents, Currency: "EUR"},
		OccurredAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CategoryID: category,
	}
}

func TestSummarizeByCategories(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 100, "food"),
		tx(Expense, 250, "food"),
		tx(Expense, 40, "transport"),
		tx(Income, 9999, "food"), // income never counts
		tx(Expense, 60, ""),      // uncategorized counts toward total only
	}
	sum := SummarizeByCategories(txs, []string{"food", "transport", "rent"})

	if sum.TotalCents != 450 {
		t.Fatalf("total = %d, want 450", sum.TotalCents)
	}
	want := []CategoryTotal{
		{"food", 350},
		{"transport", 40},
		{"rent", 0}, // requested but unmatched, still present
	}
	if len(sum.ByCategory) != len(want) {
		t.Fatalf("got %d categories, want %d", len(sum.ByCategory), len(want))
	}
	for i, w := range want {
		if sum.ByCategory[i] != w {
			t.Fatalf("category %d = %+v, want %+v", i, sum.ByCategory[i], w)
		}
	}
}

func TestSummarizePeriod(t *testing.T) {
	txs := []Transaction{
		tx(Expense, 100, "food"),
		tx(Expense, 60, ""),
		tx(Income, 5000, ""),
		tx(Expense, 40, "food"),
	}
	sum := SummarizePeriod(txs)

	if sum.TotalCents != 200 {
		t.Fatalf("total = %d, want 200", sum.TotalCents)
	}
	if len(sum.ByCategory) != 2 {
		t.Fatalf("got %d categories, want 2", len(sum.ByCategory))
	}
	if sum.ByCategory[0] != (CategoryTotal{"food", 140}) {
		t.Fatalf("food bucket = %+v", sum.ByCategory[0])
	}
	if sum.ByCategory[1] != (CategoryTotal{"", 60}) {
		t.Fatalf("uncategorized bucket = %+v", sum.ByCategory[1])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := SummarizePeriod(nil)
	if sum.TotalCents != 0 || len(sum.ByCategory) != 0 {
		t.Fatalf("expected empty summary, got %+v", sum)
	}
}

func TestDedupCategoryIDs(t *testing.T) {
	got := DedupCategoryIDs([]string{"a", "b", "a", "c", "b"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if out := DedupCategoryIDs(nil); out != nil {
		t.Fatalf("expected nil, got %v", out)
	}
}
