package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo := storage.NewMemoryRepository()
	svc := services.NewTransactionService(repo, nil)
	logger := log.New(log.Config{Level: 99, Component: log.ComponentHTTP}) // silence
	srv := NewServer("0", svc, logger)
	t.Cleanup(func() {
		srv.limiter.Stop()
		srv.janitor.Stop()
	})
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func createTx(t *testing.T, srv *Server, userID, typ, amount, categoryID, occurredAt string) transactionPayload {
	t.Helper()
	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", map[string]string{
		"type":        typ,
		"amount":      amount,
		"currency":    "EUR",
		"occurred_at": occurredAt,
		"category_id": categoryID,
	}, map[string]string{"X-User-ID": userID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create returned %d: %s", rec.Code, rec.Body.String())
	}
	var tx transactionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return tx
}

func TestCreateTransaction(t *testing.T) {
	srv := newTestServer(t)

	tx := createTx(t, srv, "alice", "expense", "12.50", "groceries", "2026-03-01T10:00:00Z")

	if tx.ID == "" {
		t.Fatal("expected a generated id")
	}
	if tx.UserID != "alice" {
		t.Fatalf("user_id = %q, want alice", tx.UserID)
	}
	if tx.Amount != "12.50" {
		t.Fatalf("amount = %q, want 12.50", tx.Amount)
	}
	if tx.CreatedAt == "" {
		t.Fatal("expected created_at to be set")
	}
}

func TestCreateTransactionDefaultsUser(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", map[string]string{
		"type":        "income",
		"amount":      "100",
		"currency":    "EUR",
		"occurred_at": "2026-03-01T10:00:00Z",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var tx transactionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tx.UserID != "demo-user" {
		t.Fatalf("user_id = %q, want demo-user", tx.UserID)
	}
}

func TestCreateTransactionNaiveTimestamp(t *testing.T) {
	srv := newTestServer(t)

	tx := createTx(t, srv, "alice", "expense", "7.00", "groceries", "2026-03-01T10:00:00")

	if tx.OccurredAt != "2026-03-01T10:00:00Z" {
		t.Fatalf("occurred_at = %q, want 2026-03-01T10:00:00Z", tx.OccurredAt)
	}
}

func TestByPeriodNaiveTimestamps(t *testing.T) {
	srv := newTestServer(t)
	createTx(t, srv, "alice", "expense", "4.00", "food", "2026-03-01T10:00:00Z")

	rec := doRequest(t, srv, http.MethodGet,
		"/api/transactions/by-period?start_at=2026-03-01T00:00:00&end_at=2026-03-02T00:00:00", nil,
		map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalExpense != "4.00" {
		t.Fatalf("total_expense = %q, want 4.00", resp.TotalExpense)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"zero amount", map[string]string{
			"type": "expense", "amount": "0", "currency": "EUR",
			"occurred_at": "2026-03-01T10:00:00Z",
		}},
		{"negative amount", map[string]string{
			"type": "expense", "amount": "-5.00", "currency": "EUR",
			"occurred_at": "2026-03-01T10:00:00Z",
		}},
		{"bad currency", map[string]string{
			"type": "expense", "amount": "5.00", "currency": "EURO",
			"occurred_at": "2026-03-01T10:00:00Z",
		}},
		{"bad type", map[string]string{
			"type": "transfer", "amount": "5.00", "currency": "EUR",
			"occurred_at": "2026-03-01T10:00:00Z",
		}},
		{"bad timestamp", map[string]string{
			"type": "expense", "amount": "5.00", "currency": "EUR",
			"occurred_at": "yesterday",
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodPost, "/api/transactions", tc.body, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Detail == "" {
				t.Fatal("expected a detail message")
			}
		})
	}
}

func TestCreateTransactionMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	srv := newTestServer(t)

	first := createTx(t, srv, "alice", "expense", "1.00", "", "2026-03-01T10:00:00Z")
	second := createTx(t, srv, "alice", "expense", "2.00", "", "2026-02-01T10:00:00Z")
	createTx(t, srv, "bob", "expense", "3.00", "", "2026-03-01T10:00:00Z")

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions", nil, map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var txs []transactionPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2", len(txs))
	}
	if txs[0].ID != second.ID || txs[1].ID != first.ID {
		t.Fatal("expected newest created transaction first")
	}
}

func TestGetTransaction(t *testing.T) {
	srv := newTestServer(t)
	tx := createTx(t, srv, "alice", "expense", "9.99", "", "2026-03-01T10:00:00Z")

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions/"+tx.ID, nil, map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	t.Run("missing id", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/transactions/nope", nil, map[string]string{"X-User-ID": "alice"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("other user's transaction is hidden", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/api/transactions/"+tx.ID, nil, map[string]string{"X-User-ID": "bob"})
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestByCategories(t *testing.T) {
	srv := newTestServer(t)
	createTx(t, srv, "alice", "expense", "10.00", "food", "2026-03-01T10:00:00Z")
	createTx(t, srv, "alice", "expense", "5.00", "food", "2026-03-02T10:00:00Z")
	createTx(t, srv, "alice", "income", "99.00", "food", "2026-03-02T10:00:00Z")
	createTx(t, srv, "alice", "expense", "7.00", "travel", "2026-03-03T10:00:00Z")

	rec := doRequest(t, srv, http.MethodGet,
		"/api/transactions/by-categories?category_ids=food&category_ids=rent&category_ids=food",
		nil, map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalExpense != "15.00" {
		t.Fatalf("total = %q, want 15.00", resp.TotalExpense)
	}
	if len(resp.ExpenseByCategory) != 2 {
		t.Fatalf("by_category len = %d, want 2 (duplicates collapse)", len(resp.ExpenseByCategory))
	}
	if resp.ExpenseByCategory[0].CategoryID != "food" || resp.ExpenseByCategory[0].TotalExpense != "15.00" {
		t.Fatalf("food total = %+v", resp.ExpenseByCategory[0])
	}
	if resp.ExpenseByCategory[1].CategoryID != "rent" || resp.ExpenseByCategory[1].TotalExpense != "0.00" {
		t.Fatalf("rent should be seeded with zero, got %+v", resp.ExpenseByCategory[1])
	}
}

func TestByCategoriesRequiresIDs(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/transactions/by-categories", nil, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestByPeriod(t *testing.T) {
	srv := newTestServer(t)
	createTx(t, srv, "alice", "expense", "10.00", "food", "2026-03-01T00:00:00Z")
	createTx(t, srv, "alice", "expense", "4.00", "", "2026-03-05T00:00:00Z")
	createTx(t, srv, "alice", "expense", "8.00", "food", "2026-04-01T00:00:00Z") // outside

	rec := doRequest(t, srv, http.MethodGet,
		"/api/transactions/by-period?start_at=2026-03-01T00:00:00Z&end_at=2026-03-31T23:59:59Z",
		nil, map[string]string{"X-User-ID": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalExpense != "14.00" {
		t.Fatalf("total = %q, want 14.00", resp.TotalExpense)
	}
	if len(resp.Transactions) != 2 {
		t.Fatalf("transactions len = %d, want 2", len(resp.Transactions))
	}

	var sawEmpty bool
	for _, ct := range resp.ExpenseByCategory {
		if ct.CategoryID == "" {
			sawEmpty = true
			if ct.TotalExpense != "4.00" {
				t.Fatalf("empty category total = %q, want 4.00", ct.TotalExpense)
			}
		}
	}
	if !sawEmpty {
		t.Fatal("expected a bucket for uncategorized expenses")
	}
}

func TestByPeriodRejectsInvertedRange(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet,
		"/api/transactions/by-period?start_at=2026-04-01T00:00:00Z&end_at=2026-03-01T00:00:00Z", nil, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSummaryCacheInvalidatedOnCreate(t *testing.T) {
	srv := newTestServer(t)
	createTx(t, srv, "alice", "expense", "10.00", "food", "2026-03-01T00:00:00Z")

	target := "/api/transactions/by-categories?category_ids=food"
	headers := map[string]string{"X-User-ID": "alice"}

	rec := doRequest(t, srv, http.MethodGet, target, nil, headers)
	var before summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.TotalExpense != "10.00" {
		t.Fatalf("total = %q, want 10.00", before.TotalExpense)
	}

	createTx(t, srv, "alice", "expense", "2.50", "food", "2026-03-02T00:00:00Z")

	rec = doRequest(t, srv, http.MethodGet, target, nil, headers)
	var after summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.TotalExpense != "12.50" {
		t.Fatalf("total after create = %q, want 12.50", after.TotalExpense)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, srv, http.MethodGet, path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil, nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected a generated X-Request-ID")
	}

	rec = doRequest(t, srv, http.MethodGet, "/healthz", nil, map[string]string{"X-Request-ID": "req_test"})
	if got := rec.Header().Get("X-Request-ID"); got != "req_test" {
		t.Fatalf("X-Request-ID = %q, want req_test", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil, nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
