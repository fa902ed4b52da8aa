package http

import (
	"net/http"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

// transactionPayload is the wire form of a transaction. Amounts travel as
// decimal strings so clients never handle cents directly.
type transactionPayload struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OccurredAt  string `json:"occurred_at"`
	CreatedAt   string `json:"created_at"`
	CategoryID  string `json:"category_id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Description string `json:"description,omitempty"`
}

func toPayload(tx core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          tx.ID,
		UserID:      tx.UserID,
		Type:        string(tx.Type),
		Amount:      core.FormatCents(tx.Amount.Cents),
		Currency:    tx.Amount.Currency,
		OccurredAt:  tx.OccurredAt.Format(time.RFC3339),
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
		CategoryID:  tx.CategoryID,
		AccountID:   tx.AccountID,
		Description: tx.Description,
	}
}

func toPayloads(txs []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toPayload(tx))
	}
	return out
}

type categoryExpensePayload struct {
	CategoryID   string `json:"category_id"`
	TotalExpense string `json:"total_expense"`
}

type summaryResponse struct {
	Transactions      []transactionPayload     `json:"transactions"`
	TotalExpense      string                   `json:"total_expense"`
	ExpenseByCategory []categoryExpensePayload `json:"expense_by_category"`
}

func toSummaryResponse(txs []core.Transaction, sum core.ExpenseSummary) summaryResponse {
	resp := summaryResponse{
		Transactions:      toPayloads(txs),
		TotalExpense:      core.FormatCents(sum.TotalCents),
		ExpenseByCategory: make([]categoryExpensePayload, 0, len(sum.ByCategory)),
	}
	for _, ct := range sum.ByCategory {
		resp.ExpenseByCategory = append(resp.ExpenseByCategory, categoryExpensePayload{
			CategoryID:   ct.CategoryID,
			TotalExpense: core.FormatCents(ct.Cents),
		})
	}
	return resp
}

type createTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	OccurredAt  string `json:"occurred_at"`
	CategoryID  string `json:"category_id"`
	AccountID   string `json:"account_id"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	occurredAt, err := parseTimestamp(req.OccurredAt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "occurred_at must be a valid timestamp")
		return
	}

	userID := requestUserID(r)
	tx, err := s.transactions.Record(r.Context(), services.RecordInput{
		UserID:      userID,
		Type:        req.Type,
		AmountCents: cents,
		Currency:    req.Currency,
		OccurredAt:  occurredAt,
		CategoryID:  req.CategoryID,
		AccountID:   req.AccountID,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.invalidateSummaries(userID)
	writeJSON(w, http.StatusCreated, toPayload(tx))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.transactions.List(r.Context(), requestUserID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), requestUserID(r), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(tx))
}

func (s *Server) handleByCategories(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	categoryIDs := r.URL.Query()["category_ids"]

	cacheKey := summaryCacheKey(userID, r.URL.RawQuery)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, sum, err := s.transactions.ByCategories(r.Context(), userID, categoryIDs)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := toSummaryResponse(txs, sum)
	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleByPeriod(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	q := r.URL.Query()

	start, err := parseTimestamp(q.Get("start_at"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "start_at must be a valid timestamp")
		return
	}
	end, err := parseTimestamp(q.Get("end_at"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "end_at must be a valid timestamp")
		return
	}

	cacheKey := summaryCacheKey(userID, r.URL.RawQuery)
	if cached, ok := s.summaryCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	txs, sum, err := s.transactions.ByPeriod(r.Context(), userID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := toSummaryResponse(txs, sum)
	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}
