package core

// CategoryTotal is an expense total attributed to a single category.
// An empty Category collects transactions recorded without one.
type CategoryTotal struct {
	CategoryID string
	Cents      int64
}

// ExpenseSummary aggregates expense amounts over a transaction set.
// Income transactions never contribute to the totals.
type ExpenseSummary struct {
	TotalCents int64
	ByCategory []CategoryTotal
}

// SummarizeByCategories totals expenses per requested category. Every id in
// categoryIDs appears in the result, zero-valued when nothing matched, in the
// order requested.
func SummarizeByCategories(txs []Transaction, categoryIDs []string) ExpenseSummary {
	totals := make(map[string]int64, len(categoryIDs))
	for _, id := range categoryIDs {
		totals[id] = 0
	}
	var sum ExpenseSummary
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		sum.TotalCents += tx.Amount.Cents
		if tx.CategoryID != "" {
			totals[tx.CategoryID] += tx.Amount.Cents
		}
	}
	for _, id := range categoryIDs {
		sum.ByCategory = append(sum.ByCategory, CategoryTotal{CategoryID: id, Cents: totals[id]})
	}
	return sum
}

// SummarizePeriod totals expenses per category over a period result set,
// bucketing uncategorized expenses under the empty category id. Categories
// appear in first-seen order.
func SummarizePeriod(txs []Transaction) ExpenseSummary {
	totals := make(map[string]int64)
	var order []string
	var sum ExpenseSummary
	for _, tx := range txs {
		if tx.Type != Expense {
			continue
		}
		sum.TotalCents += tx.Amount.Cents
		if _, seen := totals[tx.CategoryID]; !seen {
			order = append(order, tx.CategoryID)
		}
		totals[tx.CategoryID] += tx.Amount.Cents
	}
	for _, id := range order {
		sum.ByCategory = append(sum.ByCategory, CategoryTotal{CategoryID: id, Cents: totals[id]})
	}
	return sum
}

// DedupCategoryIDs removes duplicates while preserving first-occurrence order.
func DedupCategoryIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
