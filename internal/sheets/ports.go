// Package sheets defines the outbound port for exporting transactions to a
// spreadsheet ledger.
package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// LedgerAppender appends a transaction as a row in an external ledger and
// returns a reference to the written row.
type LedgerAppender interface {
	AppendTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
