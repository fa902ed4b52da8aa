// Package google exports transactions to a Google Sheets ledger.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

// Client appends transaction rows to a single ledger sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.LedgerAppender = (*Client)(nil)

// Config carries the spreadsheet target and service account credentials.
// Exactly one of CredentialsJSON or CredentialsFile is needed; with neither
// set, Application Default Credentials are used.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// New builds a sheets client from explicit configuration.
func New(ctx context.Context, config Config) (*Client, error) {
	if strings.TrimSpace(config.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(config.SheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	var opts []goption.ClientOption
	switch {
	case strings.TrimSpace(config.CredentialsJSON) != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	case strings.TrimSpace(config.CredentialsFile) != "":
		opts = append(opts, goption.WithCredentialsFile(config.CredentialsFile))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: config.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendTransaction writes the transaction as a new ledger row and returns
// the range the API reports for it.
func (c *Client) AppendTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}
	rng := fmt.Sprintf("%s!A:H", c.sheetName)

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	rowRef := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		rowRef = resp.Updates.UpdatedRange
	}
	return rowRef, nil
}

// transactionRow lays out a ledger row: id, occurred date, type, amount,
// currency, category, account, description.
func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.OccurredAt.Format("2006-01-02"),
		string(tx.Type),
		core.FormatCents(tx.Amount.Cents),
		tx.Amount.Currency,
		tx.CategoryID,
		tx.AccountID,
		tx.Description,
	}
}
