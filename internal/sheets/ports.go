// Package sheets defines the spreadsheet mirror of the ledger.
package sheets

import (
	"context"

	"finvue/internal/core"
)

// Header is the first row of the mirror sheet. Rows carry the CSV export
// columns after the transaction ID.
var Header = []string{"ID", "Date", "Description", "Type", "Category", "Amount"}

// Ports for outbound adapters.
type (
	// RowWriter keeps one row per transaction, keyed by ID.
	RowWriter interface {
		// Upsert appends a row for tx or rewrites the existing one.
		Upsert(ctx context.Context, tx core.Transaction) error
		// Delete removes the row for id. A missing row is not an error.
		Delete(ctx context.Context, id string) error
	}

	// RowLister reads the mirrored rows back.
	RowLister interface {
		List(ctx context.Context) ([]core.Transaction, error)
	}
)

// Row renders tx in mirror column order.
func Row(tx core.Transaction) []string {
	return []string{
		tx.ID,
		tx.Date.String(),
		tx.Description,
		string(tx.Type),
		tx.Category,
		tx.Amount.String(),
	}
}
