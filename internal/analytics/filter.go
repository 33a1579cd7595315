// Package analytics derives dashboard figures from a ledger snapshot.
//
// Every function here is pure: the same transactions, taxonomy, selection
// and clock always give the same result, and the inputs are never mutated.
package analytics

import (
	"strings"

	"finvue/internal/core"
)

// Selection is the active view window. Month is zero-based (January is 0).
// Year 0 matches any year. An empty Query matches everything.
type Selection struct {
	Month int    `json:"month"`
	Year  int    `json:"year,omitempty"`
	Query string `json:"query,omitempty"`
}

// Filter returns the transactions that fall in the selected month and match
// the query, in input order. The query is compared case-insensitively against
// description and category and is not trimmed.
func Filter(txs []core.Transaction, sel Selection) []core.Transaction {
	out := make([]core.Transaction, 0)
	q := strings.ToLower(sel.Query)
	for _, tx := range txs {
		if tx.Date.MonthIndex() != sel.Month {
			continue
		}
		if sel.Year != 0 && tx.Date.Year() != sel.Year {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(tx.Description), q) &&
			!strings.Contains(strings.ToLower(tx.Category), q) {
			continue
		}
		out = append(out, tx)
	}
	return out
}
