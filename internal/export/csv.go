// Package export renders the ledger as a CSV download.
package export

import (
	"errors"
	"io"
	"strings"
	"time"

	"finvue/internal/core"
)

var ErrNothingToExport = errors.New("no transactions to export")

var header = []string{"Date", "Description", "Type", "Category", "Amount"}

// Filename is the download name for an export taken at now.
func Filename(now time.Time) string {
	return "finvue_export_" + now.Format(core.DateLayout) + ".csv"
}

// CSV renders txs in the given order. The description column is always
// quoted; amounts are plain decimals without trailing zeros. Lines are
// joined by "\n" with no trailing newline.
func CSV(txs []core.Transaction) ([]byte, error) {
	if len(txs) == 0 {
		return nil, ErrNothingToExport
	}
	lines := make([]string, 0, len(txs)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, tx := range txs {
		lines = append(lines, strings.Join([]string{
			tx.Date.String(),
			quote(tx.Description),
			string(tx.Type),
			tx.Category,
			tx.Amount.Decimal().String(),
		}, ","))
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// Write streams CSV(txs) to w.
func Write(w io.Writer, txs []core.Transaction) error {
	b, err := CSV(txs)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
