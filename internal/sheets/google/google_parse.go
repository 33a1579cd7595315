package google

import (
	"fmt"
	"strings"

	"finvue/internal/core"
)

// parseRows converts a values matrix (as returned by the Sheets API, header
// row excluded) into transactions. Rows that do not parse are skipped and
// reported in the returned count.
func parseRows(values [][]interface{}) ([]core.Transaction, int) {
	out := make([]core.Transaction, 0, len(values))
	skipped := 0
	for _, raw := range values {
		tx, err := parseRow(toStrings(raw))
		if err != nil {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, skipped
}

func parseRow(row []string) (core.Transaction, error) {
	if len(row) < 6 {
		return core.Transaction{}, fmt.Errorf("short row: %d cells", len(row))
	}
	date, err := core.ParseDate(row[1])
	if err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseType(row[3])
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(row[5])
	if err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:          strings.TrimSpace(row[0]),
		Date:        date,
		Description: row[2],
		Type:        typ,
		Category:    row[4],
		Amount:      core.Money{Cents: cents},
	}
	return tx, tx.Validate()
}

// findRow returns the 1-based sheet row holding id in a column A read that
// starts at row 1, or 0.
func findRow(ids [][]interface{}, id string) int {
	for i, r := range ids {
		cells := toStrings(r)
		if len(cells) > 0 && strings.TrimSpace(cells[0]) == id {
			return i + 1
		}
	}
	return 0
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toInterfaces(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
