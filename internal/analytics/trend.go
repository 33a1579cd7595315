package analytics

import (
	"time"

	"finvue/internal/core"
)

// TrendWindow is the number of months in the rolling trend series.
const TrendWindow = 6

// SparklineLength is how many trailing trend months feed a sparkline.
const SparklineLength = 3

// TrendOptions tunes the month bucketing.
type TrendOptions struct {
	// CollapseYears buckets by month of year only, so the same month of
	// different years lands in one bucket.
	CollapseYears bool
}

type bucketKey struct {
	year  int
	month int
}

func keyFor(year, month int, opts TrendOptions) bucketKey {
	if opts.CollapseYears {
		return bucketKey{month: month}
	}
	return bucketKey{year: year, month: month}
}

// TrackedCategories is the fixed key set of the trend breakdown: the
// expense and bill categories of the taxonomy.
func TrackedCategories(tax core.Taxonomy) []string {
	return tax.KeySet(core.Expense, core.Bill)
}

// Trend builds the six month series ending at the month of now, oldest
// first. It reads the whole collection and ignores any view selection.
// Every point carries a zero entry for each tracked category.
func Trend(txs []core.Transaction, tax core.Taxonomy, now time.Time, opts TrendOptions) []core.TrendPoint {
	keys := TrackedCategories(tax)
	tracked := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		tracked[k] = struct{}{}
	}

	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	points := make([]core.TrendPoint, TrendWindow)
	index := make(map[bucketKey]int, TrendWindow)
	for i := 0; i < TrendWindow; i++ {
		m := first.AddDate(0, i-(TrendWindow-1), 0)
		month := int(m.Month()) - 1
		p := core.TrendPoint{
			Label:      core.MonthLabel(month),
			Year:       m.Year(),
			Month:      month,
			Categories: make(map[string]core.Money, len(keys)),
		}
		for _, k := range keys {
			p.Categories[k] = core.Money{}
		}
		points[i] = p
		index[keyFor(m.Year(), month, opts)] = i
	}

	for _, tx := range txs {
		i, ok := index[keyFor(tx.Date.Year(), tx.Date.MonthIndex(), opts)]
		if !ok {
			continue
		}
		p := &points[i]
		if tx.IsIncome() {
			p.Income = p.Income.Add(tx.Amount)
			p.Net += core.SignedAmount(tx.Amount.Cents)
			continue
		}
		p.Net -= core.SignedAmount(tx.Amount.Cents)
		if tx.Type == core.Debt {
			p.Debt = p.Debt.Add(tx.Amount)
		}
		if _, ok := tracked[tx.Category]; ok {
			p.Categories[tx.Category] = p.Categories[tx.Category].Add(tx.Amount)
		}
	}
	return points
}

// SparklinesOf reads the last months of a trend series into the four
// summary card series. Outflow is the sum of the tracked categories and
// savings is the positive part of net.
func SparklinesOf(points []core.TrendPoint) core.Sparklines {
	start := len(points) - SparklineLength
	if start < 0 {
		start = 0
	}
	tail := points[start:]
	s := core.Sparklines{
		Inflow:  make([]core.Money, 0, len(tail)),
		Outflow: make([]core.Money, 0, len(tail)),
		Savings: make([]core.Money, 0, len(tail)),
		Debt:    make([]core.Money, 0, len(tail)),
	}
	for _, p := range tail {
		var out core.Money
		for _, v := range p.Categories {
			out = out.Add(v)
		}
		var saved core.Money
		if p.Net > 0 {
			saved = core.Money{Cents: int64(p.Net)}
		}
		s.Inflow = append(s.Inflow, p.Income)
		s.Outflow = append(s.Outflow, out)
		s.Savings = append(s.Savings, saved)
		s.Debt = append(s.Debt, p.Debt)
	}
	return s
}
