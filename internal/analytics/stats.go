package analytics

import (
	"github.com/shopspring/decimal"

	"finvue/internal/core"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// MonthlyStatsOf totals the amounts of txs per type. Callers pass a
// collection already narrowed to one month.
func MonthlyStatsOf(txs []core.Transaction) core.MonthlyStats {
	var s core.MonthlyStats
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(tx.Amount)
		case core.Saving:
			s.Savings = s.Savings.Add(tx.Amount)
		case core.Debt:
			s.Debts = s.Debts.Add(tx.Amount)
		case core.Bill:
			s.Bills = s.Bills.Add(tx.Amount)
		}
	}
	return s
}

// Summarize derives the headline metrics. Both ratios are zero when there is
// no income.
func Summarize(s core.MonthlyStats) core.SummaryMetrics {
	total := s.Expenses.Add(s.Bills)
	m := core.SummaryMetrics{
		TotalExpenses: total,
		NetBalance:    core.SignedAmount(s.Income.Cents - total.Cents - s.Savings.Cents - s.Debts.Cents),
		ExpenseRatio:  decimal.Zero,
	}
	if s.Income.Cents == 0 {
		return m
	}

	income := decimal.NewFromInt(s.Income.Cents)
	m.ExpenseRatio = decimal.NewFromInt(total.Cents).Div(income).Mul(hundred)
	// Halves round toward positive infinity: 2.5 -> 3, -2.5 -> -2.
	m.EfficiencyRate = decimal.NewFromInt(s.Income.Cents - total.Cents).
		Div(income).
		Mul(hundred).
		Add(half).
		Floor().
		IntPart()
	return m
}

// Distribution splits the month's outgoing capital into labelled slices.
// Zero slices are left out.
func Distribution(s core.MonthlyStats) []core.Slice {
	candidates := []core.Slice{
		{Label: "Bills", Value: s.Bills},
		{Label: "Expenses", Value: s.Expenses},
		{Label: "Debts", Value: s.Debts},
		{Label: "Savings", Value: s.Savings},
	}
	out := make([]core.Slice, 0, len(candidates))
	for _, c := range candidates {
		if c.Value.IsZero() {
			continue
		}
		out = append(out, c)
	}
	return out
}
