package core

import "github.com/shopspring/decimal"

// MonthlyStats holds the five per-type totals of one month.
type MonthlyStats struct {
	Income   Money `json:"income"`
	Expenses Money `json:"expenses"`
	Savings  Money `json:"savings"`
	Debts    Money `json:"debts"`
	Bills    Money `json:"bills"`
}

// SummaryMetrics are the headline figures derived from MonthlyStats.
// NetBalance is signed, so it is kept in plain cents.
type SummaryMetrics struct {
	TotalExpenses  Money           `json:"totalExpenses"`
	NetBalance     SignedAmount    `json:"netBalance"`
	ExpenseRatio   decimal.Decimal `json:"expenseRatio"`
	EfficiencyRate int64           `json:"efficiencyRate"`
}

// SignedAmount is a cent amount that may be negative.
type SignedAmount int64

func (s SignedAmount) Decimal() decimal.Decimal {
	return decimal.New(int64(s), -2)
}

// IsNegative reports the deficit display state.
func (s SignedAmount) IsNegative() bool {
	return s < 0
}

func (s SignedAmount) MarshalJSON() ([]byte, error) {
	return []byte(s.Decimal().String()), nil
}

// TrendPoint is one month of the rolling trend window. Categories always
// carries every tracked key, zero when nothing was spent.
type TrendPoint struct {
	Label      string           `json:"name"`
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Net        SignedAmount     `json:"net"`
	Income     Money            `json:"income"`
	Debt       Money            `json:"debt"`
	Categories map[string]Money `json:"categories"`
}

// Slice is one labelled value of a distribution.
type Slice struct {
	Label string `json:"name"`
	Value Money  `json:"value"`
}

// Sparklines are the short per-card series shown next to the headline totals.
type Sparklines struct {
	Inflow  []Money `json:"inflow"`
	Outflow []Money `json:"outflow"`
	Savings []Money `json:"savings"`
	Debt    []Money `json:"debt"`
}
