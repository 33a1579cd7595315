package analytics

import (
	"time"

	"finvue/internal/core"
)

// Dashboard bundles every derived view the UI draws for one selection.
type Dashboard struct {
	Selection     Selection           `json:"selection"`
	MonthLabel    string              `json:"monthLabel"`
	Stats         core.MonthlyStats   `json:"stats"`
	Summary       core.SummaryMetrics `json:"summary"`
	Distribution  []core.Slice        `json:"distribution"`
	Trend         []core.TrendPoint   `json:"trend"`
	TrendKeys     []string            `json:"trendKeys"`
	TopCategories []string            `json:"topCategories"`
	Sparklines    core.Sparklines     `json:"sparklines"`
	Transactions  []core.Transaction  `json:"transactions"`
}

// Build computes a Dashboard from a ledger snapshot. Stats, summary and
// distribution follow the selection; trend, ranking and sparklines read the
// full collection.
func Build(txs []core.Transaction, tax core.Taxonomy, sel Selection, now time.Time, opts TrendOptions) Dashboard {
	filtered := Filter(txs, sel)
	stats := MonthlyStatsOf(filtered)
	trend := Trend(txs, tax, now, opts)
	return Dashboard{
		Selection:     sel,
		MonthLabel:    core.MonthName(sel.Month),
		Stats:         stats,
		Summary:       Summarize(stats),
		Distribution:  Distribution(stats),
		Trend:         trend,
		TrendKeys:     TrackedCategories(tax),
		// Ranked over the whole ledger, not the selection.
		TopCategories: TopCategories(txs, DefaultTopN),
		Sparklines:    SparklinesOf(trend),
		Transactions:  filtered,
	}
}
