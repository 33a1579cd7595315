package analytics

import (
	"sort"

	"finvue/internal/core"
)

// DefaultTopN is how many categories the trend chart follows.
const DefaultTopN = 5

// CategoryTotal is one row of a category ranking.
type CategoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

// RankCategories totals every non-income category and orders them by total,
// descending. Equal totals keep first-encounter order.
func RankCategories(txs []core.Transaction) []CategoryTotal {
	pos := make(map[string]int)
	ranked := make([]CategoryTotal, 0)
	for _, tx := range txs {
		if tx.IsIncome() {
			continue
		}
		i, ok := pos[tx.Category]
		if !ok {
			i = len(ranked)
			pos[tx.Category] = i
			ranked = append(ranked, CategoryTotal{Category: tx.Category})
		}
		ranked[i].Total = ranked[i].Total.Add(tx.Amount)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Total.Cents > ranked[b].Total.Cents
	})
	return ranked
}

// TopCategories returns up to n category names from RankCategories.
// n <= 0 means DefaultTopN.
func TopCategories(txs []core.Transaction, n int) []string {
	if n <= 0 {
		n = DefaultTopN
	}
	ranked := RankCategories(txs)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Category
	}
	return names
}
