package sim

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MarkToMarket values positions at the given prices and adds cash. Symbols
// without a price contribute nothing. Iteration is in symbol order so the
// result never depends on map layout.
func MarkToMarket(cash decimal.Decimal, positions, prices map[string]decimal.Decimal) decimal.Decimal {
	equity := cash
	for _, sym := range SortedSymbols(positions) {
		px, ok := prices[sym]
		if !ok {
			continue
		}
		equity = equity.Add(positions[sym].Mul(px))
	}
	return equity
}

// SortedSymbols returns the keys of m in ascending order.
func SortedSymbols(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
