package optimize

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/papertrader/metrics"
	"github.com/shopspring/decimal"
)

// Metric selects what combinations are ranked by. Higher is better for
// every metric; min_drawdown ranks the smallest drawdown first.
type Metric string

const (
	TotalReturn      Metric = "total_return"
	WinRate          Metric = "win_rate"
	ProfitFactor     Metric = "profit_factor"
	BuyAndHoldExcess Metric = "buy_and_hold_excess"
	MinDrawdown      Metric = "min_drawdown"
)

const DefaultRankMetric = TotalReturn

// Metrics lists every supported ranking metric.
func Metrics() []Metric {
	return []Metric{TotalReturn, WinRate, ProfitFactor, BuyAndHoldExcess, MinDrawdown}
}

func ParseMetric(s string) (Metric, error) {
	if s == "" {
		return DefaultRankMetric, nil
	}
	for _, m := range Metrics() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown rank metric %q", s)
}

// score returns the ranking value and whether it is defined.
func (m Metric) score(r metrics.Report) (decimal.Decimal, bool) {
	switch m {
	case WinRate:
		return r.WinRatePct, true
	case ProfitFactor:
		if r.ProfitFactor == nil {
			return decimal.Zero, false
		}
		return *r.ProfitFactor, true
	case BuyAndHoldExcess:
		return r.ExcessReturnPct(), true
	case MinDrawdown:
		return r.MaxDrawdownPct.Neg(), true
	default:
		return r.TotalReturnPct, true
	}
}

// rank sorts entries best first. Undefined scores sort after defined ones
// and ties keep grid order.
func rank(entries []Entry, m Metric) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, aok := m.score(entries[i].Metrics)
		b, bok := m.score(entries[j].Metrics)
		if aok != bok {
			return aok
		}
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return entries[i].Index < entries[j].Index
	})
}
