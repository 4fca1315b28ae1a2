// Package metrics derives performance statistics from a trade log and an
// equity curve. Every function here is pure.
//
// Percentages are decimal-scaled: 12.34 means 12.34%.
package metrics

import (
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Report summarises one run.
type Report struct {
	TotalReturnPct decimal.Decimal `json:"total_return_pct"`
	MaxDrawdownPct decimal.Decimal `json:"max_drawdown_pct"`
	BuyAndHoldPct  decimal.Decimal `json:"buy_and_hold_pct"`
	FinalEquity    decimal.Decimal `json:"final_equity"`

	TotalTrades int `json:"total_trades"`
	RoundTrips  int `json:"round_trips"`
	Wins        int `json:"wins"`

	WinRatePct  decimal.Decimal `json:"win_rate_pct"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	GrossLoss   decimal.Decimal `json:"gross_loss"`
	TotalFees   decimal.Decimal `json:"total_fees"`

	// ProfitFactor is nil when there are no losing round trips.
	ProfitFactor *decimal.Decimal `json:"profit_factor"`
}

// ExcessReturnPct is the total return over the buy-and-hold benchmark.
func (r Report) ExcessReturnPct() decimal.Decimal {
	return r.TotalReturnPct.Sub(r.BuyAndHoldPct)
}

// Compute builds a Report. equity is the full curve including the seed
// snapshot; an empty curve means final equity equals initialCash.
func Compute(trades []market.Trade, equity []decimal.Decimal, firstPrice, lastPrice, initialCash decimal.Decimal) Report {
	r := Report{
		FinalEquity: initialCash,
		TotalTrades: len(trades),
	}
	if len(equity) > 0 {
		r.FinalEquity = equity[len(equity)-1]
	}

	r.TotalReturnPct = PercentChange(initialCash, r.FinalEquity)
	r.MaxDrawdownPct = MaxDrawdown(equity)
	if firstPrice.IsPositive() {
		r.BuyAndHoldPct = PercentChange(firstPrice, lastPrice)
	}

	for _, t := range trades {
		r.TotalFees = r.TotalFees.Add(t.Fee)
	}

	rts := MatchRoundTrips(trades)
	r.RoundTrips = len(rts)
	for _, rt := range rts {
		switch {
		case rt.PnL.IsPositive():
			r.Wins++
			r.GrossProfit = r.GrossProfit.Add(rt.PnL)
		case rt.PnL.IsNegative():
			r.GrossLoss = r.GrossLoss.Add(rt.PnL.Neg())
		}
	}
	if r.RoundTrips > 0 {
		r.WinRatePct = decimal.NewFromInt(int64(r.Wins)).
			Div(decimal.NewFromInt(int64(r.RoundTrips))).Mul(hundred)
	}
	if r.GrossLoss.IsPositive() {
		pf := r.GrossProfit.Div(r.GrossLoss)
		r.ProfitFactor = &pf
	}
	return r
}

// PercentChange is (to - from) / from * 100, or zero when from is zero.
func PercentChange(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}

// MaxDrawdown is the largest peak-to-trough decline in equity, as a
// percentage of the running peak. Points before a positive peak are ignored.
func MaxDrawdown(equity []decimal.Decimal) decimal.Decimal {
	maxDD := decimal.Zero
	if len(equity) == 0 {
		return maxDD
	}
	peak := equity[0]
	for _, e := range equity {
		if e.GreaterThan(peak) {
			peak = e
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(e).Div(peak).Mul(hundred)
		if dd.GreaterThan(maxDD) {
			maxDD = dd
		}
	}
	return maxDD
}
