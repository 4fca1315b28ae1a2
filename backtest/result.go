package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/shopspring/decimal"
)

// Rejection records an order the ledger refused during a run.
type Rejection struct {
	BarIndex int                 `json:"bar_index"`
	Order    market.Order        `json:"order"`
	Reason   broker.RejectReason `json:"reason"`
}

// Result is everything one run produced. Equity and Times are aligned and
// start with the seed snapshot, so len(Equity) == BarsProcessed+1.
type Result struct {
	Strategy string `json:"strategy"`

	Trades     []market.Trade    `json:"trades"`
	Equity     []decimal.Decimal `json:"equity"`
	Times      []time.Time       `json:"times"`
	Rejections []Rejection       `json:"rejections,omitempty"`

	FirstPrice    decimal.Decimal `json:"first_price"`
	LastPrice     decimal.Decimal `json:"last_price"`
	BarsProcessed int             `json:"bars_processed"`

	StartingCash decimal.Decimal            `json:"starting_cash"`
	FinalCash    decimal.Decimal            `json:"final_cash"`
	Positions    map[string]decimal.Decimal `json:"positions"`

	Metrics metrics.Report `json:"metrics"`
}

func PrintResult(w io.Writer, r *Result) {
	m := r.Metrics

	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Bars:          %d\n", r.BarsProcessed)
	if len(r.Times) > 1 {
		fmt.Fprintf(w, "Clock:         %s -> %s\n",
			r.Times[0].Format(time.RFC3339), r.Times[len(r.Times)-1].Format(time.RFC3339))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(w, "Round Trips:   %d\n", m.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", m.Wins)
	fmt.Fprintf(w, "Win Rate:      %s%%\n", m.WinRatePct.StringFixed(2))
	fmt.Fprintf(w, "Gross Profit:  %s\n", m.GrossProfit.StringFixed(2))
	fmt.Fprintf(w, "Gross Loss:    %s\n", m.GrossLoss.StringFixed(2))
	if m.ProfitFactor != nil {
		fmt.Fprintf(w, "Profit Factor: %s\n", m.ProfitFactor.StringFixed(2))
	} else {
		fmt.Fprintln(w, "Profit Factor: n/a")
	}
	fmt.Fprintf(w, "Fees:          %s\n", m.TotalFees.StringFixed(2))
	if len(r.Rejections) > 0 {
		fmt.Fprintf(w, "Rejected:      %d\n", len(r.Rejections))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Cash:    %s\n", r.StartingCash.StringFixed(2))
	fmt.Fprintf(w, "End Cash:      %s\n", r.FinalCash.StringFixed(2))
	fmt.Fprintf(w, "End Equity:    %s\n", m.FinalEquity.StringFixed(2))
	fmt.Fprintf(w, "Return:        %s%%\n", m.TotalReturnPct.StringFixed(2))
	fmt.Fprintf(w, "Buy & Hold:    %s%%\n", m.BuyAndHoldPct.StringFixed(2))
	fmt.Fprintf(w, "Max Drawdown:  %s%%\n", m.MaxDrawdownPct.StringFixed(2))

	if len(r.Positions) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Positions")
		fmt.Fprintln(w, "--------------------------------------------------")
		for _, sym := range sim.SortedSymbols(r.Positions) {
			fmt.Fprintf(w, "%-14s %s\n", sym, r.Positions[sym])
		}
	}
	fmt.Fprintln(w, "==================================================")
}
