package journal

import (
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

var created = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleRun(runID string) Run {
	pf := d("2.5")
	t1 := created.Add(time.Minute)
	return Run{
		ID:            runID,
		Created:       created,
		Strategy:      "sma-cross(2,5)",
		Symbol:        "AAPL",
		Dataset:       "aapl.csv",
		Params:        strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 5}),
		FeeRate:       d("0.001"),
		StartingCash:  d("10000"),
		FinalCash:     d("10299.7"),
		BarsProcessed: 2,
		Metrics: metrics.Report{
			TotalReturnPct: d("2.997"),
			MaxDrawdownPct: d("1.25"),
			BuyAndHoldPct:  d("10"),
			FinalEquity:    d("10299.7"),
			TotalTrades:    2,
			RoundTrips:     1,
			Wins:           1,
			WinRatePct:     d("100"),
			GrossProfit:    d("300"),
			TotalFees:      d("0.3"),
			ProfitFactor:   &pf,
		},
		Trades: []market.Trade{
			{Symbol: "AAPL", Side: market.Buy, Quantity: d("10"), Price: d("100.123456789"), Fee: d("0.1"), Time: t1},
			{Symbol: "AAPL", Side: market.Sell, Quantity: d("10"), Price: d("130"), Fee: d("0.2"), Time: t1.Add(time.Minute)},
		},
		Equity: []EquityPoint{
			{Seq: 0, Time: created, Equity: d("10000")},
			{Seq: 1, Time: t1, Equity: d("9999.9")},
			{Seq: 2, Time: t1.Add(time.Minute), Equity: d("10299.7")},
		},
	}
}
