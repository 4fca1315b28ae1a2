package optimize

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func bars(closes ...int64) []market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		px := dec(c)
		out[i] = market.Bar{Symbol: "AAPL", Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open: px, High: px, Low: px, Close: px}
	}
	return out
}

var series = bars(10, 11, 12, 11, 10, 9, 10, 12, 14, 15, 13, 11, 10, 12, 15, 18, 17, 14, 12, 13)

func smaFactory(p strategy.Params) (strategy.Strategy, error) {
	return strategies.New(strategies.Spec{Name: "sma-cross", Symbol: "AAPL", Params: p})
}

func TestIntRangeValues(t *testing.T) {
	v, err := IntRange{Name: "fast", From: 2, To: 8, Step: 3}.Values()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 8}, v)

	_, err = IntRange{Name: "fast", From: 2, To: 8}.Values()
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = IntRange{Name: "fast", From: 9, To: 8, Step: 1}.Values()
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = IntRange{From: 1, To: 2, Step: 1}.Values()
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGridCombinations(t *testing.T) {
	g := Grid{
		Ranges: []IntRange{
			{Name: "fast", From: 1, To: 3, Step: 1},
			{Name: "slow", From: 2, To: 4, Step: 1},
		},
		Fixed: strategy.ParamsFromInts(map[string]int{"quantity": 5}),
		Valid: FastBelowSlow,
	}
	combos, err := g.Combinations()
	require.NoError(t, err)

	var got [][2]int
	for _, c := range combos {
		got = append(got, [2]int{c.Int("fast", 0), c.Int("slow", 0)})
		assert.Equal(t, 5, c.Int("quantity", 0))
	}
	assert.Equal(t, [][2]int{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}, got)

	combos[0]["quantity"] = dec(99)
	assert.Equal(t, 5, combos[1].Int("quantity", 0), "combinations must not share maps")

	_, err = Grid{}.Combinations()
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = Grid{Ranges: []IntRange{{Name: "a", From: 1, To: 1, Step: 1}, {Name: "a", From: 1, To: 1, Step: 1}}}.Combinations()
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestExplicitCopies(t *testing.T) {
	in := []strategy.Params{strategy.ParamsFromInts(map[string]int{"fast": 1})}
	out := Explicit(in)
	out[0]["fast"] = dec(7)
	assert.Equal(t, 1, in[0].Int("fast", 0))
}

func TestRunRanksAndIsDeterministic(t *testing.T) {
	combos, err := Grid{
		Ranges: []IntRange{{Name: "fast", From: 2, To: 4, Step: 1}, {Name: "slow", From: 3, To: 8, Step: 1}},
		Valid:  FastBelowSlow,
	}.Combinations()
	require.NoError(t, err)

	run := func(workers int) *Report {
		o := &Optimizer{Engine: backtest.Config{StartingCash: dec(10000)}, Workers: workers}
		rep, err := o.Run(context.Background(), smaFactory, combos, series)
		require.NoError(t, err)
		return rep
	}

	serial := run(1)
	parallel := run(8)
	require.Len(t, serial.Ranked, len(combos))
	assert.Equal(t, serial.Ranked, parallel.Ranked)
	assert.Equal(t, TotalReturn, serial.RankBy)

	for i := 1; i < len(serial.Ranked); i++ {
		prev, cur := serial.Ranked[i-1], serial.Ranked[i]
		require.True(t, prev.Metrics.TotalReturnPct.GreaterThanOrEqual(cur.Metrics.TotalReturnPct))
		if prev.Metrics.TotalReturnPct.Equal(cur.Metrics.TotalReturnPct) {
			assert.Less(t, prev.Index, cur.Index, "ties keep grid order")
		}
	}
	best, ok := serial.Best()
	require.True(t, ok)
	assert.Equal(t, serial.Ranked[0], best)
}

func TestRunTopN(t *testing.T) {
	combos := Explicit([]strategy.Params{
		strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 3}),
		strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 5}),
		strategy.ParamsFromInts(map[string]int{"fast": 3, "slow": 6}),
	})
	o := &Optimizer{Engine: backtest.Config{StartingCash: dec(1000)}, TopN: 2}
	rep, err := o.Run(context.Background(), smaFactory, combos, series)
	require.NoError(t, err)
	assert.Len(t, rep.Ranked, 2)
	assert.Equal(t, 3, rep.Total)
}

func TestRunRecordsFailures(t *testing.T) {
	combos := Explicit([]strategy.Params{
		strategy.ParamsFromInts(map[string]int{"fast": 5, "slow": 3}),
		strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 3}),
		strategy.ParamsFromInts(map[string]int{"fast": 0, "slow": 3}),
	})
	o := &Optimizer{Engine: backtest.Config{StartingCash: dec(1000)}}
	rep, err := o.Run(context.Background(), smaFactory, combos, series)
	require.NoError(t, err)

	require.Len(t, rep.Ranked, 1)
	assert.Equal(t, 1, rep.Ranked[0].Index)
	require.Len(t, rep.Failures, 2)
	assert.Equal(t, 0, rep.Failures[0].Index)
	assert.Equal(t, 2, rep.Failures[1].Index)
	assert.Contains(t, rep.Failures[0].Reason, "constructor")
}

type exploding struct{ strategy.Base }

func (*exploding) OnBar(market.Bar) error { return errors.New("kaboom") }

func TestRunEngineFailureRecorded(t *testing.T) {
	o := &Optimizer{Engine: backtest.Config{StartingCash: dec(1000)}}
	rep, err := o.Run(context.Background(), func(strategy.Params) (strategy.Strategy, error) {
		return &exploding{}, nil
	}, []strategy.Params{{}}, series)
	require.NoError(t, err)
	assert.Empty(t, rep.Ranked)
	require.Len(t, rep.Failures, 1)
	assert.Contains(t, rep.Failures[0].Reason, "kaboom")
}

func TestRunProgress(t *testing.T) {
	combos := Explicit([]strategy.Params{
		strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 3}),
		strategy.ParamsFromInts(map[string]int{"fast": 9, "slow": 3}),
		strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": 4}),
	})
	var (
		mu    sync.Mutex
		dones []int
		fails int
	)
	o := &Optimizer{
		Engine:  backtest.Config{StartingCash: dec(1000)},
		Workers: 3,
		Progress: func(p Progress) {
			mu.Lock()
			defer mu.Unlock()
			dones = append(dones, p.Done)
			assert.Equal(t, 3, p.Total)
			if p.Failed {
				fails++
			}
		},
	}
	_, err := o.Run(context.Background(), smaFactory, combos, series)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, dones)
	assert.Equal(t, 1, fails)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	factory := func(p strategy.Params) (strategy.Strategy, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return smaFactory(p)
	}
	var combos []strategy.Params
	for slow := 3; slow < 13; slow++ {
		combos = append(combos, strategy.ParamsFromInts(map[string]int{"fast": 2, "slow": slow}))
	}

	o := &Optimizer{Engine: backtest.Config{StartingCash: dec(1000)}, Workers: 1}
	rep, err := o.Run(ctx, factory, combos, series)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Len(t, rep.Ranked, 2, "in-flight combination completes")
	assert.Less(t, calls, len(combos))
}

func TestRunValidation(t *testing.T) {
	o := &Optimizer{}
	_, err := o.Run(context.Background(), nil, nil, nil)
	assert.Error(t, err)

	o = &Optimizer{RankBy: "sharpe"}
	_, err = o.Run(context.Background(), smaFactory, nil, nil)
	assert.Error(t, err)

	o = &Optimizer{Engine: backtest.Config{FeeRate: dec(2)}}
	_, err = o.Run(context.Background(), smaFactory, nil, nil)
	assert.ErrorIs(t, err, backtest.ErrInvalidConfig)
}

func pf(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestRankProfitFactorUndefinedLast(t *testing.T) {
	entries := []Entry{
		{Index: 0, Metrics: metrics.Report{}},
		{Index: 1, Metrics: metrics.Report{ProfitFactor: pf("1.5")}},
		{Index: 2, Metrics: metrics.Report{ProfitFactor: pf("3")}},
		{Index: 3, Metrics: metrics.Report{}},
		{Index: 4, Metrics: metrics.Report{ProfitFactor: pf("1.5")}},
	}
	rank(entries, ProfitFactor)

	var order []int
	for _, e := range entries {
		order = append(order, e.Index)
	}
	assert.Equal(t, []int{2, 1, 4, 0, 3}, order)
}

func TestRankMinDrawdown(t *testing.T) {
	entries := []Entry{
		{Index: 0, Metrics: metrics.Report{MaxDrawdownPct: dec(30)}},
		{Index: 1, Metrics: metrics.Report{MaxDrawdownPct: dec(5)}},
		{Index: 2, Metrics: metrics.Report{MaxDrawdownPct: dec(10)}},
	}
	rank(entries, MinDrawdown)
	assert.Equal(t, 1, entries[0].Index)
	assert.Equal(t, 0, entries[2].Index)
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("")
	require.NoError(t, err)
	assert.Equal(t, TotalReturn, m)

	m, err = ParseMetric("buy_and_hold_excess")
	require.NoError(t, err)
	assert.Equal(t, BuyAndHoldExcess, m)

	_, err = ParseMetric("nope")
	assert.Error(t, err)
}
