// Package backtest replays bars through a strategy against a fresh
// simulated ledger and reports the resulting trades, equity and metrics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine runs backtests. It holds configuration only, so one Engine may
// serve many sequential or concurrent runs.
type Engine struct {
	cfg Config
	log *zap.Logger
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	return &Engine{cfg: cfg, log: cfg.Logger}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Run executes one backtest of strat over bars.
func (e *Engine) Run(strat strategy.Strategy, bars []market.Bar) (*Result, error) {
	return e.RunContext(context.Background(), strat, bars)
}

// RunContext is Run with ctx passed through to the broker. A run is not
// interrupted once started.
func (e *Engine) RunContext(ctx context.Context, strat strategy.Strategy, bars []market.Bar) (*Result, error) {
	if strat == nil {
		return nil, errors.New("backtest: Strategy is required")
	}
	name := strategy.NameOf(strat)

	clock, err := sim.NewClock(e.cfg.Start, e.cfg.Step)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	res := &Result{
		Strategy:     name,
		StartingCash: e.cfg.StartingCash,
		Equity:       []decimal.Decimal{e.cfg.StartingCash},
		Times:        []time.Time{clock.Now()},
	}

	barIdx := -1
	ledger, err := sim.NewLedger(e.cfg.StartingCash, e.cfg.FeeRate,
		sim.WithClock(clock),
		sim.WithLogger(e.log),
		sim.WithRejectHook(func(o market.Order, reason broker.RejectReason) {
			res.Rejections = append(res.Rejections, Rejection{BarIndex: barIdx, Order: o, Reason: reason})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	opts := []strategy.ContextOption{strategy.WithLogger(e.log)}
	if rc, ok := strat.(strategy.RiskChecker); ok {
		opts = append(opts, strategy.WithRiskChecker(rc))
	}
	sctx := strategy.NewContext(ctx, ledger, opts...)

	var lc strategy.Lifecycle
	hookErr := func(hook string, idx int, b market.Bar, err error) *HookError {
		he := &HookError{Hook: hook, Strategy: name, BarIndex: idx, Err: err}
		if idx >= 0 {
			he.Timestamp = b.Timestamp
			he.Symbol = b.Symbol
		}
		return he
	}

	e.log.Info("backtest start",
		zap.String("strategy", name),
		zap.Int("bars", len(bars)),
		zap.Stringer("cash", e.cfg.StartingCash),
		zap.Stringer("fee_rate", e.cfg.FeeRate),
	)

	if err := callHook(func() error { return strat.Initialize(sctx) }); err != nil {
		return nil, hookErr(HookInitialize, -1, market.Bar{}, err)
	}
	if err := lc.To(strategy.StateInitialized); err != nil {
		return nil, err
	}

	var runErr error
	for i, b := range bars {
		before, after := e.cfg.position(b.Timestamp)
		if before {
			continue
		}
		if after {
			break
		}
		barIdx = i

		clock.Advance()
		if err := ledger.UpdatePrice(b.Symbol, b.Close); err != nil {
			runErr = fmt.Errorf("backtest: bar %d: %w", i, err)
			break
		}
		if err := lc.To(strategy.StateRunning); err != nil {
			runErr = err
			break
		}
		if err := callHook(func() error { return strat.OnBar(b) }); err != nil {
			runErr = hookErr(HookOnBar, i, b, err)
			break
		}

		if res.BarsProcessed == 0 {
			res.FirstPrice = b.Close
		}
		res.LastPrice = b.Close
		res.BarsProcessed++
		res.Equity = append(res.Equity, ledger.Cash().Add(ledger.Position(b.Symbol).Mul(b.Close)))
		res.Times = append(res.Times, clock.Now())
	}

	exitIdx, exitBar := -1, market.Bar{}
	if barIdx >= 0 {
		exitIdx, exitBar = barIdx, bars[barIdx]
	}
	if err := callHook(strat.OnExit); err != nil {
		if runErr == nil {
			runErr = hookErr(HookOnExit, exitIdx, exitBar, err)
		} else {
			e.log.Warn("on_exit failed after earlier error", zap.Error(err))
		}
	}
	if err := lc.To(strategy.StateExited); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		e.log.Error("backtest aborted", zap.String("strategy", name), zap.Error(runErr))
		return nil, runErr
	}

	res.Trades = ledger.Trades()
	res.FinalCash = ledger.Cash()
	res.Positions = ledger.OpenPositions()
	res.Metrics = metrics.Compute(res.Trades, res.Equity, res.FirstPrice, res.LastPrice, res.StartingCash)

	e.log.Info("backtest done",
		zap.String("strategy", name),
		zap.Int("bars_processed", res.BarsProcessed),
		zap.Int("trades", len(res.Trades)),
		zap.Int("rejections", len(res.Rejections)),
		zap.Stringer("final_equity", res.Metrics.FinalEquity),
		zap.Stringer("return_pct", res.Metrics.TotalReturnPct),
	)
	return res, nil
}
