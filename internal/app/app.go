// Package app wires bar sources, the journal and the simulation core
// together for the CLI and the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/barstore"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/rustyeddy/papertrader/strategy"
	"go.uber.org/zap"
)

var ErrNoSource = errors.New("no bar source configured")

// OptimizationRecorder is implemented by journals that can store sweeps.
type OptimizationRecorder interface {
	RecordOptimization(ctx context.Context, o journal.Optimization) (string, error)
}

type App struct {
	Source  barstore.Source
	Journal journal.Journal
	Log     *zap.Logger

	// Dataset labels journal records, usually the bars path.
	Dataset string
	closers []func()
}

// Open builds the bar source and journal described by cfg. dbPath, when
// set, overrides the configured SQLite path.
func Open(ctx context.Context, cfg *config.Config, dbPath string, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{Log: log, Journal: journal.Nop{}}

	switch cfg.Data.Source {
	case "postgres":
		src, err := barstore.NewPostgresSource(ctx, cfg.Data.DSN, cfg.Data.Table)
		if err != nil {
			return nil, fmt.Errorf("open postgres bars: %w", err)
		}
		a.Source = src
		a.Dataset = "postgres:" + cfg.Data.Table
		a.closers = append(a.closers, src.Close)
	default:
		if cfg.Data.Path != "" {
			a.Source = barstore.NewCSVSource(cfg.Data.Path)
			a.Dataset = cfg.Data.Path
		}
	}

	jc := cfg.Journal
	if dbPath != "" {
		jc = config.JournalConfig{Type: "sqlite", DBPath: dbPath}
	}
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.Journal = j
	case "csv":
		j, err := journal.NewCSV(jc.Dir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open journal: %w", err)
		}
		a.Journal = j
	}
	return a, nil
}

func (a *App) Close() error {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}

// LoadBars reads bars for symbol from the configured source.
func (a *App) LoadBars(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	if a.Source == nil {
		return nil, ErrNoSource
	}
	bars, err := a.Source.Load(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w for %s", barstore.ErrNoBars, symbol)
	}
	return bars, nil
}

// BacktestRequest is one configured run. Bars, when nil, are loaded from the
// source using the engine window.
type BacktestRequest struct {
	Engine backtest.Config
	Spec   strategies.Spec
	Bars   []market.Bar
}

// Backtest runs one strategy and journals the result.
func (a *App) Backtest(ctx context.Context, req BacktestRequest) (*backtest.Result, journal.Run, error) {
	strat, err := strategies.New(req.Spec)
	if err != nil {
		return nil, journal.Run{}, err
	}
	bars, err := a.bars(ctx, req.Spec.Symbol, req.Engine, req.Bars)
	if err != nil {
		return nil, journal.Run{}, err
	}

	cfg := req.Engine
	if cfg.Logger == nil {
		cfg.Logger = a.logger()
	}
	eng, err := backtest.NewEngine(cfg)
	if err != nil {
		return nil, journal.Run{}, err
	}
	res, err := eng.RunContext(ctx, strat, bars)
	if err != nil {
		return nil, journal.Run{}, err
	}

	run, err := journal.NewRun(res, journal.Meta{
		Symbol:  req.Spec.Symbol,
		Dataset: a.Dataset,
		Params:  req.Spec.Params,
		FeeRate: cfg.FeeRate,
	})
	if err != nil {
		return nil, journal.Run{}, err
	}
	if a.Journal != nil {
		if err := a.Journal.RecordRun(ctx, run); err != nil {
			return res, run, fmt.Errorf("record run: %w", err)
		}
	}
	a.logger().Info("run recorded", zap.String("run_id", run.ID), zap.String("strategy", run.Strategy))
	return res, run, nil
}

// OptimizeRequest sweeps Spec over Grid. Spec.Params is replaced by each
// combination.
type OptimizeRequest struct {
	Optimizer optimize.Optimizer
	Spec      strategies.Spec
	Grid      optimize.Grid
	Bars      []market.Bar
}

// Optimize runs the sweep and stores it when the journal supports sweeps.
// The returned ID is empty when nothing was stored. On cancellation the
// partial report is returned with the context error.
func (a *App) Optimize(ctx context.Context, req OptimizeRequest) (*optimize.Report, string, error) {
	if _, ok := strategies.Lookup(req.Spec.Name); !ok {
		return nil, "", fmt.Errorf("%w: %s", strategies.ErrUnknownStrategy, req.Spec.Name)
	}
	combos, err := req.Grid.Combinations()
	if err != nil {
		return nil, "", err
	}
	bars, err := a.bars(ctx, req.Spec.Symbol, req.Optimizer.Engine, req.Bars)
	if err != nil {
		return nil, "", err
	}

	opt := req.Optimizer
	if opt.Logger == nil {
		opt.Logger = a.logger()
	}
	factory := func(p strategy.Params) (strategy.Strategy, error) {
		s := req.Spec
		s.Params = p
		return strategies.New(s)
	}
	rep, runErr := opt.Run(ctx, factory, combos, bars)
	if rep == nil {
		return nil, "", runErr
	}

	var optID string
	if rec, ok := a.Journal.(OptimizationRecorder); ok {
		optID, err = rec.RecordOptimization(ctx, journal.Optimization{
			Strategy: req.Spec.Name,
			Symbol:   req.Spec.Symbol,
			Report:   rep,
		})
		if err != nil && runErr == nil {
			return rep, "", fmt.Errorf("record optimization: %w", err)
		}
	}
	return rep, optID, runErr
}

func (a *App) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

func (a *App) bars(ctx context.Context, symbol string, cfg backtest.Config, given []market.Bar) ([]market.Bar, error) {
	if given != nil {
		return given, nil
	}
	return a.LoadBars(ctx, symbol, cfg.From, cfg.To)
}
