// Package optimize sweeps strategy parameters through independent backtests
// and ranks the results.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/strategy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh strategy for one parameter set. An error marks the
// combination as failed; it does not stop the sweep.
type Factory func(p strategy.Params) (strategy.Strategy, error)

// Entry is one ranked combination.
type Entry struct {
	Index   int             `json:"index"`
	Params  strategy.Params `json:"params"`
	Metrics metrics.Report  `json:"metrics"`
	Trades  int             `json:"trades"`
}

// Failure is a combination excluded from the ranking.
type Failure struct {
	Index  int             `json:"index"`
	Params strategy.Params `json:"params"`
	Reason string          `json:"reason"`
}

// Progress is reported after every finished combination.
type Progress struct {
	Done   int
	Total  int
	Index  int
	Params strategy.Params
	Failed bool
}

type Report struct {
	RankBy   Metric    `json:"rank_by"`
	Total    int       `json:"total"`
	Ranked   []Entry   `json:"ranked"`
	Failures []Failure `json:"failures,omitempty"`
}

// Best returns the top entry, if any.
func (r *Report) Best() (Entry, bool) {
	if r == nil || len(r.Ranked) == 0 {
		return Entry{}, false
	}
	return r.Ranked[0], true
}

type Optimizer struct {
	Engine backtest.Config

	// Workers bounds concurrent runs; zero means runtime.NumCPU().
	Workers int
	RankBy  Metric
	// TopN truncates the ranking; zero keeps everything.
	TopN     int
	Progress func(Progress)
	Logger   *zap.Logger
}

// Run backtests every combination over bars and ranks the results. When ctx
// is cancelled no further combinations start; the ranking of those already
// finished is returned together with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, factory Factory, combos []strategy.Params, bars []market.Bar) (*Report, error) {
	if factory == nil {
		return nil, errors.New("optimize: Factory is required")
	}
	rankBy := o.RankBy
	if rankBy == "" {
		rankBy = DefaultRankMetric
	}
	if _, err := ParseMetric(string(rankBy)); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := o.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu       sync.Mutex
		results  = make([]*Entry, len(combos))
		failures []Failure
		done     int
	)
	finish := func(i int, p strategy.Params, entry *Entry, fail *Failure) {
		mu.Lock()
		defer mu.Unlock()
		if entry != nil {
			results[i] = entry
		}
		if fail != nil {
			failures = append(failures, *fail)
			log.Warn("combination failed",
				zap.Int("index", i),
				zap.Stringer("params", p),
				zap.String("reason", fail.Reason),
			)
		}
		done++
		if o.Progress != nil {
			o.Progress(Progress{Done: done, Total: len(combos), Index: i, Params: p, Failed: fail != nil})
		}
	}

	log.Info("optimize start",
		zap.Int("combinations", len(combos)),
		zap.Int("workers", workers),
		zap.String("rank_by", string(rankBy)),
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range combos {
		if ctx.Err() != nil {
			break
		}
		i, p := i, p
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			entry, fail := o.runOne(ctx, factory, i, p, bars)
			finish(i, p, entry, fail)
			return nil
		})
	}
	_ = g.Wait()

	rep := &Report{RankBy: rankBy, Total: len(combos)}
	for _, e := range results {
		if e != nil {
			rep.Ranked = append(rep.Ranked, *e)
		}
	}
	rank(rep.Ranked, rankBy)
	if o.TopN > 0 && len(rep.Ranked) > o.TopN {
		rep.Ranked = rep.Ranked[:o.TopN]
	}
	sortFailures(failures)
	rep.Failures = failures

	log.Info("optimize done",
		zap.Int("ranked", len(rep.Ranked)),
		zap.Int("failures", len(rep.Failures)),
	)
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func (o *Optimizer) runOne(ctx context.Context, factory Factory, i int, p strategy.Params, bars []market.Bar) (*Entry, *Failure) {
	strat, err := factory(p.Clone())
	if err != nil {
		return nil, &Failure{Index: i, Params: p, Reason: "constructor: " + err.Error()}
	}
	eng, err := backtest.NewEngine(o.Engine)
	if err != nil {
		return nil, &Failure{Index: i, Params: p, Reason: "engine: " + err.Error()}
	}
	res, err := eng.RunContext(ctx, strat, bars)
	if err != nil {
		return nil, &Failure{Index: i, Params: p, Reason: "run: " + err.Error()}
	}
	return &Entry{Index: i, Params: p, Metrics: res.Metrics, Trades: len(res.Trades)}, nil
}

func sortFailures(f []Failure) {
	sort.Slice(f, func(i, j int) bool { return f[i].Index < f[j].Index })
}
