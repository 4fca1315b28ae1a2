// Package journal persists backtest runs and optimizer sweeps.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/pkg/id"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("journal: not found")

// EquityPoint is one sample of the equity curve. Seq 0 is the seed.
type EquityPoint struct {
	Seq    int             `json:"seq"`
	Time   time.Time       `json:"time"`
	Equity decimal.Decimal `json:"equity"`
}

// Run is the journal record of one backtest.
type Run struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`

	Strategy string          `json:"strategy"`
	Symbol   string          `json:"symbol"`
	Dataset  string          `json:"dataset"`
	Params   strategy.Params `json:"params"`

	FeeRate       decimal.Decimal `json:"fee_rate"`
	StartingCash  decimal.Decimal `json:"starting_cash"`
	FinalCash     decimal.Decimal `json:"final_cash"`
	BarsProcessed int             `json:"bars_processed"`

	Metrics metrics.Report `json:"metrics"`

	Trades []market.Trade `json:"trades,omitempty"`
	Equity []EquityPoint  `json:"equity,omitempty"`

	Notes []string `json:"notes,omitempty"`
}

// Meta describes the inputs of a run that the Result itself does not carry.
type Meta struct {
	Symbol  string
	Dataset string
	Params  strategy.Params
	FeeRate decimal.Decimal
	Created time.Time
}

// NewRun builds a journal record from a finished backtest and assigns it a
// fresh ULID.
func NewRun(res *backtest.Result, m Meta) (Run, error) {
	runID, err := id.New()
	if err != nil {
		return Run{}, err
	}
	r := Run{
		ID:            runID,
		Created:       m.Created,
		Strategy:      res.Strategy,
		Symbol:        m.Symbol,
		Dataset:       m.Dataset,
		Params:        m.Params,
		FeeRate:       m.FeeRate,
		StartingCash:  res.StartingCash,
		FinalCash:     res.FinalCash,
		BarsProcessed: res.BarsProcessed,
		Metrics:       res.Metrics,
		Trades:        res.Trades,
	}
	if r.Created.IsZero() {
		r.Created, _ = id.Time(runID)
	}
	r.Equity = make([]EquityPoint, len(res.Equity))
	for i, eq := range res.Equity {
		p := EquityPoint{Seq: i, Equity: eq}
		if i < len(res.Times) {
			p.Time = res.Times[i]
		}
		r.Equity[i] = p
	}
	return r, nil
}

// Journal records completed runs.
type Journal interface {
	RecordRun(ctx context.Context, r Run) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRun(context.Context, Run) error { return nil }
func (Nop) Close() error                         { return nil }
