// Package barstore loads ordered price bars for the backtest engine from
// flat files or a Postgres table.
package barstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

var ErrNoBars = errors.New("no bars found")

// Source produces bars for symbol within [from, to]. An empty symbol means
// every symbol; a zero bound is open.
type Source interface {
	Load(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error)
}

func inWindow(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && ts.After(to) {
		return false
	}
	return true
}

// sortBars orders by timestamp keeping the input order of equal timestamps.
func sortBars(bars []market.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}
