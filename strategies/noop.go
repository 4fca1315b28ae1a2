package strategies

import (
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/strategy"
)

// Noop does nothing.
type Noop struct {
	strategy.Base
}

func (*Noop) Name() string { return "noop" }

func (*Noop) OnBar(market.Bar) error { return nil }
