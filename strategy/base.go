package strategy

import (
	"errors"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

var ErrNotInitialized = errors.New("strategy: not initialized")

// Base is embedded by strategies to get context storage, a no-op OnExit and
// order helpers. Embedders still implement OnBar.
type Base struct {
	ctx *Context
}

func (b *Base) Initialize(ctx *Context) error {
	b.ctx = ctx
	return nil
}

func (b *Base) OnExit() error { return nil }

// Ctx returns the context stored by Initialize, or nil before it.
func (b *Base) Ctx() *Context { return b.ctx }

// Buy submits a market buy of qty units.
func (b *Base) Buy(symbol string, qty decimal.Decimal) (broker.Outcome, error) {
	if b.ctx == nil {
		return broker.Outcome{}, ErrNotInitialized
	}
	return b.ctx.Submit(market.MarketOrder(symbol, qty.Abs()))
}

// Sell submits a market sell of qty units.
func (b *Base) Sell(symbol string, qty decimal.Decimal) (broker.Outcome, error) {
	if b.ctx == nil {
		return broker.Outcome{}, ErrNotInitialized
	}
	return b.ctx.Submit(market.MarketOrder(symbol, qty.Abs().Neg()))
}

// Position is the signed holding in symbol, zero before Initialize.
func (b *Base) Position(symbol string) decimal.Decimal {
	if b.ctx == nil {
		return decimal.Zero
	}
	return b.ctx.Position(symbol)
}
