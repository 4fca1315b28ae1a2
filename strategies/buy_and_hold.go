package strategies

import (
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

// BuyAndHold buys once on the first bar of Symbol and holds until the end.
// A zero Quantity invests all cash the account can afford at FeeRate.
type BuyAndHold struct {
	strategy.Base

	Symbol   string
	Quantity decimal.Decimal
	FeeRate  decimal.Decimal

	opened bool
}

func (*BuyAndHold) Name() string { return "buy-and-hold" }

func (s *BuyAndHold) Initialize(ctx *strategy.Context) error {
	s.opened = false
	return s.Base.Initialize(ctx)
}

func (s *BuyAndHold) OnBar(b market.Bar) error {
	if s.opened || b.Symbol != s.Symbol {
		return nil
	}
	qty := s.Quantity
	if !qty.IsPositive() {
		qty = risk.Affordable(s.Ctx().Cash(), b.Close, s.FeeRate)
	}
	s.opened = true
	if qty.IsZero() {
		return nil
	}
	_, err := s.Buy(s.Symbol, qty)
	return err
}
