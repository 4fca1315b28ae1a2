package strategies

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidPeriod   = errors.New("periods must be positive")
	ErrFastNotFaster   = errors.New("fast period must be less than slow period")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// MACrossConfig configures a fast/slow moving average crossover.
type MACrossConfig struct {
	Symbol   string
	Fast     int
	Slow     int
	Quantity decimal.Decimal

	// Policy, when set, vetoes orders through OnRiskCheck.
	Policy *risk.Policy
}

func (c MACrossConfig) validate() error {
	if c.Fast <= 0 || c.Slow <= 0 {
		return fmt.Errorf("%w: fast=%d slow=%d", ErrInvalidPeriod, c.Fast, c.Slow)
	}
	if c.Fast >= c.Slow {
		return fmt.Errorf("%w: fast=%d slow=%d", ErrFastNotFaster, c.Fast, c.Slow)
	}
	if !c.Quantity.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, c.Quantity)
	}
	return nil
}

// MACross trades a single symbol on a fast/slow moving average crossover.
//   - Buys Quantity when flat and fast crosses above slow
//   - Sells the whole long position when fast crosses below slow
type MACross struct {
	strategy.Base
	MACrossConfig

	name string
	fast indicators.Indicator
	slow indicators.Indicator

	lastDiff     decimal.Decimal
	haveLastDiff bool
	lastClose    decimal.Decimal
}

// NewSMACross builds a crossover on simple moving averages.
func NewSMACross(cfg MACrossConfig) (*MACross, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("sma-cross: %w", err)
	}
	fast, _ := indicators.NewMA(cfg.Fast)
	slow, _ := indicators.NewMA(cfg.Slow)
	return &MACross{MACrossConfig: cfg, name: "sma-cross", fast: fast, slow: slow}, nil
}

// NewEMACross builds a crossover on exponential moving averages.
func NewEMACross(cfg MACrossConfig) (*MACross, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ema-cross: %w", err)
	}
	fast, _ := indicators.NewEMA(cfg.Fast)
	slow, _ := indicators.NewEMA(cfg.Slow)
	return &MACross{MACrossConfig: cfg, name: "ema-cross", fast: fast, slow: slow}, nil
}

func (s *MACross) Name() string {
	return fmt.Sprintf("%s(%d,%d)", s.name, s.Fast, s.Slow)
}

// Initialize resets indicator state so a strategy value can be reused.
func (s *MACross) Initialize(ctx *strategy.Context) error {
	s.fast.Reset()
	s.slow.Reset()
	s.lastDiff = decimal.Zero
	s.haveLastDiff = false
	s.lastClose = decimal.Zero
	return s.Base.Initialize(ctx)
}

func (s *MACross) OnBar(b market.Bar) error {
	if b.Symbol != s.Symbol {
		return nil
	}
	s.lastClose = b.Close
	s.fast.Update(b)
	s.slow.Update(b)

	if !s.fast.Ready() || !s.slow.Ready() {
		return nil
	}

	diff := s.fast.Value().Sub(s.slow.Value())
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return nil
	}
	prev := s.lastDiff
	s.lastDiff = diff

	crossUp := !prev.IsPositive() && diff.IsPositive()
	crossDown := !prev.IsNegative() && diff.IsNegative()
	pos := s.Position(s.Symbol)

	switch {
	case crossUp && pos.IsZero():
		_, err := s.Buy(s.Symbol, s.Quantity)
		return err
	case crossDown && pos.IsPositive():
		_, err := s.Sell(s.Symbol, pos)
		return err
	}
	return nil
}

// OnRiskCheck applies Policy, if any, to o.
func (s *MACross) OnRiskCheck(o market.Order) bool {
	if s.Policy == nil {
		return true
	}
	ctx := s.Ctx()
	acct := risk.AccountSnapshot{
		Cash:     ctx.Cash(),
		Equity:   ctx.Cash().Add(ctx.Position(o.Symbol).Mul(s.lastClose)),
		Position: ctx.Position(o.Symbol),
	}
	d := risk.Evaluate(*s.Policy, o, acct, s.lastClose)
	if !d.Allowed {
		ctx.Logger().Debug("risk policy violation",
			zap.String("symbol", o.Symbol),
			zap.Strings("codes", d.Codes()),
		)
	}
	return d.Allowed
}
