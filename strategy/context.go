package strategy

import (
	"context"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Context is the capability handed to a strategy on Initialize. It exposes
// read access to the account and the risk-gated order path.
type Context struct {
	ctx     context.Context
	broker  broker.Broker
	checker RiskChecker
	log     *zap.Logger
}

type ContextOption func(*Context)

// WithRiskChecker gates every Submit through rc.
func WithRiskChecker(rc RiskChecker) ContextOption {
	return func(c *Context) {
		if rc != nil {
			c.checker = rc
		}
	}
}

func WithLogger(l *zap.Logger) ContextOption {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// NewContext binds b for one run. A nil ctx means context.Background().
func NewContext(ctx context.Context, b broker.Broker, opts ...ContextOption) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Context{
		ctx:     ctx,
		broker:  b,
		checker: acceptAll{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs the risk check and forwards accepted orders to the broker.
func (c *Context) Submit(o market.Order) (broker.Outcome, error) {
	if !c.checker.OnRiskCheck(o) {
		c.log.Debug("order vetoed by risk check",
			zap.String("symbol", o.Symbol),
			zap.Stringer("qty", o.Quantity),
			zap.Stringer("price", o.Price),
		)
		return broker.Rejected(broker.RejectRiskCheck), nil
	}
	return c.broker.SubmitOrder(c.ctx, o)
}

func (c *Context) Position(symbol string) decimal.Decimal {
	return c.broker.Position(symbol)
}

func (c *Context) Cash() decimal.Decimal {
	return c.broker.Cash()
}

func (c *Context) OpenPositions() map[string]decimal.Decimal {
	return c.broker.OpenPositions()
}

// Done reports whether the run's context has been cancelled.
func (c *Context) Done() <-chan struct{} {
	return c.ctx.Done()
}

func (c *Context) Logger() *zap.Logger {
	return c.log
}
