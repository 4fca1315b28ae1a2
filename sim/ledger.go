package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNegativeCash   = errors.New("starting cash must not be negative")
	ErrInvalidFeeRate = errors.New("fee rate must be in [0, 1)")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrEmptySymbol    = errors.New("symbol is required")
)

var decimalOne = decimal.NewFromInt(1)

var _ broker.Broker = (*Ledger)(nil)

// TimeSource stamps fills. *Clock satisfies it.
type TimeSource interface {
	Now() time.Time
}

// RejectFunc observes orders that produced no fill.
type RejectFunc func(o market.Order, reason broker.RejectReason)

// Ledger is the simulated exchange for one run. It owns cash, positions,
// last prices and the trade log. A Ledger belongs to exactly one run and must
// never be shared between runs.
type Ledger struct {
	mu        sync.Mutex
	feeRate   decimal.Decimal
	cash      decimal.Decimal
	positions map[string]decimal.Decimal
	prices    map[string]decimal.Decimal
	trades    []market.Trade

	clock    TimeSource
	log      *zap.Logger
	onReject RejectFunc
}

type LedgerOption func(*Ledger)

func WithLogger(l *zap.Logger) LedgerOption {
	return func(lg *Ledger) {
		if l != nil {
			lg.log = l
		}
	}
}

// WithClock stamps each trade with the clock's current time.
func WithClock(c TimeSource) LedgerOption {
	return func(lg *Ledger) { lg.clock = c }
}

// WithRejectHook registers a diagnostic callback for rejected orders.
func WithRejectHook(fn RejectFunc) LedgerOption {
	return func(lg *Ledger) { lg.onReject = fn }
}

// NewLedger creates a ledger with the given starting cash and proportional
// fee rate (0.01 == 1%).
func NewLedger(cash, feeRate decimal.Decimal, opts ...LedgerOption) (*Ledger, error) {
	if cash.IsNegative() {
		return nil, fmt.Errorf("new ledger: %w: %s", ErrNegativeCash, cash)
	}
	if feeRate.IsNegative() || feeRate.GreaterThanOrEqual(decimalOne) {
		return nil, fmt.Errorf("new ledger: %w: %s", ErrInvalidFeeRate, feeRate)
	}
	l := &Ledger{
		feeRate:   feeRate,
		cash:      cash,
		positions: make(map[string]decimal.Decimal),
		prices:    make(map[string]decimal.Decimal),
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// UpdatePrice records the latest trade price for symbol. Negative prices are
// refused and leave state untouched.
func (l *Ledger) UpdatePrice(symbol string, price decimal.Decimal) error {
	if symbol == "" {
		return ErrEmptySymbol
	}
	if price.IsNegative() {
		return fmt.Errorf("update price %s: %w: %s", symbol, ErrNegativePrice, price)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prices[symbol] = price
	return nil
}

// LastPrice returns the last recorded price for symbol.
func (l *Ledger) LastPrice(symbol string) (decimal.Decimal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	px, ok := l.prices[symbol]
	return px, ok
}

// SubmitOrder fills an order against the account. Every call is a discrete
// fill; nothing is deduplicated. Rejections come back as an Outcome with a
// nil error and leave the account untouched.
func (l *Ledger) SubmitOrder(ctx context.Context, o market.Order) (broker.Outcome, error) {
	_ = ctx

	l.mu.Lock()
	defer l.mu.Unlock()

	if o.Symbol == "" || o.Quantity.IsZero() {
		return l.rejectLocked(o, broker.RejectInvalidQuantity), nil
	}
	if o.Price.IsNegative() {
		return l.rejectLocked(o, broker.RejectInvalidPrice), nil
	}

	fillPrice := o.Price
	if !fillPrice.IsPositive() {
		px, ok := l.prices[o.Symbol]
		if !ok || !px.IsPositive() {
			return l.rejectLocked(o, broker.RejectNoMarketPrice), nil
		}
		fillPrice = px
	}

	qty := o.Quantity.Abs()
	notional := fillPrice.Mul(qty)
	fee := notional.Mul(l.feeRate)
	side := market.SideOf(o.Quantity)

	switch side {
	case market.Buy:
		total := notional.Add(fee)
		if l.cash.LessThan(total) {
			return l.rejectLocked(o, broker.RejectInsufficientFunds), nil
		}
		l.cash = l.cash.Sub(total)
	case market.Sell:
		l.cash = l.cash.Add(notional.Sub(fee))
	}

	pos := l.positions[o.Symbol].Add(o.Quantity)
	if pos.IsZero() {
		delete(l.positions, o.Symbol)
	} else {
		l.positions[o.Symbol] = pos
	}

	t := market.Trade{
		Symbol:   o.Symbol,
		Side:     side,
		Quantity: qty,
		Price:    fillPrice,
		Fee:      fee,
	}
	if l.clock != nil {
		t.Time = l.clock.Now()
	}
	l.trades = append(l.trades, t)

	l.log.Debug("order filled",
		zap.String("symbol", t.Symbol),
		zap.Stringer("side", t.Side),
		zap.Stringer("qty", t.Quantity),
		zap.Stringer("price", t.Price),
		zap.Stringer("fee", t.Fee),
		zap.Stringer("cash", l.cash),
	)
	return broker.Filled(t), nil
}

func (l *Ledger) rejectLocked(o market.Order, reason broker.RejectReason) broker.Outcome {
	l.log.Debug("order rejected",
		zap.String("symbol", o.Symbol),
		zap.Stringer("qty", o.Quantity),
		zap.Stringer("price", o.Price),
		zap.String("reason", string(reason)),
		zap.Stringer("cash", l.cash),
	)
	if l.onReject != nil {
		l.onReject(o, reason)
	}
	return broker.Rejected(reason)
}

// Position returns the signed quantity held in symbol; zero when flat.
func (l *Ledger) Position(symbol string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.positions[symbol]
}

func (l *Ledger) Cash() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

func (l *Ledger) FeeRate() decimal.Decimal { return l.feeRate }

// OpenPositions returns a copy of all non-zero positions.
func (l *Ledger) OpenPositions() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(l.positions))
	for sym, qty := range l.positions {
		out[sym] = qty
	}
	return out
}

// Trades returns a copy of the trade log in fill order.
func (l *Ledger) Trades() []market.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]market.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// Equity is cash plus every position marked at its last price.
func (l *Ledger) Equity() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return MarkToMarket(l.cash, l.positions, l.prices)
}
