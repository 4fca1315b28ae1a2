package broker

import (
	"context"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

// Broker is the execution surface a strategy trades against. The simulated
// ledger implements it; so would a live venue adapter. Only the simulated
// implementation is synchronous and deterministic.
type Broker interface {
	// SubmitOrder executes or rejects an order. Rejections are reported in
	// the Outcome; the error is reserved for transport faults.
	SubmitOrder(ctx context.Context, o market.Order) (Outcome, error)
	Position(symbol string) decimal.Decimal
	Cash() decimal.Decimal
	OpenPositions() map[string]decimal.Decimal
}

// RejectReason names why an order produced no fill.
type RejectReason string

const (
	RejectNone              RejectReason = ""
	RejectNoMarketPrice     RejectReason = "no_market_price"
	RejectInsufficientFunds RejectReason = "insufficient_funds"
	RejectInvalidPrice      RejectReason = "invalid_price"
	RejectInvalidQuantity   RejectReason = "invalid_quantity"
	RejectRiskCheck         RejectReason = "risk_check"
)

// Outcome is the result of submitting one order.
type Outcome struct {
	Accepted bool
	Trade    market.Trade
	Reason   RejectReason
}

func Filled(t market.Trade) Outcome {
	return Outcome{Accepted: true, Trade: t}
}

func Rejected(r RejectReason) Outcome {
	return Outcome{Reason: r}
}
