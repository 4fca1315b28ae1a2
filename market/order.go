package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of an executed fill.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

// MarshalText encodes the side as "buy" or "sell".
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy", "BUY":
		*s = Buy
	case "sell", "SELL":
		*s = Sell
	default:
		return fmt.Errorf("unknown side %q", b)
	}
	return nil
}

// SideOf derives the side from a signed quantity.
func SideOf(qty decimal.Decimal) Side {
	if qty.IsNegative() {
		return Sell
	}
	return Buy
}

// Order is a request to trade. Quantity is signed: positive buys, negative
// sells. A zero Price means a market order filled at the last known price.
type Order struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// MarketOrder builds an order filled at the ledger's last known price.
func MarketOrder(symbol string, qty decimal.Decimal) Order {
	return Order{Symbol: symbol, Quantity: qty}
}

func (o Order) IsMarket() bool { return o.Price.IsZero() }

func (o Order) String() string {
	px := "MKT"
	if !o.IsMarket() {
		px = o.Price.String()
	}
	return fmt.Sprintf("%s %s %s @ %s", SideOf(o.Quantity), o.Quantity.Abs(), o.Symbol, px)
}

// Trade is an executed fill. Quantity is always unsigned; direction is
// carried by Side.
type Trade struct {
	Symbol   string          `json:"symbol"`
	Side     Side            `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Fee      decimal.Decimal `json:"fee"`
	Time     time.Time       `json:"time"`
}

// Signed returns the quantity with the sign of the side.
func (t Trade) Signed() decimal.Decimal {
	if t.Side == Sell {
		return t.Quantity.Neg()
	}
	return t.Quantity
}

// Notional is price times quantity, before fees.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}
