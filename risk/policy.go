package risk

import "github.com/shopspring/decimal"

// Policy caps order and position size. A zero limit is not enforced.
type Policy struct {
	// Exposure limits, in units of the instrument
	MaxPosition decimal.Decimal `json:"max_position"`
	MaxOrderQty decimal.Decimal `json:"max_order_qty"`

	// MaxOrderPct caps one order's notional as a fraction of equity (0.25 == 25%).
	MaxOrderPct decimal.Decimal `json:"max_order_pct"`

	// AllowShort permits orders that leave the position below zero.
	AllowShort bool `json:"allow_short"`
}

// AccountSnapshot is the account state an order is checked against.
type AccountSnapshot struct {
	Cash     decimal.Decimal
	Equity   decimal.Decimal
	Position decimal.Decimal // signed, in the order's symbol
}

// Enabled reports whether any limit is set.
func (p Policy) Enabled() bool {
	return p.MaxPosition.IsPositive() || p.MaxOrderQty.IsPositive() ||
		p.MaxOrderPct.IsPositive() || !p.AllowShort
}
