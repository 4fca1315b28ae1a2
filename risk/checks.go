package risk

import (
	"fmt"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	ResultingPosition decimal.Decimal
	Notional          decimal.Decimal
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Codes returns the violation codes in the order they were raised.
func (d Decision) Codes() []string {
	out := make([]string, len(d.Violations))
	for i, v := range d.Violations {
		out[i] = v.Code
	}
	return out
}

// Evaluate checks o against p. price is the fill price the order is expected
// to get; zero skips the notional check.
func Evaluate(p Policy, o market.Order, acct AccountSnapshot, price decimal.Decimal) Decision {
	d := Decision{Allowed: true}

	if o.Quantity.IsZero() {
		d.add("NO_UNITS", "order quantity must be non-zero")
		return d
	}

	qty := o.Quantity.Abs()
	d.ResultingPosition = acct.Position.Add(o.Quantity)
	if price.IsPositive() {
		d.Notional = qty.Mul(price)
	}

	if p.MaxOrderQty.IsPositive() && qty.GreaterThan(p.MaxOrderQty) {
		d.add("ORDER_TOO_LARGE",
			fmt.Sprintf("order qty %s exceeds max %s", qty, p.MaxOrderQty))
	}

	// Reductions toward flat are always allowed through the position cap.
	reducing := d.ResultingPosition.Abs().LessThan(acct.Position.Abs())
	if p.MaxPosition.IsPositive() && !reducing && d.ResultingPosition.Abs().GreaterThan(p.MaxPosition) {
		d.add("POSITION_TOO_LARGE",
			fmt.Sprintf("resulting position %s exceeds max %s", d.ResultingPosition, p.MaxPosition))
	}

	if !p.AllowShort && d.ResultingPosition.IsNegative() {
		d.add("SHORT_NOT_ALLOWED",
			fmt.Sprintf("resulting position %s is short", d.ResultingPosition))
	}

	if p.MaxOrderPct.IsPositive() && d.Notional.IsPositive() {
		limit := acct.Equity.Mul(p.MaxOrderPct)
		if d.Notional.GreaterThan(limit) {
			d.add("NOTIONAL_TOO_HIGH",
				fmt.Sprintf("order notional %s exceeds %s%% of equity (%s)",
					d.Notional.StringFixed(2), p.MaxOrderPct.Shift(2), limit.StringFixed(2)))
		}
	}

	return d
}
