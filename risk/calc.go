package risk

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)

// Affordable is the largest whole quantity whose notional plus proportional
// fee fits in cash.
func Affordable(cash, price, feeRate decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !cash.IsPositive() {
		return decimal.Zero
	}
	perUnit := price.Mul(one.Add(feeRate))
	return cash.Div(perUnit).Floor()
}

// SizeByFraction sizes an order so its notional is fraction of equity,
// rounded down to whole units.
func SizeByFraction(equity, fraction, price decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() || !equity.IsPositive() || !fraction.IsPositive() {
		return decimal.Zero
	}
	return equity.Mul(fraction).Div(price).Floor()
}
