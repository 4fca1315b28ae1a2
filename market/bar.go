package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one OHLCV sample for a symbol over a time interval.
// Bars are values and are never mutated after they are produced.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

func (b Bar) String() string {
	return fmt.Sprintf("%s@%s O=%s H=%s L=%s C=%s V=%s",
		b.Symbol, b.Timestamp.Format(time.RFC3339),
		b.Open, b.High, b.Low, b.Close, b.Volume)
}

// Validate reports obviously broken bars: empty symbol, missing timestamp or
// negative prices.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar: symbol is required")
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("bar %s: timestamp is required", b.Symbol)
	}
	fields := []struct {
		name string
		v    decimal.Decimal
	}{
		{"open", b.Open}, {"high", b.High}, {"low", b.Low}, {"close", b.Close}, {"volume", b.Volume},
	}
	for _, f := range fields {
		if f.v.IsNegative() {
			return fmt.Errorf("bar %s@%s: negative %s %s", b.Symbol, b.Timestamp.Format(time.RFC3339), f.name, f.v)
		}
	}
	return nil
}
