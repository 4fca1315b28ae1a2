package indicators

import (
	"fmt"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

// Indicator is a streaming indicator fed one bar at a time.
type Indicator interface {
	Name() string
	Warmup() int
	Reset()
	Update(b market.Bar)
	Ready() bool
	Value() decimal.Decimal
}

// SimpleMA is a streaming Simple Moving Average over bar closes.
type SimpleMA struct {
	period int
	window []decimal.Decimal
	next   int
	filled int
	sum    decimal.Decimal
}

// NewMA creates a new Simple Moving Average with the given period.
func NewMA(period int) (*SimpleMA, error) {
	if period <= 0 {
		return nil, fmt.Errorf("MA period must be positive, got %d", period)
	}
	return &SimpleMA{
		period: period,
		window: make([]decimal.Decimal, period),
	}, nil
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int { return m.period }

func (m *SimpleMA) Reset() {
	for i := range m.window {
		m.window[i] = decimal.Zero
	}
	m.next = 0
	m.filled = 0
	m.sum = decimal.Zero
}

func (m *SimpleMA) Update(b market.Bar) {
	if m.filled == m.period {
		m.sum = m.sum.Sub(m.window[m.next])
	} else {
		m.filled++
	}
	m.window[m.next] = b.Close
	m.sum = m.sum.Add(b.Close)
	m.next = (m.next + 1) % m.period
}

func (m *SimpleMA) Ready() bool { return m.filled >= m.period }

func (m *SimpleMA) Value() decimal.Decimal {
	if !m.Ready() {
		return decimal.Zero
	}
	return m.sum.Div(decimal.NewFromInt(int64(m.period)))
}

// ExponentialMA is a streaming Exponential Moving Average seeded with the
// SMA of the first period closes.
type ExponentialMA struct {
	period     int
	multiplier decimal.Decimal
	ema        decimal.Decimal
	count      int
	warmupSum  decimal.Decimal
}

// NewEMA creates a new Exponential Moving Average with the given period.
func NewEMA(period int) (*ExponentialMA, error) {
	if period <= 0 {
		return nil, fmt.Errorf("EMA period must be positive, got %d", period)
	}
	return &ExponentialMA{
		period:     period,
		multiplier: decimal.NewFromInt(2).Div(decimal.NewFromInt(int64(period + 1))),
	}, nil
}

func (e *ExponentialMA) Name() string {
	return fmt.Sprintf("EMA(%d)", e.period)
}

func (e *ExponentialMA) Warmup() int { return e.period }

func (e *ExponentialMA) Reset() {
	e.ema = decimal.Zero
	e.count = 0
	e.warmupSum = decimal.Zero
}

func (e *ExponentialMA) Update(b market.Bar) {
	if e.count < e.period {
		e.warmupSum = e.warmupSum.Add(b.Close)
		e.count++
		if e.count == e.period {
			e.ema = e.warmupSum.Div(decimal.NewFromInt(int64(e.period)))
		}
		return
	}
	e.ema = b.Close.Sub(e.ema).Mul(e.multiplier).Add(e.ema)
}

func (e *ExponentialMA) Ready() bool { return e.count >= e.period }

func (e *ExponentialMA) Value() decimal.Decimal {
	if !e.Ready() {
		return decimal.Zero
	}
	return e.ema
}
