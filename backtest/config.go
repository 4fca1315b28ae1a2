package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultStep is the clock step used when Config.Step is zero.
const DefaultStep = time.Minute

var ErrInvalidConfig = errors.New("invalid backtest config")

// Config parameterises every run of an Engine.
type Config struct {
	StartingCash decimal.Decimal
	FeeRate      decimal.Decimal

	// Start and Step drive the simulated clock that stamps fills.
	Start time.Time
	Step  time.Duration

	// From and To bound the bar window; zero means unbounded.
	From time.Time
	To   time.Time

	Logger *zap.Logger
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	if c.StartingCash.IsNegative() {
		return fmt.Errorf("%w: starting cash must not be negative, got %s", ErrInvalidConfig, c.StartingCash)
	}
	if c.FeeRate.IsNegative() || c.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: fee rate must be in [0, 1), got %s", ErrInvalidConfig, c.FeeRate)
	}
	if c.Step < 0 {
		return fmt.Errorf("%w: step must be positive, got %s", ErrInvalidConfig, c.Step)
	}
	if !c.From.IsZero() && !c.To.IsZero() && c.From.After(c.To) {
		return fmt.Errorf("%w: from %s is after to %s", ErrInvalidConfig,
			c.From.Format(time.RFC3339), c.To.Format(time.RFC3339))
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Step == 0 {
		c.Step = DefaultStep
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// position reports whether ts falls before the window (skip) or after it (stop).
func (c Config) position(ts time.Time) (before, after bool) {
	if !c.From.IsZero() && ts.Before(c.From) {
		return true, false
	}
	if !c.To.IsZero() && ts.After(c.To) {
		return false, true
	}
	return false, false
}
