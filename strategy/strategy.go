// Package strategy defines the contract between trading logic and the
// simulation engine.
//
// A run calls Initialize once, OnBar once per processed bar and OnExit once
// at the end. Strategies place orders only through the Context they were
// initialized with.
package strategy

import (
	"github.com/rustyeddy/papertrader/market"
)

// Strategy is the minimal interface a backtest strategy must implement.
type Strategy interface {
	Initialize(ctx *Context) error
	OnBar(b market.Bar) error
	OnExit() error
}

// RiskChecker is implemented by strategies that veto their own orders.
// Orders for which OnRiskCheck returns false never reach the broker.
type RiskChecker interface {
	OnRiskCheck(o market.Order) bool
}

// Named is implemented by strategies that report a display name.
type Named interface {
	Name() string
}

// NameOf returns s.Name() when s is Named, otherwise "unnamed".
func NameOf(s Strategy) string {
	if n, ok := s.(Named); ok && n.Name() != "" {
		return n.Name()
	}
	return "unnamed"
}

type acceptAll struct{}

func (acceptAll) OnRiskCheck(market.Order) bool { return true }
