package strategies

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Spec names a strategy and carries everything needed to build it.
type Spec struct {
	Name   string
	Symbol string
	Params strategy.Params
	Policy *risk.Policy
}

// Factory builds a fresh strategy value from a Spec.
type Factory func(s Spec) (strategy.Strategy, error)

var registry = map[string]Factory{
	"noop": func(Spec) (strategy.Strategy, error) {
		return &Noop{}, nil
	},
	"buy-and-hold": func(s Spec) (strategy.Strategy, error) {
		return &BuyAndHold{
			Symbol:   s.Symbol,
			Quantity: s.Params.Decimal("quantity", decimal.Zero),
			FeeRate:  s.Params.Decimal("fee_rate", decimal.Zero),
		}, nil
	},
	"sma-cross": func(s Spec) (strategy.Strategy, error) {
		st, err := NewSMACross(crossConfig(s))
		if err != nil {
			return nil, err
		}
		return st, nil
	},
	"ema-cross": func(s Spec) (strategy.Strategy, error) {
		st, err := NewEMACross(crossConfig(s))
		if err != nil {
			return nil, err
		}
		return st, nil
	},
}

var aliases = map[string]string{
	"none":       "noop",
	"open-once":  "buy-and-hold",
	"buyandhold": "buy-and-hold",
	"smacross":   "sma-cross",
	"emacross":   "ema-cross",
}

func crossConfig(s Spec) MACrossConfig {
	return MACrossConfig{
		Symbol:   s.Symbol,
		Fast:     s.Params.Int("fast", 10),
		Slow:     s.Params.Int("slow", 30),
		Quantity: s.Params.Decimal("quantity", decimal.NewFromInt(1)),
		Policy:   s.Policy,
	}
}

func canonical(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// New builds the named strategy.
func New(s Spec) (strategy.Strategy, error) {
	f, ok := registry[canonical(s.Name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownStrategy, s.Name, strings.Join(Names(), ", "))
	}
	return f(s)
}

// Lookup returns the factory for name.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[canonical(name)]
	return f, ok
}

// Names returns the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParamInfo documents one parameter a strategy reads.
type ParamInfo struct {
	Name        string `json:"name"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type Info struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ParamInfo `json:"params"`
}

var crossParams = []ParamInfo{
	{"fast", "10", "fast moving average period"},
	{"slow", "30", "slow moving average period, must exceed fast"},
	{"quantity", "1", "units bought on a bullish cross"},
}

var catalog = map[string]Info{
	"noop": {Description: "never trades"},
	"buy-and-hold": {
		Description: "buys once on the first bar and holds",
		Params: []ParamInfo{
			{"quantity", "0", "units to buy; 0 buys as many as cash allows"},
			{"fee_rate", "0", "fee rate used when sizing an all-in buy"},
		},
	},
	"sma-cross": {Description: "simple moving average crossover", Params: crossParams},
	"ema-cross": {Description: "exponential moving average crossover", Params: crossParams},
}

// Catalog describes every registered strategy in name order.
func Catalog() []Info {
	out := make([]Info, 0, len(registry))
	for _, n := range Names() {
		info := catalog[n]
		info.Name = n
		out = append(out, info)
	}
	return out
}
