package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// runFlags override the loaded config for a single command.
type runFlags struct {
	strategy string
	symbol   string
	bars     string
	from     string
	to       string
	step     string
	cash     string
	fee      string
	params   map[string]string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.strategy, "strategy", "s", "", "strategy name, e.g. sma-cross")
	fl.StringVar(&f.symbol, "symbol", "", "symbol to trade")
	fl.StringVarP(&f.bars, "bars", "b", "", "bar CSV (time,symbol,open,high,low,close,volume); .xz and .lzma allowed")
	fl.StringVar(&f.from, "from", "", "skip bars before this time (RFC3339 or YYYY-MM-DD)")
	fl.StringVar(&f.to, "to", "", "stop after this time (RFC3339 or YYYY-MM-DD)")
	fl.StringVar(&f.step, "step", "", "simulated clock step, e.g. 1m")
	fl.StringVar(&f.cash, "cash", "", "starting cash")
	fl.StringVar(&f.fee, "fee", "", "fee rate, 0.001 == 0.1%")
	fl.StringToStringVarP(&f.params, "param", "p", nil, "strategy parameter name=value (repeatable)")
}

func (f *runFlags) apply(cfg *config.Config) error {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Strategy.Name, f.strategy)
	set(&cfg.Backtest.Symbol, f.symbol)
	set(&cfg.Backtest.From, f.from)
	set(&cfg.Backtest.To, f.to)
	set(&cfg.Backtest.Step, f.step)
	if f.bars != "" {
		cfg.Data = config.DataConfig{Source: "csv", Path: f.bars}
	}

	amount := func(name, v string, dst *config.Amount) error {
		if v == "" {
			return nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
		*dst = config.NewAmount(d)
		return nil
	}
	if err := amount("cash", f.cash, &cfg.Account.Cash); err != nil {
		return err
	}
	if err := amount("fee", f.fee, &cfg.Account.FeeRate); err != nil {
		return err
	}

	if len(f.params) > 0 && cfg.Strategy.Params == nil {
		cfg.Strategy.Params = map[string]config.Amount{}
	}
	for k, v := range f.params {
		var a config.Amount
		if err := amount("param "+k, v, &a); err != nil {
			return err
		}
		cfg.Strategy.Params[k] = a
	}
	return cfg.Validate()
}

// parseRange reads name=from:to[:step].
func parseRange(s string) (optimize.IntRange, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return optimize.IntRange{}, fmt.Errorf("bad range %q: want name=from:to[:step]", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return optimize.IntRange{}, fmt.Errorf("bad range %q: want name=from:to[:step]", s)
	}
	nums := []int{0, 0, 1}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return optimize.IntRange{}, fmt.Errorf("bad range %q: %w", s, err)
		}
		nums[i] = n
	}
	r := optimize.IntRange{Name: strings.TrimSpace(name), From: nums[0], To: nums[1], Step: nums[2]}
	if _, err := r.Values(); err != nil {
		return optimize.IntRange{}, err
	}
	return r, nil
}
