package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config represents the complete trader configuration
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Optimize OptimizeConfig `json:"optimize" yaml:"optimize"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}

// AccountConfig contains account initialization parameters
type AccountConfig struct {
	Cash    Amount `json:"cash" yaml:"cash"`
	FeeRate Amount `json:"fee_rate" yaml:"fee_rate"`
}

// BacktestConfig controls the simulated clock and the bar window.
// Times are RFC3339 or YYYY-MM-DD; Step is a Go duration such as "1m".
type BacktestConfig struct {
	Symbol string `json:"symbol" yaml:"symbol"`
	Start  string `json:"start,omitempty" yaml:"start,omitempty"`
	Step   string `json:"step,omitempty" yaml:"step,omitempty"`
	From   string `json:"from,omitempty" yaml:"from,omitempty"`
	To     string `json:"to,omitempty" yaml:"to,omitempty"`
}

// DataConfig selects where bars are loaded from.
type DataConfig struct {
	Source string `json:"source" yaml:"source"` // "csv" or "postgres"
	Path   string `json:"path,omitempty" yaml:"path,omitempty"`
	DSN    string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	Table  string `json:"table,omitempty" yaml:"table,omitempty"`
}

type StrategyConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Params map[string]Amount `json:"params,omitempty" yaml:"params,omitempty"`
	Risk   RiskConfig        `json:"risk" yaml:"risk"`
}

// RiskConfig maps onto risk.Policy when Enabled.
type RiskConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	MaxPosition Amount `json:"max_position,omitempty" yaml:"max_position,omitempty"`
	MaxOrderQty Amount `json:"max_order_qty,omitempty" yaml:"max_order_qty,omitempty"`
	MaxOrderPct Amount `json:"max_order_pct,omitempty" yaml:"max_order_pct,omitempty"`
	AllowShort  bool   `json:"allow_short" yaml:"allow_short"`
}

type OptimizeConfig struct {
	Ranges  []optimize.IntRange `json:"ranges,omitempty" yaml:"ranges,omitempty"`
	RankBy  string              `json:"rank_by,omitempty" yaml:"rank_by,omitempty"`
	TopN    int                 `json:"top_n,omitempty" yaml:"top_n,omitempty"`
	Workers int                 `json:"workers,omitempty" yaml:"workers,omitempty"`
	// SkipInvalid drops combinations where fast >= slow.
	SkipInvalid bool `json:"skip_invalid" yaml:"skip_invalid"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type   string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	Dir    string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse decodes data over Default(), trying YAML first and JSON second.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Account.Cash.IsNegative() {
		return fmt.Errorf("account.cash must not be negative")
	}
	if c.Account.FeeRate.IsNegative() || c.Account.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("account.fee_rate must be in [0, 1)")
	}
	if c.Backtest.Symbol == "" {
		return fmt.Errorf("backtest.symbol is required")
	}
	if _, err := c.Window(); err != nil {
		return err
	}
	switch c.Data.Source {
	case "csv":
	case "postgres":
		if c.Data.DSN == "" {
			return fmt.Errorf("data.dsn required for postgres source")
		}
	default:
		return fmt.Errorf("data.source must be 'csv' or 'postgres'")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if _, ok := strategies.Lookup(c.Strategy.Name); !ok {
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if _, err := optimize.ParseMetric(c.Optimize.RankBy); err != nil {
		return fmt.Errorf("optimize.rank_by: %w", err)
	}
	if c.Optimize.TopN < 0 || c.Optimize.Workers < 0 {
		return fmt.Errorf("optimize.top_n and optimize.workers must not be negative")
	}
	for _, r := range c.Optimize.Ranges {
		if _, err := r.Values(); err != nil {
			return fmt.Errorf("optimize.ranges: %w", err)
		}
	}
	switch c.Journal.Type {
	case "none", "":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Window is the parsed clock and bar window of the backtest section.
type Window struct {
	Start, From, To time.Time
	Step            time.Duration
}

func (c *Config) Window() (Window, error) {
	var (
		w   Window
		err error
	)
	if w.Start, err = parseTime(c.Backtest.Start); err != nil {
		return w, fmt.Errorf("backtest.start: %w", err)
	}
	if w.From, err = parseTime(c.Backtest.From); err != nil {
		return w, fmt.Errorf("backtest.from: %w", err)
	}
	if w.To, err = parseTime(c.Backtest.To); err != nil {
		return w, fmt.Errorf("backtest.to: %w", err)
	}
	if c.Backtest.Step != "" {
		if w.Step, err = time.ParseDuration(c.Backtest.Step); err != nil {
			return w, fmt.Errorf("backtest.step: %w", err)
		}
		if w.Step <= 0 {
			return w, fmt.Errorf("backtest.step must be positive")
		}
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.From.After(w.To) {
		return w, fmt.Errorf("backtest.from must not be after backtest.to")
	}
	return w, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC3339 or YYYY-MM-DD, got %q", s)
	}
	return t, nil
}

// EngineConfig builds the backtest configuration.
func (c *Config) EngineConfig() (backtest.Config, error) {
	w, err := c.Window()
	if err != nil {
		return backtest.Config{}, err
	}
	return backtest.Config{
		StartingCash: c.Account.Cash.Decimal,
		FeeRate:      c.Account.FeeRate.Decimal,
		Start:        w.Start,
		Step:         w.Step,
		From:         w.From,
		To:           w.To,
	}, nil
}

// Params converts the strategy parameters.
func (c *Config) Params() strategy.Params {
	p := make(strategy.Params, len(c.Strategy.Params))
	for k, v := range c.Strategy.Params {
		p[k] = v.Decimal
	}
	return p
}

// RiskPolicy returns nil unless strategy.risk.enabled is set.
func (c *Config) RiskPolicy() *risk.Policy {
	r := c.Strategy.Risk
	if !r.Enabled {
		return nil
	}
	return &risk.Policy{
		MaxPosition: r.MaxPosition.Decimal,
		MaxOrderQty: r.MaxOrderQty.Decimal,
		MaxOrderPct: r.MaxOrderPct.Decimal,
		AllowShort:  r.AllowShort,
	}
}

// StrategySpec describes the configured strategy for strategies.New.
func (c *Config) StrategySpec() strategies.Spec {
	p := c.Params()
	if _, ok := p["fee_rate"]; !ok {
		p["fee_rate"] = c.Account.FeeRate.Decimal
	}
	return strategies.Spec{
		Name:   c.Strategy.Name,
		Symbol: c.Backtest.Symbol,
		Params: p,
		Policy: c.RiskPolicy(),
	}
}

// Grid builds the optimizer grid. Strategy params not swept are held fixed.
func (c *Config) Grid() optimize.Grid {
	g := optimize.Grid{Ranges: c.Optimize.Ranges, Fixed: c.Params()}
	if c.Optimize.SkipInvalid {
		g.Valid = optimize.FastBelowSlow
	}
	return g
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Cash:    NewAmount(decimal.NewFromInt(10000)),
			FeeRate: NewAmount(decimal.RequireFromString("0.001")),
		},
		Backtest: BacktestConfig{
			Symbol: "AAPL",
			Step:   "1m",
		},
		Data: DataConfig{
			Source: "csv",
			Path:   "./data/bars.csv",
			Table:  "bars",
		},
		Strategy: StrategyConfig{
			Name: "sma-cross",
			Params: map[string]Amount{
				"fast":     NewAmount(decimal.NewFromInt(10)),
				"slow":     NewAmount(decimal.NewFromInt(30)),
				"quantity": NewAmount(decimal.NewFromInt(10)),
			},
		},
		Optimize: OptimizeConfig{
			Ranges: []optimize.IntRange{
				{Name: "fast", From: 5, To: 20, Step: 5},
				{Name: "slow", From: 20, To: 60, Step: 10},
			},
			RankBy:      string(optimize.TotalReturn),
			TopN:        10,
			SkipInvalid: true,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./trader.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
