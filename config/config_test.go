package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/optimize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Account.Cash.Equal(decimal.NewFromInt(10000)))
	assert.Equal(t, "0.001", cfg.Account.FeeRate.String())
	assert.Equal(t, "AAPL", cfg.Backtest.Symbol)
	assert.Equal(t, "sma-cross", cfg.Strategy.Name)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid default",
			mutate: func(*Config) {},
		},
		{
			name:    "negative cash",
			mutate:  func(c *Config) { c.Account.Cash = NewAmount(decimal.NewFromInt(-1)) },
			wantErr: true,
			errMsg:  "account.cash must not be negative",
		},
		{
			name:    "fee rate of one",
			mutate:  func(c *Config) { c.Account.FeeRate = NewAmount(decimal.NewFromInt(1)) },
			wantErr: true,
			errMsg:  "account.fee_rate",
		},
		{
			name:    "missing symbol",
			mutate:  func(c *Config) { c.Backtest.Symbol = "" },
			wantErr: true,
			errMsg:  "backtest.symbol is required",
		},
		{
			name:    "bad step",
			mutate:  func(c *Config) { c.Backtest.Step = "soon" },
			wantErr: true,
			errMsg:  "backtest.step",
		},
		{
			name: "from after to",
			mutate: func(c *Config) {
				c.Backtest.From = "2024-02-01"
				c.Backtest.To = "2024-01-01"
			},
			wantErr: true,
			errMsg:  "backtest.from must not be after backtest.to",
		},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.Data.Source = "postgres" },
			wantErr: true,
			errMsg:  "data.dsn required",
		},
		{
			name:    "unknown source",
			mutate:  func(c *Config) { c.Data.Source = "ftp" },
			wantErr: true,
			errMsg:  "data.source must be",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.Strategy.Name = "moonshot" },
			wantErr: true,
			errMsg:  "unknown strategy: moonshot",
		},
		{
			name:    "bad rank metric",
			mutate:  func(c *Config) { c.Optimize.RankBy = "vibes" },
			wantErr: true,
			errMsg:  "optimize.rank_by",
		},
		{
			name:    "bad range",
			mutate:  func(c *Config) { c.Optimize.Ranges = []optimize.IntRange{{Name: "fast", From: 5, To: 1, Step: 1}} },
			wantErr: true,
			errMsg:  "optimize.ranges",
		},
		{
			name:    "csv journal without dir",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "csv"} },
			wantErr: true,
			errMsg:  "journal dir required for CSV type",
		},
		{
			name:    "sqlite journal without path",
			mutate:  func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} },
			wantErr: true,
			errMsg:  "journal db_path required for SQLite type",
		},
		{
			name:    "invalid journal type",
			mutate:  func(c *Config) { c.Journal.Type = "mongo" },
			wantErr: true,
			errMsg:  "journal.type must be 'csv', 'sqlite' or 'none'",
		},
		{
			name:   "journal none",
			mutate: func(c *Config) { c.Journal = JournalConfig{Type: "none"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

const sampleYAML = `
account:
  cash: "2500.50"
  fee_rate: 0.0025
backtest:
  symbol: MSFT
  from: "2024-01-02"
  to: "2024-01-31T16:00:00Z"
  step: 5m
strategy:
  name: ema-cross
  params:
    fast: 3
    slow: 8
  risk:
    enabled: true
    max_position: 50
optimize:
  ranges:
    - {name: fast, from: 2, to: 4, step: 1}
  rank_by: win_rate
journal:
  type: none
`

func TestLoadFromFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "2500.5", cfg.Account.Cash.String())
	assert.Equal(t, "0.0025", cfg.Account.FeeRate.String())
	assert.Equal(t, "MSFT", cfg.Backtest.Symbol)

	ec, err := cfg.EngineConfig()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ec.Step)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ec.From)
	assert.Equal(t, time.Date(2024, 1, 31, 16, 0, 0, 0, time.UTC), ec.To)

	spec := cfg.StrategySpec()
	assert.Equal(t, "ema-cross", spec.Name)
	assert.Equal(t, "MSFT", spec.Symbol)
	assert.Equal(t, 3, spec.Params.Int("fast", 0))
	assert.Equal(t, 8, spec.Params.Int("slow", 0))
	require.NotNil(t, spec.Policy)
	assert.True(t, spec.Policy.MaxPosition.Equal(decimal.NewFromInt(50)))

	assert.Equal(t, "win_rate", cfg.Optimize.RankBy)
	combos, err := cfg.Grid().Combinations()
	require.NoError(t, err)
	assert.Len(t, combos, 3)
}

func TestParseJSONFallback(t *testing.T) {
	cfg, err := Parse([]byte(`{"account": {"cash": "123.45", "fee_rate": 0}, "backtest": {"symbol": "X"}}`))
	require.NoError(t, err)
	assert.Equal(t, "123.45", cfg.Account.Cash.String())
	assert.True(t, cfg.Account.FeeRate.IsZero())
	assert.Equal(t, "X", cfg.Backtest.Symbol)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  cash: lots\n"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)

	path = filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backtest:\n  symbol: \"\"\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestSaveToFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	orig := Default()
	orig.Account.Cash = NewAmount(decimal.RequireFromString("777.25"))
	orig.Strategy.Risk = RiskConfig{Enabled: true, MaxOrderQty: NewAmount(decimal.NewFromInt(3))}

	for _, name := range []string{"out.yaml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, orig.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, "777.25", got.Account.Cash.String())
			assert.Equal(t, orig.Backtest, got.Backtest)
			require.NotNil(t, got.RiskPolicy())
			assert.True(t, got.RiskPolicy().MaxOrderQty.Equal(decimal.NewFromInt(3)))
		})
	}
}

func TestRiskPolicyDisabled(t *testing.T) {
	assert.Nil(t, Default().RiskPolicy())
}

func TestStrategySpecCarriesFeeRate(t *testing.T) {
	cfg := Default()
	cfg.Strategy.Name = "buy-and-hold"
	spec := cfg.StrategySpec()
	assert.Equal(t, "0.001", spec.Params.Decimal("fee_rate", decimal.Zero).String())
}
