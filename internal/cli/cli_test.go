package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/barstore"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), NewRootCmd(), append([]string{"--log-level", "off", "--no-progress"}, args...), &stdout, &stderr)
	return stdout.String(), err
}

func writeBars(t *testing.T, closes ...int64) string {
	t.Helper()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		px := decimal.NewFromInt(c)
		bars[i] = market.Bar{
			Symbol: "AAPL", Timestamp: t0.Add(time.Duration(i) * time.Minute),
			Open: px, High: px, Low: px, Close: px, Volume: decimal.NewFromInt(1),
		}
	}
	path := filepath.Join(t.TempDir(), "bars.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, barstore.WriteCSV(f, bars))
	require.NoError(t, f.Close())
	return path
}

// lastField returns the last word of the first line starting with prefix.
func lastField(t *testing.T, out, prefix string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			f := strings.Fields(line)
			return f[len(f)-1]
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", prefix, out)
	return ""
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "trader dev\n", out)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.yaml")

	out, err := execute(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = execute(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "sma-cross on AAPL")

	_, err = execute(t, "--config", path, "version")
	assert.NoError(t, err)
}

func TestBacktestAndJournal(t *testing.T) {
	bars := writeBars(t, 10, 11, 12)
	db := filepath.Join(t.TempDir(), "trader.db")

	out, err := execute(t, "--db", db, "backtest", "-b", bars, "--symbol", "AAPL",
		"-s", "buy-and-hold", "-p", "quantity=10", "--fee", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "buy-and-hold")
	runID := lastField(t, out, "Run ID:")

	out, err = execute(t, "--db", db, "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "--db", db, "journal", "show", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "* BACKTEST: buy-and-hold AAPL")
	assert.Contains(t, out, ":RUN_ID:      "+runID)

	_, err = execute(t, "--db", db, "journal", "show", "missing")
	assert.Error(t, err)
}

func TestBacktestFlagErrors(t *testing.T) {
	bars := writeBars(t, 1)
	db := filepath.Join(t.TempDir(), "trader.db")

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"bad cash", []string{"--cash", "lots"}, "--cash"},
		{"unknown strategy", []string{"-s", "moon"}, "unknown strategy"},
		{"bad param", []string{"-p", "fast=x"}, "--param fast"},
		{"bad window", []string{"--from", "2024-02-01", "--to", "2024-01-01"}, "backtest.from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", db, "backtest", "-b", bars}, tt.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestOptimizeAndSweep(t *testing.T) {
	bars := writeBars(t, 10, 10, 10, 10, 13, 16, 7, 7)
	db := filepath.Join(t.TempDir(), "trader.db")

	out, err := execute(t, "--db", db, "optimize", "-b", bars, "--symbol", "AAPL", "-s", "sma-cross",
		"-r", "fast=1:3", "-r", "slow=3:4", "--fee", "0", "-w", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Ranked by total_return: 5 of 5 combinations")
	assert.Contains(t, out, "RANK")
	optID := lastField(t, out, "Optimization ID:")

	out, err = execute(t, "--db", db, "journal", "sweep", optID)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(out, "\n"), out)

	_, err = execute(t, "--db", db, "journal", "sweep", "nope")
	assert.Error(t, err)
}

func TestOptimizeBadRange(t *testing.T) {
	_, err := execute(t, "--db", filepath.Join(t.TempDir(), "x.db"), "optimize", "-r", "fast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad range")
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    optimize.IntRange
		wantErr bool
	}{
		{"fast=5:20:5", optimize.IntRange{Name: "fast", From: 5, To: 20, Step: 5}, false},
		{"slow=3:4", optimize.IntRange{Name: "slow", From: 3, To: 4, Step: 1}, false},
		{" k = 1 : 2 ", optimize.IntRange{Name: "k", From: 1, To: 2, Step: 1}, false},
		{"fast", optimize.IntRange{}, true},
		{"=1:2", optimize.IntRange{}, true},
		{"fast=1", optimize.IntRange{}, true},
		{"fast=a:b", optimize.IntRange{}, true},
		{"fast=5:1", optimize.IntRange{}, true},
		{"fast=1:5:0", optimize.IntRange{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStrategiesCmd(t *testing.T) {
	out, err := execute(t, "strategies")
	require.NoError(t, err)
	for _, name := range []string{"buy-and-hold", "ema-cross", "noop", "sma-cross"} {
		assert.Contains(t, out, name)
	}
}
