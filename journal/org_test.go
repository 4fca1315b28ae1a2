package journal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOrg(t *testing.T) {
	t.Parallel()

	r := sampleRun("01HRUN0000000000000000000G")
	r.Notes = []string{"whipsaw in March"}

	var b strings.Builder
	require.NoError(t, WriteOrg(&b, r))
	out := b.String()

	assert.Contains(t, out, "* BACKTEST: sma-cross(2,5) AAPL")
	assert.Contains(t, out, ":RUN_ID:      01HRUN0000000000000000000G")
	assert.Contains(t, out, ":PARAMS:      fast=2 slow=5")
	assert.Contains(t, out, ":PROFIT_FAC:  2.50")
	assert.Contains(t, out, ":CREATED:     [2024-03-15 Fri 10:30]")
	assert.Contains(t, out, "| 0 | buy | 10 | 100.123456789 | 0.1 |")
	assert.Contains(t, out, "- whipsaw in March")
}

func TestWriteOrgUndefinedProfitFactor(t *testing.T) {
	t.Parallel()

	r := sampleRun("X")
	r.Metrics.ProfitFactor = nil
	r.Trades = nil

	var b strings.Builder
	require.NoError(t, WriteOrg(&b, r))
	assert.Contains(t, b.String(), ":PROFIT_FAC:  (undefined)")
	assert.NotContains(t, b.String(), "** Trades")
}
