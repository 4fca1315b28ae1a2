package indicators

import (
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bars(closes ...int64) []market.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{Symbol: "X", Timestamp: base.Add(time.Duration(i) * time.Hour), Close: decimal.NewFromInt(c)}
	}
	return out
}

func TestSimpleMAStreaming(t *testing.T) {
	candles := bars(102, 105, 106, 108, 110)

	t.Run("basic functionality", func(t *testing.T) {
		ma, err := NewMA(3)
		require.NoError(t, err)
		assert.Equal(t, "MA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.True(t, ma.Value().IsZero())

		ma.Update(candles[0])
		ma.Update(candles[1])
		assert.False(t, ma.Ready())

		ma.Update(candles[2])
		assert.True(t, ma.Ready())
		// (102+105+106)/3
		assert.Equal(t, "104.3333333333333333", ma.Value().String())

		ma.Update(candles[3])
		// (105+106+108)/3
		assert.True(t, ma.Value().Equal(decimal.NewFromInt(319).Div(decimal.NewFromInt(3))))

		ma.Update(candles[4])
		// (106+108+110)/3
		assert.True(t, ma.Value().Equal(decimal.NewFromInt(108)))
	})

	t.Run("reset functionality", func(t *testing.T) {
		ma, err := NewMA(2)
		require.NoError(t, err)
		ma.Update(candles[0])
		ma.Update(candles[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.True(t, ma.Value().IsZero())

		ma.Update(candles[3])
		ma.Update(candles[4])
		assert.True(t, ma.Value().Equal(decimal.NewFromInt(109)))
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := NewMA(0)
		assert.Error(t, err)
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	candles := bars(10, 20, 30, 40)

	ema, err := NewEMA(3)
	require.NoError(t, err)
	assert.Equal(t, "EMA(3)", ema.Name())

	ema.Update(candles[0])
	ema.Update(candles[1])
	assert.False(t, ema.Ready())
	assert.True(t, ema.Value().IsZero())

	ema.Update(candles[2])
	require.True(t, ema.Ready())
	assert.True(t, ema.Value().Equal(decimal.NewFromInt(20)))

	// multiplier 2/4 = 0.5: (40-20)*0.5+20 = 30
	ema.Update(candles[3])
	assert.True(t, ema.Value().Equal(decimal.NewFromInt(30)))

	ema.Reset()
	assert.False(t, ema.Ready())

	_, err = NewEMA(-1)
	assert.Error(t, err)
}

func TestIndicatorInterface(t *testing.T) {
	ma, _ := NewMA(2)
	ema, _ := NewEMA(2)
	for _, ind := range []Indicator{ma, ema} {
		assert.Equal(t, 2, ind.Warmup())
	}
}
