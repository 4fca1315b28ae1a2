package barstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

const sample = `time,symbol,open,high,low,close,volume
2024-01-01T00:02:00Z,AAPL,11,12,10,11.5,300
2024-01-01T00:00:00Z,AAPL,10,11,9,10.5,100
2024-01-01T00:01:00Z,MSFT,20,21,19,20.5,50
2024-01-01T00:01:00Z,AAPL,10.5,11,10,11,200
`

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestReadCSV(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader(sample), "AAPL", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 3)

	for i, b := range bars {
		assert.Equal(t, "AAPL", b.Symbol)
		assert.Equal(t, t0.Add(time.Duration(i)*time.Minute), b.Timestamp)
	}
	assert.True(t, bars[0].Close.Equal(decimal.RequireFromString("10.5")))
	assert.True(t, bars[2].Volume.Equal(decimal.NewFromInt(300)))
}

func TestReadCSVAllSymbolsStable(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader(sample), "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 4)
	// equal timestamps keep file order
	assert.Equal(t, "MSFT", bars[1].Symbol)
	assert.Equal(t, "AAPL", bars[2].Symbol)
}

func TestReadCSVWindow(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader(sample), "AAPL", t0.Add(time.Minute), t0.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, t0.Add(time.Minute), bars[0].Timestamp)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	bars, err := ReadCSV(context.Background(), strings.NewReader("2024-01-02,X,1,1,1,1,0\n"), "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"short row", "2024-01-01T00:00:00Z,X,1,2\n", "need 7 columns"},
		{"bad time", "yesterday,X,1,1,1,1,1\n", "bad time"},
		{"bad price", "2024-01-01T00:00:00Z,X,1,one,1,1,1\n", "bad high"},
		{"negative close", "2024-01-01T00:00:00Z,X,1,1,1,-1,1\n", "negative close"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(context.Background(), strings.NewReader(tt.in), "", time.Time{}, time.Time{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	in, err := ReadCSV(context.Background(), strings.NewReader(sample), "", time.Time{}, time.Time{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	out, err := ReadCSV(context.Background(), &buf, "", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i].String(), out[i].String())
	}
}

func TestCSVSourceCompressed(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, wrap func(*os.File) (io.WriteCloser, error)) string {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		require.NoError(t, err)
		w, err := wrap(f)
		require.NoError(t, err)
		_, err = w.Write([]byte(sample))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		f.Close()
		return path
	}

	paths := []string{
		write("bars.csv", func(f *os.File) (io.WriteCloser, error) { return nopCloser{f}, nil }),
		write("bars.csv.xz", func(f *os.File) (io.WriteCloser, error) { return xz.NewWriter(f) }),
		write("bars.csv.lzma", func(f *os.File) (io.WriteCloser, error) { return lzma.NewWriter(f) }),
	}
	for _, p := range paths {
		t.Run(filepath.Base(p), func(t *testing.T) {
			bars, err := NewCSVSource(p).Load(context.Background(), "AAPL", time.Time{}, time.Time{})
			require.NoError(t, err)
			assert.Len(t, bars, 3)
		})
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv")).Load(context.Background(), "", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type mockBars struct {
	rows []BarRow
	err  error

	symbol   string
	from, to *time.Time
}

func (m *mockBars) SelectBars(_ context.Context, symbol string, from, to *time.Time) ([]BarRow, error) {
	m.symbol, m.from, m.to = symbol, from, to
	return m.rows, m.err
}

func row(sym string, ts time.Time, close string) BarRow {
	c := decimal.RequireFromString(close)
	return BarRow{Symbol: sym, Time: ts, Open: c, High: c, Low: c, Close: c, Volume: decimal.NewFromInt(1)}
}

func TestPostgresSourceLoad(t *testing.T) {
	m := &mockBars{rows: []BarRow{
		row("AAPL", t0.Add(time.Minute), "11"),
		row("AAPL", t0, "10"),
	}}
	src := &PostgresSource{bars: m}

	bars, err := src.Load(context.Background(), "AAPL", t0, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, t0, bars[0].Timestamp)
	assert.IsType(t, market.Bar{}, bars[0])

	assert.Equal(t, "AAPL", m.symbol)
	require.NotNil(t, m.from)
	assert.Equal(t, t0, *m.from)
	assert.Nil(t, m.to)
}

func TestPostgresSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		m       *mockBars
		wantErr error
		msg     string
	}{
		{"no rows", &mockBars{}, ErrNoBars, ""},
		{"query error", &mockBars{err: errors.New("conn reset")}, nil, "select bars: conn reset"},
		{"invalid bar", &mockBars{rows: []BarRow{row("", t0, "1")}}, nil, "symbol is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&PostgresSource{bars: tt.m}).Load(context.Background(), "", time.Time{}, time.Time{})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestNewPostgresSourceRejectsTableName(t *testing.T) {
	_, err := NewPostgresSource(context.Background(), "postgres://localhost/x", "bars; drop table x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}
