package barstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Header is the column layout read and written by the CSV source.
var Header = []string{"time", "symbol", "open", "high", "low", "close", "volume"}

// CSVSource reads bars from a file with columns
// time,symbol,open,high,low,close,volume. A header row is allowed. Files
// ending in .xz or .lzma are decompressed on the fly.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Load(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	r, err := decompress(s.Path, f)
	if err != nil {
		return nil, fmt.Errorf("open bars %s: %w", s.Path, err)
	}
	bars, err := ReadCSV(ctx, r, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("read bars %s: %w", s.Path, err)
	}
	return bars, nil
}

func decompress(path string, r io.Reader) (io.Reader, error) {
	switch {
	case strings.HasSuffix(path, ".xz"):
		return xz.NewReader(r)
	case strings.HasSuffix(path, ".lzma"):
		return lzma.NewReader(r)
	default:
		return r, nil
	}
}

// ReadCSV parses bars from r, keeps those matching symbol and the window and
// returns them sorted by timestamp.
func ReadCSV(ctx context.Context, r io.Reader, symbol string, from, to time.Time) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	var (
		bars []market.Bar
		line int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if symbol != "" && b.Symbol != symbol {
			continue
		}
		if !inWindow(b.Timestamp, from, to) {
			continue
		}
		bars = append(bars, b)
	}
	sortBars(bars)
	return bars, nil
}

func parseRow(row []string) (market.Bar, error) {
	if len(row) < 7 {
		return market.Bar{}, fmt.Errorf("need 7 columns %s, got %d", strings.Join(Header, ","), len(row))
	}
	ts, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return market.Bar{}, err
	}
	b := market.Bar{Symbol: strings.TrimSpace(row[1]), Timestamp: ts}

	fields := []*decimal.Decimal{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
	for i, dst := range fields {
		v, err := decimal.NewFromString(strings.TrimSpace(row[i+2]))
		if err != nil {
			return market.Bar{}, fmt.Errorf("bad %s %q: %w", Header[i+2], row[i+2], err)
		}
		*dst = v
	}
	if err := b.Validate(); err != nil {
		return market.Bar{}, err
	}
	return b, nil
}

// parseTime accepts RFC3339 (with or without fractional seconds) or a plain
// YYYY-MM-DD date.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// WriteCSV writes bars with a header row in the layout ReadCSV accepts.
func WriteCSV(w io.Writer, bars []market.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.Timestamp.UTC().Format(time.RFC3339Nano),
			b.Symbol,
			b.Open.String(),
			b.High.String(),
			b.Low.String(),
			b.Close.String(),
			b.Volume.String(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
