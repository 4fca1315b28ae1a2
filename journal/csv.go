package journal

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var (
	runsHeader   = []string{"run_id", "created", "strategy", "symbol", "dataset", "params", "starting_cash", "final_equity", "total_return_pct", "max_drawdown_pct", "round_trips", "win_rate_pct", "profit_factor"}
	tradesHeader = []string{"run_id", "seq", "time", "symbol", "side", "quantity", "price", "fee"}
	equityHeader = []string{"run_id", "seq", "time", "equity"}
)

var _ Journal = (*CSVJournal)(nil)

// CSVJournal appends runs.csv, trades.csv and equity.csv in a directory.
type CSVJournal struct {
	runs, trades, equity *csv.Writer
	files                []*os.File
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	j := &CSVJournal{}
	var err error
	if j.runs, err = j.open(filepath.Join(dir, "runs.csv"), runsHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.trades, err = j.open(filepath.Join(dir, "trades.csv"), tradesHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	if j.equity, err = j.open(filepath.Join(dir, "equity.csv"), equityHeader); err != nil {
		_ = j.Close()
		return nil, err
	}
	return j, nil
}

// open appends to path, writing header only when the file is new or empty.
func (j *CSVJournal) open(path string, header []string) (*csv.Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	j.files = append(j.files, f)

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := w.Write(header); err != nil {
			return nil, err
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (j *CSVJournal) RecordRun(_ context.Context, r Run) error {
	m := r.Metrics
	pf := ""
	if m.ProfitFactor != nil {
		pf = m.ProfitFactor.String()
	}
	if err := j.runs.Write([]string{
		r.ID,
		r.Created.UTC().Format(time.RFC3339),
		r.Strategy,
		r.Symbol,
		r.Dataset,
		r.Params.String(),
		r.StartingCash.String(),
		m.FinalEquity.String(),
		m.TotalReturnPct.String(),
		m.MaxDrawdownPct.String(),
		strconv.Itoa(m.RoundTrips),
		m.WinRatePct.String(),
		pf,
	}); err != nil {
		return err
	}

	for i, t := range r.Trades {
		if err := j.trades.Write([]string{
			r.ID,
			strconv.Itoa(i),
			t.Time.UTC().Format(time.RFC3339Nano),
			t.Symbol,
			t.Side.String(),
			t.Quantity.String(),
			t.Price.String(),
			t.Fee.String(),
		}); err != nil {
			return err
		}
	}

	for _, e := range r.Equity {
		if err := j.equity.Write([]string{
			r.ID,
			strconv.Itoa(e.Seq),
			e.Time.UTC().Format(time.RFC3339Nano),
			e.Equity.String(),
		}); err != nil {
			return err
		}
	}
	return j.flush()
}

func (j *CSVJournal) flush() error {
	for _, w := range []*csv.Writer{j.runs, j.trades, j.equity} {
		if w == nil {
			continue
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("journal: flush csv: %w", err)
		}
	}
	return nil
}

func (j *CSVJournal) Close() error {
	err := j.flush()
	for _, f := range j.files {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
