package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

var _ Journal = (*SQLite)(nil)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// RecordRun writes the run, its trades and its equity curve in one
// transaction.
func (j *SQLite) RecordRun(ctx context.Context, r Run) error {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return err
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	m := r.Metrics
	var pf decimal.NullDecimal
	if m.ProfitFactor != nil {
		pf = decimal.NewNullDecimal(*m.ProfitFactor)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(run_id, created, strategy, symbol, dataset, params, fee_rate, starting_cash, final_cash,
		 final_equity, bars, total_return_pct, max_drawdown_pct, buy_and_hold_pct, total_trades,
		 round_trips, wins, win_rate_pct, gross_profit, gross_loss, total_fees, profit_factor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Created.UTC(), r.Strategy, r.Symbol, r.Dataset, string(params),
		r.FeeRate, r.StartingCash, r.FinalCash,
		m.FinalEquity, r.BarsProcessed, m.TotalReturnPct, m.MaxDrawdownPct, m.BuyAndHoldPct, m.TotalTrades,
		m.RoundTrips, m.Wins, m.WinRatePct, m.GrossProfit, m.GrossLoss, m.TotalFees, pf,
	)
	if err != nil {
		return fmt.Errorf("journal: insert run %s: %w", r.ID, err)
	}

	for i, t := range r.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades (run_id, seq, symbol, side, quantity, price, fee, time)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, t.Symbol, t.Side.String(), t.Quantity, t.Price, t.Fee, t.Time.UTC(),
		)
		if err != nil {
			return fmt.Errorf("journal: insert trade %d: %w", i, err)
		}
	}

	for _, e := range r.Equity {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO equity (run_id, seq, time, equity) VALUES (?, ?, ?, ?)`,
			r.ID, e.Seq, e.Time.UTC(), e.Equity,
		)
		if err != nil {
			return fmt.Errorf("journal: insert equity %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

const runColumns = `run_id, created, strategy, symbol, dataset, params, fee_rate, starting_cash, final_cash,
	final_equity, bars, total_return_pct, max_drawdown_pct, buy_and_hold_pct, total_trades,
	round_trips, wins, win_rate_pct, gross_profit, gross_loss, total_fees, profit_factor`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		r      Run
		params string
		pf     decimal.NullDecimal
	)
	m := &r.Metrics
	err := row.Scan(
		&r.ID, &r.Created, &r.Strategy, &r.Symbol, &r.Dataset, &params, &r.FeeRate, &r.StartingCash, &r.FinalCash,
		&m.FinalEquity, &r.BarsProcessed, &m.TotalReturnPct, &m.MaxDrawdownPct, &m.BuyAndHoldPct, &m.TotalTrades,
		&m.RoundTrips, &m.Wins, &m.WinRatePct, &m.GrossProfit, &m.GrossLoss, &m.TotalFees, &pf,
	)
	if err != nil {
		return Run{}, err
	}
	if pf.Valid {
		v := pf.Decimal
		m.ProfitFactor = &v
	}
	r.Params = strategy.Params{}
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return Run{}, fmt.Errorf("journal: decode params of %s: %w", r.ID, err)
	}
	return r, nil
}

// GetRun loads the run summary without trades or equity.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: run %q", ErrNotFound, runID)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 means all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListTrades returns a run's trades in fill order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]market.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT symbol, side, quantity, price, fee, time
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Trade
	for rows.Next() {
		var (
			t    market.Trade
			side string
		)
		if err := rows.Scan(&t.Symbol, &side, &t.Quantity, &t.Price, &t.Fee, &t.Time); err != nil {
			return nil, err
		}
		if err := t.Side.UnmarshalText([]byte(side)); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListEquity returns a run's equity curve, seed first.
func (j *SQLite) ListEquity(ctx context.Context, runID string) ([]EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT seq, time, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Seq, &p.Time, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LoadRun is GetRun plus trades and equity.
func (j *SQLite) LoadRun(ctx context.Context, runID string) (Run, error) {
	r, err := j.GetRun(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	if r.Trades, err = j.ListTrades(ctx, runID); err != nil {
		return Run{}, err
	}
	if r.Equity, err = j.ListEquity(ctx, runID); err != nil {
		return Run{}, err
	}
	return r, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
