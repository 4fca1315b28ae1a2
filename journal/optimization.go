package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/optimize"
	"github.com/rustyeddy/papertrader/pkg/id"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

// Optimization is the journal record of one parameter sweep.
type Optimization struct {
	ID       string
	Created  time.Time
	Strategy string
	Symbol   string
	Report   *optimize.Report
}

// OptResult is one stored row of a sweep. Failed rows carry Failure and no
// metrics; Position orders ranked rows first, then failures.
type OptResult struct {
	Position       int
	GridIndex      int
	Params         strategy.Params
	TotalReturnPct decimal.NullDecimal
	MaxDrawdownPct decimal.NullDecimal
	WinRatePct     decimal.NullDecimal
	ProfitFactor   decimal.NullDecimal
	Trades         int
	Failure        string
}

// RecordOptimization stores a sweep and returns its ID, generating one when
// o.ID is empty.
func (j *SQLite) RecordOptimization(ctx context.Context, o Optimization) (string, error) {
	if o.Report == nil {
		return "", fmt.Errorf("journal: optimization report is required")
	}
	if o.ID == "" {
		optID, err := id.New()
		if err != nil {
			return "", err
		}
		o.ID = optID
	}
	if o.Created.IsZero() {
		o.Created, _ = id.Time(o.ID)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `
		INSERT INTO opt_results
		(opt_id, created, strategy, symbol, rank_by, position, grid_index, params,
		 total_return_pct, max_drawdown_pct, win_rate_pct, profit_factor, trades, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	pos := 0
	for _, e := range o.Report.Ranked {
		params, err := json.Marshal(e.Params)
		if err != nil {
			return "", err
		}
		var pf decimal.NullDecimal
		if e.Metrics.ProfitFactor != nil {
			pf = decimal.NewNullDecimal(*e.Metrics.ProfitFactor)
		}
		_, err = tx.ExecContext(ctx, insert,
			o.ID, o.Created.UTC(), o.Strategy, o.Symbol, string(o.Report.RankBy), pos, e.Index, string(params),
			e.Metrics.TotalReturnPct, e.Metrics.MaxDrawdownPct, e.Metrics.WinRatePct, pf, e.Trades, nil,
		)
		if err != nil {
			return "", fmt.Errorf("journal: insert opt result %d: %w", pos, err)
		}
		pos++
	}
	for _, f := range o.Report.Failures {
		params, err := json.Marshal(f.Params)
		if err != nil {
			return "", err
		}
		_, err = tx.ExecContext(ctx, insert,
			o.ID, o.Created.UTC(), o.Strategy, o.Symbol, string(o.Report.RankBy), pos, f.Index, string(params),
			nil, nil, nil, nil, nil, f.Reason,
		)
		if err != nil {
			return "", fmt.Errorf("journal: insert opt failure %d: %w", pos, err)
		}
		pos++
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return o.ID, nil
}

// ListOptimization returns the stored rows of a sweep in position order.
func (j *SQLite) ListOptimization(ctx context.Context, optID string) ([]OptResult, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT position, grid_index, params, total_return_pct, max_drawdown_pct, win_rate_pct,
		       profit_factor, trades, failure
		FROM opt_results
		WHERE opt_id = ?
		ORDER BY position ASC`, optID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OptResult
	for rows.Next() {
		var (
			r       OptResult
			params  string
			trades  *int64
			failure *string
		)
		if err := rows.Scan(&r.Position, &r.GridIndex, &params, &r.TotalReturnPct, &r.MaxDrawdownPct,
			&r.WinRatePct, &r.ProfitFactor, &trades, &failure); err != nil {
			return nil, err
		}
		r.Params = strategy.Params{}
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, err
		}
		if trades != nil {
			r.Trades = int(*trades)
		}
		if failure != nil {
			r.Failure = *failure
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: optimization %q", ErrNotFound, optID)
	}
	return out, nil
}
