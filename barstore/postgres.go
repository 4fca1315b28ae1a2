package barstore

import (
	"context"
	"fmt"
	"regexp"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

// BarRow is a bar as selected from the bars table. Field order matches the
// select list.
type BarRow struct {
	Symbol string
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

type barsRepository interface {
	SelectBars(ctx context.Context, symbol string, from, to *time.Time) ([]BarRow, error)
}

// PostgresSource loads bars from a table with columns
// symbol, ts, open, high, low, close, volume.
type PostgresSource struct {
	bars barsRepository
	pool *pgxpool.Pool
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// NewPostgresSource connects to dsn and verifies connectivity.
func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	if table == "" {
		table = "bars"
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresSource{bars: &pgBars{pool: pool, table: table}, pool: pool}, nil
}

func (s *PostgresSource) Load(ctx context.Context, symbol string, from, to time.Time) ([]market.Bar, error) {
	var fromp, top *time.Time
	if !from.IsZero() {
		fromp = &from
	}
	if !to.IsZero() {
		top = &to
	}
	rows, err := s.bars.SelectBars(ctx, symbol, fromp, top)
	if err != nil {
		return nil, fmt.Errorf("select bars: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoBars
	}
	bars := make([]market.Bar, 0, len(rows))
	for _, r := range rows {
		b := market.Bar{
			Symbol:    r.Symbol,
			Timestamp: r.Time.UTC(),
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	sortBars(bars)
	return bars, nil
}

func (s *PostgresSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

type pgBars struct {
	pool  *pgxpool.Pool
	table string
}

func (q *pgBars) SelectBars(ctx context.Context, symbol string, from, to *time.Time) ([]BarRow, error) {
	sql := `SELECT symbol, ts, open, high, low, close, volume FROM ` + q.table + `
WHERE ($1 = '' OR symbol = $1)
  AND ($2::timestamptz IS NULL OR ts >= $2)
  AND ($3::timestamptz IS NULL OR ts <= $3)
ORDER BY ts, symbol`
	rows, err := q.pool.Query(ctx, sql, symbol, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[BarRow])
}
