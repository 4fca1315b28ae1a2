package api

import (
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/shopspring/decimal"
)

// BacktestRequest represents the request body for running a backtest.
// Unset account fields and window bounds fall back to the server config.
// Bars, when omitted, are loaded from the server's bar source.
type BacktestRequest struct {
	Strategy string           `json:"strategy" binding:"required"`
	Symbol   string           `json:"symbol" binding:"required"`
	Params   strategy.Params  `json:"params,omitempty"`
	Risk     *risk.Policy     `json:"risk,omitempty"`
	Cash     *decimal.Decimal `json:"cash,omitempty"`
	FeeRate  *decimal.Decimal `json:"fee_rate,omitempty"`
	From     *time.Time       `json:"from,omitempty"`
	To       *time.Time       `json:"to,omitempty"`
	Bars     []market.Bar     `json:"bars,omitempty"`

	// IncludeSeries adds trades and the equity curve to the response.
	IncludeSeries bool `json:"include_series,omitempty"`
}

// OptimizeRequest represents the request body for a parameter sweep.
type OptimizeRequest struct {
	Strategy string              `json:"strategy" binding:"required"`
	Symbol   string              `json:"symbol" binding:"required"`
	Ranges   []optimize.IntRange `json:"ranges" binding:"required,min=1"`
	Fixed    strategy.Params     `json:"fixed,omitempty"`
	Risk     *risk.Policy        `json:"risk,omitempty"`
	RankBy   string              `json:"rank_by,omitempty"`
	TopN     int                 `json:"top_n,omitempty"`
	Workers  int                 `json:"workers,omitempty"`
	// SkipInvalid drops combinations where fast >= slow.
	SkipInvalid bool             `json:"skip_invalid,omitempty"`
	Cash        *decimal.Decimal `json:"cash,omitempty"`
	FeeRate     *decimal.Decimal `json:"fee_rate,omitempty"`
	From        *time.Time       `json:"from,omitempty"`
	To          *time.Time       `json:"to,omitempty"`
	Bars        []market.Bar     `json:"bars,omitempty"`
}

// BacktestResponse represents the response from a backtest run
type BacktestResponse struct {
	RunID         string                     `json:"run_id,omitempty"`
	Strategy      string                     `json:"strategy"`
	BarsProcessed int                        `json:"bars_processed"`
	StartingCash  decimal.Decimal            `json:"starting_cash"`
	FinalCash     decimal.Decimal            `json:"final_cash"`
	Positions     map[string]decimal.Decimal `json:"positions"`
	Rejections    int                        `json:"rejections"`
	Metrics       metrics.Report             `json:"metrics"`

	Trades []market.Trade    `json:"trades,omitempty"`
	Equity []decimal.Decimal `json:"equity,omitempty"`
	Times  []time.Time       `json:"times,omitempty"`
}

type OptimizeResponse struct {
	OptimizationID string           `json:"optimization_id,omitempty"`
	Report         *optimize.Report `json:"report"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
