package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/barstore"
	"github.com/rustyeddy/papertrader/internal/app"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/optimize"
	"github.com/rustyeddy/papertrader/strategies"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// health handles GET /health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: s.version})
}

// listStrategies handles GET /api/v1/strategies
func (s *Server) listStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": strategies.Catalog()})
}

// runBacktest handles POST /api/v1/backtest
func (s *Server) runBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := s.engineConfig(req.Cash, req.FeeRate)
	if req.From != nil {
		cfg.From = *req.From
	}
	if req.To != nil {
		cfg.To = *req.To
	}
	params := req.Params.Clone()
	if _, ok := params["fee_rate"]; !ok {
		params["fee_rate"] = cfg.FeeRate
	}

	res, run, err := s.app.Backtest(c.Request.Context(), app.BacktestRequest{
		Engine: cfg,
		Spec: strategies.Spec{
			Name:   req.Strategy,
			Symbol: req.Symbol,
			Params: params,
			Policy: req.Risk,
		},
		Bars: req.Bars,
	})
	if res == nil {
		s.fail(c, err)
		return
	}
	if err != nil {
		s.log.Warn("backtest finished but was not journaled", zap.Error(err))
	}

	resp := BacktestResponse{
		RunID:         run.ID,
		Strategy:      res.Strategy,
		BarsProcessed: res.BarsProcessed,
		StartingCash:  res.StartingCash,
		FinalCash:     res.FinalCash,
		Positions:     res.Positions,
		Rejections:    len(res.Rejections),
		Metrics:       res.Metrics,
	}
	if req.IncludeSeries {
		resp.Trades = res.Trades
		resp.Equity = res.Equity
		resp.Times = res.Times
	}
	c.JSON(http.StatusOK, resp)
}

// runOptimize handles POST /api/v1/optimize
func (s *Server) runOptimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	rankBy, err := optimize.ParseMetric(req.RankBy)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	cfg := s.engineConfig(req.Cash, req.FeeRate)
	if req.From != nil {
		cfg.From = *req.From
	}
	if req.To != nil {
		cfg.To = *req.To
	}
	fixed := req.Fixed.Clone()
	if _, ok := fixed["fee_rate"]; !ok {
		fixed["fee_rate"] = cfg.FeeRate
	}
	grid := optimize.Grid{Ranges: req.Ranges, Fixed: fixed}
	if req.SkipInvalid {
		grid.Valid = optimize.FastBelowSlow
	}
	workers := req.Workers
	if s.workers > 0 && (workers <= 0 || workers > s.workers) {
		workers = s.workers
	}

	rep, optID, err := s.app.Optimize(c.Request.Context(), app.OptimizeRequest{
		Optimizer: optimize.Optimizer{
			Engine:  cfg,
			Workers: workers,
			RankBy:  rankBy,
			TopN:    req.TopN,
		},
		Spec: strategies.Spec{Name: req.Strategy, Symbol: req.Symbol, Policy: req.Risk},
		Grid: grid,
		Bars: req.Bars,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, OptimizeResponse{OptimizationID: optID, Report: rep})
}

// getRun handles GET /api/v1/runs/:id
func (s *Server) getRun(c *gin.Context) {
	loader, ok := s.app.Journal.(RunLoader)
	if !ok {
		writeError(c, http.StatusNotImplemented, "NO_JOURNAL", "the configured journal cannot read runs")
		return
	}
	run, err := loader.LoadRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) engineConfig(cash, feeRate *decimal.Decimal) backtest.Config {
	cfg := s.defaults
	if cash != nil {
		cfg.StartingCash = *cash
	}
	if feeRate != nil {
		cfg.FeeRate = *feeRate
	}
	cfg.Logger = s.log
	return cfg
}

// fail maps domain errors onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	var hookErr *backtest.HookError
	switch {
	case errors.Is(err, strategies.ErrUnknownStrategy),
		errors.Is(err, strategies.ErrInvalidPeriod),
		errors.Is(err, strategies.ErrFastNotFaster),
		errors.Is(err, strategies.ErrInvalidQuantity):
		writeError(c, http.StatusBadRequest, "INVALID_STRATEGY", err.Error())
	case errors.Is(err, backtest.ErrInvalidConfig), errors.Is(err, optimize.ErrInvalidRange):
		writeError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error())
	case errors.Is(err, app.ErrNoSource), errors.Is(err, barstore.ErrNoBars):
		writeError(c, http.StatusUnprocessableEntity, "NO_DATA", err.Error())
	case errors.As(err, &hookErr):
		writeError(c, http.StatusUnprocessableEntity, "STRATEGY_FAILED", err.Error())
	case errors.Is(err, journal.ErrNotFound):
		writeError(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(c, http.StatusServiceUnavailable, "CANCELLED", err.Error())
	default:
		s.log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
