// Package api exposes backtests and parameter sweeps over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/internal/app"
	"github.com/rustyeddy/papertrader/journal"
	"go.uber.org/zap"
)

// RunLoader is implemented by journals that can read runs back.
type RunLoader interface {
	LoadRun(ctx context.Context, runID string) (journal.Run, error)
}

type Server struct {
	app      *app.App
	defaults backtest.Config
	workers  int
	version  string
	origins  []string
	log      *zap.Logger

	router *gin.Engine
}

type Option func(*Server)

// WithDefaults sets the account and window used when a request omits them.
func WithDefaults(cfg backtest.Config) Option {
	return func(s *Server) { s.defaults = cfg }
}

// WithWorkers caps the optimizer pool for every sweep.
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithAllowedOrigins restricts CORS; empty allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

func NewServer(a *app.App, opts ...Option) *Server {
	s := &Server{app: a, log: a.Log}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(s.log))
	r.Use(ErrorHandler(s.log))

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/strategies", s.listStrategies)
		v1.POST("/backtest", s.runBacktest)
		v1.POST("/optimize", s.runOptimize)
		v1.GET("/runs/:id", s.getRun)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.URL.Path)
	})
	return r
}

// Handler returns the router wrapped with CORS.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: msg}})
}
