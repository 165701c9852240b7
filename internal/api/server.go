// Package api serves backtests, levels and saved runs over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/strategylab/internal/api/handler/api"
	"github.com/newthinker/strategylab/internal/api/job"
	"github.com/newthinker/strategylab/internal/api/middleware"
	"github.com/newthinker/strategylab/internal/dataset"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/notifier"
	"github.com/newthinker/strategylab/internal/report"
	"github.com/newthinker/strategylab/internal/runner"
)

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	backtests  *handler.BacktestHandler
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	APIKey      string
	DataDir     string
	MetricsPath string // empty disables the metrics endpoint
}

// Dependencies are the services the handlers use. Reports, Metrics and
// Notifier may be nil.
type Dependencies struct {
	Runner   *runner.Runner
	Datasets *dataset.Cache
	Jobs     *job.Store
	Reports  report.Store
	Metrics  *metrics.Registry
	Notifier *notifier.Registry
	Defaults runner.Request
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Runner == nil || deps.Datasets == nil || deps.Jobs == nil {
		return nil, errors.New("runner, dataset cache and job store are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	mws := []func(http.Handler) http.Handler{metrics.LoggingMiddleware(logger)}
	if deps.Metrics != nil {
		mws = append(mws, metrics.HTTPMiddleware(deps.Metrics))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	v := validator.New()
	datasets := handler.Datasets{Dir: cfg.DataDir, Cache: deps.Datasets, Metrics: deps.Metrics}

	s.backtests = handler.NewBacktestHandler(handler.BacktestDeps{
		Jobs:     deps.Jobs,
		Runner:   deps.Runner,
		Datasets: datasets,
		Reports:  deps.Reports,
		Defaults: deps.Defaults,
		Validate: v,
		Metrics:  deps.Metrics,
		Notifier: deps.Notifier,
		Logger:   s.logger,
	})
	lv := handler.NewLevelsHandler(datasets, deps.Defaults.Levels.Window,
		deps.Defaults.Levels.ThresholdPct, deps.Defaults.Interval, v)

	auth := middleware.APIKeyAuth(cfg.APIKey)
	api := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	api("POST /api/v1/backtests", s.backtests.Create)
	api("GET /api/v1/backtests", s.backtests.List)
	api("GET /api/v1/backtests/{id}", s.backtests.GetStatus)
	api("GET /api/v1/levels", lv.Get)
	if deps.Reports != nil {
		runs := handler.NewRunsHandler(deps.Reports)
		api("GET /api/v1/runs/{symbol}", runs.List)
		api("GET /api/v1/runs/{symbol}/{id}", runs.Get)
	}

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	if cfg.MetricsPath != "" && deps.Metrics != nil {
		s.mux.Handle("GET "+cfg.MetricsPath, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, then waits for running backtests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	if err := s.backtests.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for backtests: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
