package main

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/dataset"
	"github.com/newthinker/strategylab/internal/indicator"
	"github.com/newthinker/strategylab/internal/logger"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/tracing"
)

// env bundles what every command needs.
type env struct {
	cfg     *config.Config
	log     *zap.Logger
	tp      *sdktrace.TracerProvider
	metrics *metrics.Registry // nil unless requested and enabled
	runner  *runner.Runner
}

// setup loads and validates the config, then builds the logger, tracer
// provider and runner. With withMetrics set and metrics enabled in the
// config, the runner records into a fresh registry.
func setup(ctx context.Context, withMetrics bool) (*env, error) {
	cfg := config.Defaults()
	if cfgFile != "" {
		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	opts := logger.Options{Development: debug, Level: cfg.Log.Level, Encoding: cfg.Log.Encoding}
	if debug {
		opts.Level = "debug"
		opts.Encoding = "console"
	}
	log, err := logger.New(opts)
	if err != nil {
		return nil, err
	}
	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	tp, tracer, err := tracing.Init(ctx, cfg.Tracing, Version)
	if err != nil {
		return nil, err
	}

	ropts := []runner.Option{
		runner.WithLogger(log),
		runner.WithTracer(tracer),
		runner.WithMemo(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
	}
	var reg *metrics.Registry
	if withMetrics && cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		ropts = append(ropts, runner.WithMetrics(reg))
	}

	return &env{
		cfg:     cfg,
		log:     log,
		tp:      tp,
		metrics: reg,
		runner:  runner.New(ropts...),
	}, nil
}

// close flushes spans and logs.
func (e *env) close(ctx context.Context) {
	if err := e.tp.Shutdown(ctx); err != nil {
		e.log.Warn("flushing traces", zap.Error(err))
	}
	_ = e.log.Sync()
}

// loadSeries reads a CSV and computes indicators when asked to or when the
// file lacks any of them.
func (e *env) loadSeries(path, symbol, interval string, annotate bool) (core.Series, error) {
	if interval == "" {
		interval = e.cfg.Backtest.Interval
	}
	s, err := dataset.LoadFile(path, symbol, interval)
	if err != nil {
		return core.Series{}, err
	}
	if annotate || !indicator.HasIndicators(s) {
		e.log.Debug("computing indicators", zap.String("symbol", s.Symbol), zap.Int("bars", s.Len()))
		s = indicator.Annotate(s, e.cfg.Indicators.Params())
	}
	return s, nil
}
