// Package runner wires signals, the learned adapter, the simulators and
// the level detector into one backtest run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/learn"
	"github.com/newthinker/strategylab/internal/levels"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/signals"
)

// Report is the outcome of one run.
type Report struct {
	RunID        string           `json:"run_id"`
	Symbol       string           `json:"symbol"`
	Interval     string           `json:"interval"`
	Strategy     signals.Strategy `json:"strategy"`
	Mode         backtest.Mode    `json:"mode"`
	Bars         int              `json:"bars"`
	Request      Request          `json:"request"`
	Signals      signals.Set      `json:"-"`
	SignalCounts map[string]int   `json:"signal_counts"`
	Result       *backtest.Result `json:"result"`
	Levels       levels.Levels    `json:"levels"`
	ML           *learn.Result    `json:"ml,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	Duration     time.Duration    `json:"duration_ns"`
}

// Runner executes backtest runs. Runs share no mutable state apart from the
// learned-signal memo, so a Runner is safe for concurrent use.
type Runner struct {
	logger  *zap.Logger
	metrics *metrics.Registry
	tracer  trace.Tracer
	memo    *cache.Cache
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records run metrics into reg.
func WithMetrics(reg *metrics.Registry) Option {
	return func(r *Runner) { r.metrics = reg }
}

// WithTracer sets the tracer used for run spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// WithMemo sets how long fitted learned signals are kept.
func WithMemo(expiration, cleanup time.Duration) Option {
	return func(r *Runner) { r.memo = cache.New(expiration, cleanup) }
}

// New creates a Runner. Without options it logs nowhere, records no
// metrics and memoizes learned signals for ten minutes.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: zap.NewNop(),
		tracer: noop.NewTracerProvider().Tracer("strategylab/runner"),
		memo:   cache.New(10*time.Minute, 5*time.Minute),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one backtest over the series.
//
// A binary expiration shorter than one bar fails the run with
// core.ErrInsufficientHorizon, as does a learned horizon below one when ml is
// the selected strategy. A learned target with a single class, or any fit
// failure while another strategy is selected, only degrades the ml column to
// all false and is reported as a warning.
func (r *Runner) Run(ctx context.Context, s core.Series, req Request) (*Report, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "runner.run", trace.WithAttributes(
		attribute.String("symbol", s.Symbol),
		attribute.String("strategy", string(req.Strategy)),
		attribute.String("mode", string(req.Mode())),
		attribute.Int("bars", s.Len()),
	))
	defer span.End()

	rep, err := r.run(ctx, s, req, start)
	duration := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.recordRun(req, "failed", duration)
		r.logger.Warn("run failed",
			zap.String("symbol", s.Symbol),
			zap.String("strategy", string(req.Strategy)),
			zap.Error(err),
		)
		return nil, err
	}

	rep.Duration = duration
	span.SetAttributes(
		attribute.String("run_id", rep.RunID),
		attribute.Int("trades", len(rep.Result.Trades)),
	)
	r.record(rep)
	r.logger.Info("run completed",
		zap.String("run_id", rep.RunID),
		zap.String("symbol", rep.Symbol),
		zap.String("strategy", string(rep.Strategy)),
		zap.String("mode", string(rep.Mode)),
		zap.Int("trades", len(rep.Result.Trades)),
		zap.String("state", string(rep.Result.State)),
		zap.Duration("duration", duration),
	)
	return rep, nil
}

func (r *Runner) run(ctx context.Context, s core.Series, req Request, start time.Time) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	strategy, err := signals.Parse(string(req.Strategy))
	if err != nil {
		return nil, err
	}

	interval := req.Interval
	if interval == "" {
		interval = s.Interval
	}

	// Binary expiration is resolved first: a window shorter than one bar
	// skips the strategy before any work is done.
	var bp backtest.BinaryParams
	if req.Binary {
		steps, err := backtest.ExpirationSteps(req.Expiration.Minutes, interval)
		if err != nil {
			return nil, err
		}
		bp = backtest.BinaryParams{
			ExpirationSteps: steps,
			Payout:          req.Expiration.Payout,
			Stake:           req.Expiration.Stake,
		}
	}

	rep := &Report{
		RunID:     uuid.NewString(),
		Symbol:    s.Symbol,
		Interval:  interval,
		Strategy:  strategy,
		Mode:      req.Mode(),
		Bars:      s.Len(),
		Request:   req,
		StartedAt: start,
	}

	_, sigSpan := r.tracer.Start(ctx, "runner.signals")
	rep.Signals = signals.Compute(s)
	sigSpan.End()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Signals[string(signals.ML)] = signals.Falses(s.Len())
	if strategy == signals.ML || req.ML.Enabled {
		horizon := req.ML.Horizon
		if req.Binary {
			horizon = bp.ExpirationSteps
		}
		res, err := r.fit(ctx, s, req.ML, horizon)
		switch {
		case errors.Is(err, core.ErrDegenerateTarget):
			rep.Warnings = append(rep.Warnings, err.Error())
			r.logger.Warn("learned signal disabled",
				zap.String("symbol", s.Symbol),
				zap.Int("horizon", horizon),
				zap.Error(err),
			)
		case err != nil && strategy == signals.ML:
			return nil, err
		case err != nil:
			// ml is not the selected strategy, so the run goes on without it
			rep.Warnings = append(rep.Warnings, err.Error())
			r.logger.Warn("learned signal failed",
				zap.String("symbol", s.Symbol),
				zap.String("strategy", string(strategy)),
				zap.Error(err),
			)
		default:
			rep.ML = res
			rep.Signals[string(signals.ML)] = res.Signal
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := rep.Signals.Column(strategy)
	if err != nil {
		return nil, err
	}

	_, simSpan := r.tracer.Start(ctx, "runner.simulate")
	if req.Binary {
		rep.Result, err = backtest.RunBinary(ctx, s, entry, rep.Signals[signals.Sell], bp)
	} else {
		rep.Result, err = backtest.RunContinuous(ctx, s, entry, req.Continuous)
	}
	simSpan.End()
	if err != nil {
		return nil, err
	}

	window, threshold := req.Levels.Window, req.Levels.ThresholdPct
	if window == 0 {
		window = 5
	}
	if threshold == 0 {
		threshold = 1
	}
	rep.Levels = levels.Detect(s, window, threshold)

	rep.SignalCounts = make(map[string]int, len(rep.Signals))
	for name := range rep.Signals {
		rep.SignalCounts[name] = rep.Signals.Count(name)
	}
	return rep, nil
}

// fit trains the learned signal, reusing an identical earlier fit.
func (r *Runner) fit(ctx context.Context, s core.Series, opts MLOptions, horizon int) (*learn.Result, error) {
	trainer, err := learn.TrainerByName(opts.Model)
	if err != nil {
		return nil, err
	}
	cfg := learn.Config{
		Features:      opts.Features,
		Horizon:       horizon,
		Threshold:     opts.Threshold,
		TrainFraction: opts.TrainFraction,
		Trainer:       trainer,
	}

	key := memoKey(s, cfg)
	if v, ok := r.memo.Get(key); ok {
		if m, ok := v.(memoEntry); ok {
			return m.res, m.err
		}
	}

	_, span := r.tracer.Start(ctx, "runner.learn", trace.WithAttributes(
		attribute.String("model", trainer.Name()),
		attribute.Int("horizon", horizon),
	))
	res, err := learn.FitAndScore(s, cfg)
	span.End()

	status := "ok"
	switch {
	case errors.Is(err, core.ErrDegenerateTarget):
		status = "degenerate"
	case err != nil:
		status = "failed"
	}
	if r.metrics != nil {
		r.metrics.RecordModelFit(trainer.Name(), status)
	}
	if err != nil && status == "failed" {
		return nil, fmt.Errorf("fitting learned signal: %w", err)
	}

	r.memo.SetDefault(key, memoEntry{res: res, err: err})
	return res, err
}

func (r *Runner) record(rep *Report) {
	r.recordRun(rep.Request, string(rep.Result.State), rep.Duration)
	if r.metrics == nil {
		return
	}
	st := rep.Result.Stats
	r.metrics.RecordTrades(string(rep.Strategy), string(rep.Mode), st.WinningTrades, st.LosingTrades)
	for name, n := range rep.SignalCounts {
		r.metrics.RecordSignals(name, n)
	}
}

func (r *Runner) recordRun(req Request, status string, d time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordRun(string(req.Strategy), string(req.Mode()), status, d.Seconds())
}
