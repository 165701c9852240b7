package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/newthinker/strategylab/internal/api/job"
	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/metrics"
	"github.com/newthinker/strategylab/internal/notifier"
	"github.com/newthinker/strategylab/internal/report"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

const (
	backtestTimeout = 5 * time.Minute
	backtestJob     = "backtest"
)

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Dataset  string         `json:"dataset" validate:"required"`
	Symbol   string         `json:"symbol,omitempty"`
	Interval string         `json:"interval,omitempty"`
	Strategy string         `json:"strategy" validate:"required"`
	Save     bool           `json:"save,omitempty"`
	Params   BacktestParams `json:"params"`
}

// BacktestParams override the configured defaults. Zero values keep the
// default. Percentages are given as percent.
type BacktestParams struct {
	Binary             bool      `json:"binary,omitempty"`
	StopLossPct        float64   `json:"stop_loss_pct,omitempty" validate:"omitempty,gt=0,lt=100"`
	TakeProfitPct      float64   `json:"take_profit_pct,omitempty" validate:"omitempty,gt=0"`
	Trailing           *bool     `json:"trailing,omitempty"`
	TrailingPct        float64   `json:"trailing_pct,omitempty" validate:"omitempty,gt=0,lt=100"`
	ExpirationMinutes  int       `json:"expiration_minutes,omitempty" validate:"omitempty,gt=0"`
	PayoutPct          float64   `json:"payout_pct,omitempty" validate:"omitempty,gt=0"`
	Stake              float64   `json:"stake,omitempty" validate:"omitempty,gt=0"`
	ML                 *MLParams `json:"ml,omitempty"`
	LevelsWindow       int       `json:"levels_window,omitempty" validate:"omitempty,gte=2"`
	LevelsThresholdPct float64   `json:"levels_threshold_pct,omitempty" validate:"omitempty,gt=0"`
}

// MLParams override the learned-signal defaults.
type MLParams struct {
	Enabled       bool     `json:"enabled,omitempty"`
	Model         string   `json:"model,omitempty" validate:"omitempty,oneof=boost logreg"`
	Features      []string `json:"features,omitempty" validate:"omitempty,dive,required"`
	Horizon       int      `json:"horizon,omitempty" validate:"omitempty,gte=1"`
	Threshold     float64  `json:"threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	TrainFraction float64  `json:"train_fraction,omitempty" validate:"omitempty,gt=0,lt=1"`
}

// BacktestResult is stored on a completed job.
type BacktestResult struct {
	Report   *runner.Report `json:"report"`
	Location string         `json:"location,omitempty"`
}

// apply overlays the non-zero parameters onto req.
func (p BacktestParams) apply(req *runner.Request) {
	req.Binary = p.Binary
	if p.StopLossPct > 0 {
		req.Continuous.StopLoss = p.StopLossPct / 100
	}
	if p.TakeProfitPct > 0 {
		req.Continuous.TakeProfit = p.TakeProfitPct / 100
	}
	if p.Trailing != nil {
		req.Continuous.TrailingEnabled = *p.Trailing
	}
	if p.TrailingPct > 0 {
		req.Continuous.TrailingStop = p.TrailingPct / 100
	}
	if p.ExpirationMinutes > 0 {
		req.Expiration.Minutes = p.ExpirationMinutes
	}
	if p.PayoutPct > 0 {
		req.Expiration.Payout = p.PayoutPct / 100
	}
	if p.Stake > 0 {
		req.Expiration.Stake = p.Stake
	}
	if p.LevelsWindow > 0 {
		req.Levels.Window = p.LevelsWindow
	}
	if p.LevelsThresholdPct > 0 {
		req.Levels.ThresholdPct = p.LevelsThresholdPct
	}
	if ml := p.ML; ml != nil {
		req.ML.Enabled = ml.Enabled
		if ml.Model != "" {
			req.ML.Model = ml.Model
		}
		if len(ml.Features) > 0 {
			req.ML.Features = ml.Features
		}
		if ml.Horizon > 0 {
			req.ML.Horizon = ml.Horizon
		}
		if ml.Threshold > 0 {
			req.ML.Threshold = ml.Threshold
		}
		if ml.TrainFraction > 0 {
			req.ML.TrainFraction = ml.TrainFraction
		}
	}
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobs     *job.Store
	runner   *runner.Runner
	datasets Datasets
	reports  report.Store
	defaults runner.Request
	validate *validator.Validate
	metrics  *metrics.Registry
	notify   *notifier.Registry
	logger   *zap.Logger
	wg       sync.WaitGroup
}

// BacktestDeps are the collaborators of a BacktestHandler. Reports,
// Metrics and Notifier may be nil.
type BacktestDeps struct {
	Jobs     *job.Store
	Runner   *runner.Runner
	Datasets Datasets
	Reports  report.Store
	Defaults runner.Request
	Validate *validator.Validate
	Metrics  *metrics.Registry
	Notifier *notifier.Registry
	Logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(deps BacktestDeps) *BacktestHandler {
	h := &BacktestHandler{
		jobs:     deps.Jobs,
		runner:   deps.Runner,
		datasets: deps.Datasets,
		reports:  deps.Reports,
		defaults: deps.Defaults,
		validate: deps.Validate,
		metrics:  deps.Metrics,
		notify:   deps.Notifier,
		logger:   deps.Logger,
	}
	if h.validate == nil {
		h.validate = validator.New()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Create validates the request, loads the dataset and starts the run in the
// background. It answers 202 with the job ID.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Fail(w, core.WrapError(core.ErrConfigInvalid, err))
		return
	}
	if err := h.validate.Struct(body); err != nil {
		response.Fail(w, core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	req, err := h.request(body)
	if err != nil {
		response.Fail(w, err)
		return
	}

	s, err := h.datasets.Load(body.Dataset, body.Symbol, req.Interval, true)
	if err != nil {
		response.Fail(w, err)
		return
	}

	j := h.jobs.Create(backtestJob)
	h.reportActive()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.runBacktest(j.ID, s, req, body.Save)
	}()

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// request merges the body onto the defaults and rejects settings that
// would fail before any work is done.
func (h *BacktestHandler) request(body BacktestRequest) (runner.Request, error) {
	req := h.defaults
	strategy, err := signals.Parse(body.Strategy)
	if err != nil {
		return req, err
	}
	req.Strategy = strategy
	if body.Interval != "" {
		req.Interval = body.Interval
	}
	if _, err := core.IntervalMinutes(req.Interval); err != nil {
		return req, err
	}
	body.Params.apply(&req)

	if req.Binary {
		if _, err := backtest.ExpirationSteps(req.Expiration.Minutes, req.Interval); err != nil {
			return req, err
		}
	}
	return req, nil
}

// runBacktest executes the run and updates job status.
func (h *BacktestHandler) runBacktest(jobID string, s core.Series, req runner.Request, save bool) {
	defer h.reportActive()

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	rep, err := h.runner.Run(ctx, s, req)
	if err != nil {
		h.logger.Warn("backtest job failed", zap.String("job_id", jobID), zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = asCoreError(err)
		})
		h.announce(ctx, jobID, notifier.FailedSummary(s.Symbol, req, err))
		return
	}

	result := BacktestResult{Report: rep}
	if save && h.reports != nil {
		dir, err := report.Save(ctx, h.reports, rep)
		if err != nil {
			h.logger.Error("saving report", zap.String("job_id", jobID), zap.Error(err))
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("report not saved: %v", err))
		} else {
			result.Location = dir
		}
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = result
	})
	h.announce(ctx, jobID, notifier.SummaryFrom(rep, result.Location))
}

// announce sends the summary to every configured notifier. Delivery
// failures are logged and never fail the job.
func (h *BacktestHandler) announce(ctx context.Context, jobID string, s notifier.Summary) {
	if h.notify == nil || h.notify.Len() == 0 {
		return
	}
	s.JobID = jobID
	for name, err := range h.notify.NotifyAll(ctx, s) {
		h.logger.Warn("notification failed",
			zap.String("job_id", jobID),
			zap.String("notifier", name),
			zap.Error(err),
		)
	}
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

// List returns every tracked backtest job without results.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	out := []map[string]any{}
	for _, j := range h.jobs.List() {
		if j.Type != backtestJob {
			continue
		}
		out = append(out, map[string]any{
			"job_id":     j.ID,
			"status":     j.Status,
			"created_at": j.CreatedAt,
		})
	}
	response.JSON(w, http.StatusOK, out)
}

// Wait blocks until every started run has finished or ctx is done.
func (h *BacktestHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *BacktestHandler) reportActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(backtestJob, h.jobs.Active(backtestJob))
	}
}

func asCoreError(err error) *core.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr
	}
	return core.WrapError(core.ErrRunFailed, err)
}
