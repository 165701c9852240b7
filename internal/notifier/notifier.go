// Package notifier announces finished backtest runs.
package notifier

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/runner"
)

// Run statuses carried by a Summary.
const (
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// Summary is the notification payload for one run.
type Summary struct {
	JobID       string    `json:"job_id,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
	Symbol      string    `json:"symbol"`
	Interval    string    `json:"interval,omitempty"`
	Strategy    string    `json:"strategy"`
	Mode        string    `json:"mode"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	State       string    `json:"state,omitempty"`
	Trades      int       `json:"trades"`
	WinRate     float64   `json:"win_rate"`
	TotalReturn float64   `json:"total_return"`
	NetBenefit  float64   `json:"net_benefit,omitempty"`
	ROI         float64   `json:"roi,omitempty"`
	Location    string    `json:"location,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// SummaryFrom condenses a completed report.
func SummaryFrom(rep *runner.Report, location string) Summary {
	s := Summary{
		RunID:      rep.RunID,
		Symbol:     rep.Symbol,
		Interval:   rep.Interval,
		Strategy:   string(rep.Strategy),
		Mode:       string(rep.Mode),
		Status:     StatusComplete,
		Location:   location,
		FinishedAt: rep.StartedAt.Add(rep.Duration),
	}
	if res := rep.Result; res != nil {
		s.State = string(res.State)
		s.Trades = res.Stats.TotalTrades
		s.WinRate = res.Stats.WinRate
		s.TotalReturn = res.Stats.TotalReturn
		if res.Mode == backtest.ModeBinary {
			s.NetBenefit = res.Stats.NetBenefit
			s.ROI = res.Stats.ROI
		}
	}
	return s
}

// FailedSummary describes a run that did not produce a report.
func FailedSummary(symbol string, req runner.Request, err error) Summary {
	return Summary{
		Symbol:     symbol,
		Interval:   req.Interval,
		Strategy:   string(req.Strategy),
		Mode:       string(req.Mode()),
		Status:     StatusFailed,
		Error:      err.Error(),
		FinishedAt: time.Now().UTC(),
	}
}

// Notifier delivers run summaries to one destination.
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Notify delivers one summary
	Notify(ctx context.Context, s Summary) error
}

// Registry fans summaries out to every registered notifier.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

// NewRegistry creates a new notifier registry
func NewRegistry() *Registry {
	return &Registry{
		notifiers: make(map[string]Notifier),
	}
}

// Register adds a notifier to the registry
func (r *Registry) Register(n Notifier) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := n.Name()
	if _, exists := r.notifiers[name]; exists {
		return fmt.Errorf("notifier %s already registered", name)
	}
	r.notifiers[name] = n
	return nil
}

// Names returns the registered notifier names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered notifiers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.notifiers)
}

// NotifyAll sends s to every notifier and returns the failures by name.
func (r *Registry) NotifyAll(ctx context.Context, s Summary) map[string]error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	errs := make(map[string]error)
	for name, n := range r.notifiers {
		if err := n.Notify(ctx, s); err != nil {
			errs[name] = err
		}
	}
	return errs
}
