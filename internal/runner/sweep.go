package runner

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/newthinker/strategylab/internal/core"
)

// SweepResult pairs a request with its report or error.
type SweepResult struct {
	Request Request
	Report  *Report
	Err     error
}

// Sweep runs every request against the same series with at most
// parallelism runs in flight. A failing run does not stop the others;
// results keep the order of reqs.
func (r *Runner) Sweep(ctx context.Context, s core.Series, reqs []Request, parallelism int) []SweepResult {
	if parallelism < 1 {
		parallelism = 1
	}
	results := make([]SweepResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, req := range reqs {
		g.Go(func() error {
			rep, err := r.Run(ctx, s, req)
			results[i] = SweepResult{Request: req, Report: rep, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	r.logger.Info("sweep completed",
		zap.String("symbol", s.Symbol),
		zap.Int("runs", len(reqs)),
		zap.Int("failed", failed),
	)
	return results
}
