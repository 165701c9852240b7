package api

import (
	"net/http"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/report"
)

// RunsHandler serves saved run reports.
type RunsHandler struct {
	store report.Store
}

// NewRunsHandler creates a handler over the report store.
func NewRunsHandler(store report.Store) *RunsHandler {
	return &RunsHandler{store: store}
}

// List handles GET /api/v1/runs/{symbol}.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	ids, err := report.ListRuns(r.Context(), h.store, symbol)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"symbol": symbol,
		"runs":   ids,
	})
}

// Get handles GET /api/v1/runs/{symbol}/{id}.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	rep, err := report.Load(r.Context(), h.store, r.PathValue("symbol"), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, rep)
}
