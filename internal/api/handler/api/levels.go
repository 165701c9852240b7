package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/levels"
)

type levelsQuery struct {
	Dataset      string  `validate:"required"`
	Symbol       string  `validate:"-"`
	Interval     string  `validate:"-"`
	Window       int     `validate:"gte=2"`
	ThresholdPct float64 `validate:"gt=0"`
}

// LevelsHandler serves fractal support and resistance levels.
type LevelsHandler struct {
	datasets  Datasets
	window    int
	threshold float64
	interval  string
	validate  *validator.Validate
}

// NewLevelsHandler creates a levels handler. The window, threshold and
// interval apply when the query omits them.
func NewLevelsHandler(datasets Datasets, window int, thresholdPct float64, interval string, v *validator.Validate) *LevelsHandler {
	if v == nil {
		v = validator.New()
	}
	return &LevelsHandler{
		datasets:  datasets,
		window:    window,
		threshold: thresholdPct,
		interval:  interval,
		validate:  v,
	}
}

// Get handles GET /api/v1/levels?dataset=&window=&threshold=.
func (h *LevelsHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.parse(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	s, err := h.datasets.Load(q.Dataset, q.Symbol, q.Interval, false)
	if err != nil {
		response.Fail(w, err)
		return
	}
	lv := levels.Detect(s, q.Window, q.ThresholdPct)

	response.JSON(w, http.StatusOK, map[string]any{
		"symbol":        s.Symbol,
		"interval":      s.Interval,
		"bars":          s.Len(),
		"window":        q.Window,
		"threshold_pct": q.ThresholdPct,
		"supports":      lv.Supports,
		"resistances":   lv.Resistances,
	})
}

func (h *LevelsHandler) parse(r *http.Request) (levelsQuery, error) {
	v := r.URL.Query()
	q := levelsQuery{
		Dataset:      v.Get("dataset"),
		Symbol:       v.Get("symbol"),
		Interval:     v.Get("interval"),
		Window:       h.window,
		ThresholdPct: h.threshold,
	}
	if q.Interval == "" {
		q.Interval = h.interval
	}
	if raw := v.Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("window: %w", err))
		}
		q.Window = n
	}
	if raw := v.Get("threshold"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("threshold: %w", err))
		}
		q.ThresholdPct = f
	}
	if err := h.validate.Struct(q); err != nil {
		return q, core.WrapError(core.ErrConfigInvalid, err)
	}
	return q, nil
}
