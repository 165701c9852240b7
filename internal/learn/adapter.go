package learn

import (
	"fmt"
	"math"

	"github.com/newthinker/strategylab/internal/core"
)

// DefaultFeatures are the indicator columns fed to the classifier when the
// caller does not choose any.
var DefaultFeatures = []string{
	core.ColRSI,
	core.ColMACD,
	core.ColMACDSignal,
	core.ColMACDHist,
	core.ColStochK,
	core.ColStochD,
	core.ColATR,
	core.FieldVolume,
}

const (
	defaultTrainFraction = 0.8
	accuracyCutoff       = 0.5
)

// Config controls one fit.
type Config struct {
	Features      []string
	Horizon       int
	Threshold     float64
	TrainFraction float64
	Trainer       Trainer
}

// Result is the learned signal aligned with the series.
type Result struct {
	Signal        []bool    `json:"-"`
	Probabilities []float64 `json:"-"`
	TestAccuracy  float64   `json:"test_accuracy"`
	TrainRows     int       `json:"train_rows"`
	TestRows      int       `json:"test_rows"`
	Features      []string  `json:"features"`
	Model         string    `json:"model"`
	Horizon       int       `json:"horizon"`
	Threshold     float64   `json:"threshold"`
}

// Count returns the number of bars flagged by the learned signal.
func (r *Result) Count() int {
	n := 0
	for _, v := range r.Signal {
		if v {
			n++
		}
	}
	return n
}

type dataset struct {
	rows    []int // series positions of eligible rows
	samples [][]float64
	labels  []float64
}

func (d dataset) classes() int {
	var pos, neg bool
	for _, l := range d.labels {
		if l == 1 {
			pos = true
		} else {
			neg = true
		}
	}
	switch {
	case pos && neg:
		return 2
	case pos || neg:
		return 1
	}
	return 0
}

// buildDataset keeps rows where every feature is available and the bar
// horizon steps ahead exists. The label is close[i+h] > close[i].
func buildDataset(s core.Series, features []string, horizon int) dataset {
	var d dataset
	for i, b := range s.Bars {
		ahead, ok := s.Ahead(i, horizon)
		if !ok {
			break
		}
		x, ok := b.Values(features...)
		if !ok {
			continue
		}
		label := 0.0
		if ahead.Close > b.Close {
			label = 1
		}
		d.rows = append(d.rows, i)
		d.samples = append(d.samples, x)
		d.labels = append(d.labels, label)
	}
	return d
}

// FitAndScore trains on the chronological head of the eligible rows, scores
// every eligible row and thresholds the probabilities into a signal.
// Unscored bars carry a false signal and a NaN probability.
func FitAndScore(s core.Series, cfg Config) (*Result, error) {
	if cfg.Horizon < 1 {
		return nil, core.WrapError(core.ErrInsufficientHorizon, fmt.Errorf("horizon %d", cfg.Horizon))
	}
	features := cfg.Features
	if len(features) == 0 {
		features = DefaultFeatures
	}
	frac := cfg.TrainFraction
	if frac <= 0 || frac >= 1 {
		frac = defaultTrainFraction
	}
	trainer := cfg.Trainer
	if trainer == nil {
		trainer = BoostTrainer{Options: DefaultBoostOptions()}
	}

	d := buildDataset(s, features, cfg.Horizon)
	if d.classes() < 2 {
		return nil, core.WrapError(core.ErrDegenerateTarget, fmt.Errorf("%d eligible rows", len(d.rows)))
	}

	split := int(float64(len(d.rows)) * frac)
	train := dataset{rows: d.rows[:split], samples: d.samples[:split], labels: d.labels[:split]}
	if train.classes() < 2 {
		return nil, core.WrapError(core.ErrDegenerateTarget, fmt.Errorf("training segment of %d rows is single-class", split))
	}

	model, err := trainer.Train(train.samples, train.labels, features)
	if err != nil {
		return nil, fmt.Errorf("training %s: %w", trainer.Name(), err)
	}

	res := &Result{
		Signal:        make([]bool, s.Len()),
		Probabilities: make([]float64, s.Len()),
		TrainRows:     split,
		TestRows:      len(d.rows) - split,
		Features:      append([]string(nil), features...),
		Model:         trainer.Name(),
		Horizon:       cfg.Horizon,
		Threshold:     cfg.Threshold,
	}
	for i := range res.Probabilities {
		res.Probabilities[i] = math.NaN()
	}

	correct := 0
	for k, pos := range d.rows {
		p := model.PredictProb(d.samples[k])
		res.Probabilities[pos] = p
		res.Signal[pos] = p >= cfg.Threshold
		if k >= split && (p >= accuracyCutoff) == (d.labels[k] == 1) {
			correct++
		}
	}
	if res.TestRows > 0 {
		res.TestAccuracy = float64(correct) / float64(res.TestRows)
	}
	return res, nil
}
