package learn

import (
	"fmt"

	"github.com/rmera/boo"
	"github.com/rmera/boo/utils"
)

// BoostOptions configures the gradient-boosted tree ensemble.
type BoostOptions struct {
	Rounds       int
	LearningRate float64
	MaxDepth     int
}

// DefaultBoostOptions returns conservative settings for small series.
func DefaultBoostOptions() BoostOptions {
	return BoostOptions{
		Rounds:       40,
		LearningRate: 0.08,
		MaxDepth:     4,
	}
}

// BoostTrainer trains gradient-boosted trees.
type BoostTrainer struct {
	Options BoostOptions
}

func (BoostTrainer) Name() string { return ModelBoost }

// Train fits a two-class boosted ensemble.
func (t BoostTrainer) Train(samples [][]float64, labels []float64, featureNames []string) (Classifier, error) {
	if err := validateDataset(samples, labels); err != nil {
		return nil, err
	}

	classes := make(map[int]struct{}, 2)
	intLabels := make([]int, len(labels))
	for i, v := range labels {
		if v >= 0.5 {
			intLabels[i] = 1
		}
		classes[intLabels[i]] = struct{}{}
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("boosting requires two classes")
	}

	def := DefaultBoostOptions()
	opts := t.Options
	if opts.Rounds <= 0 {
		opts.Rounds = def.Rounds
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = def.MaxDepth
	}
	if len(featureNames) != len(samples[0]) {
		featureNames = make([]string, len(samples[0]))
		for i := range featureNames {
			featureNames[i] = fmt.Sprintf("f%d", i)
		}
	}

	o := boo.DefaultXOptions()
	o.Rounds = opts.Rounds
	o.LearningRate = opts.LearningRate
	o.MaxDepth = opts.MaxDepth
	o.Verbose = false
	o.EarlyStop = 0

	model := boo.NewMultiClass(&utils.DataBunch{
		Data:   samples,
		Labels: intLabels,
		Keys:   featureNames,
	}, o)
	if model == nil {
		return nil, fmt.Errorf("failed to train boosted model")
	}
	return &boostModel{boost: model}, nil
}

type boostModel struct {
	boost *boo.MultiClass
}

func (m *boostModel) PredictProb(sample []float64) float64 {
	probs := m.boost.PredictSingle(sample)
	for i, label := range m.boost.ClassLabels() {
		if label == 1 && i < len(probs) {
			return clamp01(probs[i])
		}
	}
	if len(probs) == 0 {
		return 0.5
	}
	return clamp01(probs[len(probs)-1])
}
