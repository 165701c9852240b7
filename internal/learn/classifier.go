// Package learn turns indicator features into a boolean entry signal by
// training a classifier on a forward-looking price target.
package learn

import (
	"fmt"
	"math"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
)

// Classifier scores the probability that a sample belongs to the positive
// class.
type Classifier interface {
	PredictProb(sample []float64) float64
}

// Trainer fits a Classifier. Labels are 0 or 1.
type Trainer interface {
	Name() string
	Train(samples [][]float64, labels []float64, featureNames []string) (Classifier, error)
}

// Model names accepted by TrainerByName.
const (
	ModelBoost  = "boost"
	ModelLogReg = "logreg"
)

// TrainerByName returns the trainer for a model name with default options.
func TrainerByName(name string) (Trainer, error) {
	switch strings.ToLower(name) {
	case "", ModelBoost:
		return BoostTrainer{Options: DefaultBoostOptions()}, nil
	case ModelLogReg:
		return LogRegTrainer{Options: DefaultLogRegOptions()}, nil
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown model %q", name))
	}
}

func validateDataset(samples [][]float64, labels []float64) error {
	if len(samples) == 0 || len(samples) != len(labels) {
		return fmt.Errorf("invalid training dataset: %d samples, %d labels", len(samples), len(labels))
	}
	if len(samples[0]) == 0 {
		return fmt.Errorf("empty feature vectors")
	}
	return nil
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0.5
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
