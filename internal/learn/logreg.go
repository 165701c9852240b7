package learn

import "math"

// LogRegOptions configures gradient-descent logistic regression.
type LogRegOptions struct {
	LearningRate float64
	Epochs       int
	L2           float64
}

// DefaultLogRegOptions returns the default optimizer settings.
func DefaultLogRegOptions() LogRegOptions {
	return LogRegOptions{
		LearningRate: 0.05,
		Epochs:       600,
		L2:           0.0001,
	}
}

// LogRegTrainer trains an L2-regularized logistic regression on z-scored
// features.
type LogRegTrainer struct {
	Options LogRegOptions
}

func (LogRegTrainer) Name() string { return ModelLogReg }

// Train runs full-batch gradient descent.
func (t LogRegTrainer) Train(samples [][]float64, labels []float64, _ []string) (Classifier, error) {
	if err := validateDataset(samples, labels); err != nil {
		return nil, err
	}

	def := DefaultLogRegOptions()
	opts := t.Options
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.Epochs <= 0 {
		opts.Epochs = def.Epochs
	}
	if opts.L2 < 0 {
		opts.L2 = def.L2
	}

	nf := len(samples[0])
	n := float64(len(samples))
	means := make([]float64, nf)
	stds := make([]float64, nf)
	for j := 0; j < nf; j++ {
		for i := range samples {
			means[j] += samples[i][j]
		}
		means[j] /= n
		for i := range samples {
			d := samples[i][j] - means[j]
			stds[j] += d * d
		}
		stds[j] = math.Sqrt(stds[j] / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	x := make([][]float64, len(samples))
	for i := range samples {
		x[i] = normalize(samples[i], means, stds)
	}

	weights := make([]float64, nf)
	bias := 0.0
	grads := make([]float64, nf)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grads {
			grads[j] = 0
		}
		gradBias := 0.0
		for i := range x {
			e := sigmoid(dot(weights, x[i])+bias) - labels[i]
			for j := range grads {
				grads[j] += e * x[i][j]
			}
			gradBias += e
		}
		for j := range weights {
			weights[j] -= opts.LearningRate * (grads[j]/n + opts.L2*weights[j])
		}
		bias -= opts.LearningRate * (gradBias / n)
	}

	return &logRegModel{weights: weights, bias: bias, means: means, stds: stds}, nil
}

type logRegModel struct {
	weights []float64
	bias    float64
	means   []float64
	stds    []float64
}

func (m *logRegModel) PredictProb(sample []float64) float64 {
	if len(sample) != len(m.weights) {
		return 0.5
	}
	return sigmoid(dot(m.weights, normalize(sample, m.means, m.stds)) + m.bias)
}

func sigmoid(x float64) float64 {
	if x > 35 {
		return 1
	}
	if x < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-x))
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func normalize(in, means, stds []float64) []float64 {
	out := make([]float64, len(in))
	for i := range in {
		out[i] = (in[i] - means[i]) / stds[i]
	}
	return out
}
