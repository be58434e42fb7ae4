package classifier

import (
	"fmt"
	"math"
)

// TrainOptions controls gradient-descent training for the logistic model.
// Zero values are replaced with the defaults documented per field.
type TrainOptions struct {
	// Epochs is the number of full passes over the training set.
	// Default 300.
	Epochs int

	// LearningRate is the gradient step size. Default 0.1.
	LearningRate float64

	// L2 is the ridge penalty applied to weights (not the bias).
	// Default 0.001.
	L2 float64

	// BalanceClasses weights each example inversely to its class frequency
	// so a legitimate-heavy dataset cannot train a model that never flags
	// phishing. Default true via NewTrainOptions.
	BalanceClasses bool
}

// NewTrainOptions returns the default training configuration.
func NewTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:         300,
		LearningRate:   0.1,
		L2:             0.001,
		BalanceClasses: true,
	}
}

func (o *TrainOptions) fillDefaults() {
	def := NewTrainOptions()
	if o.Epochs <= 0 {
		o.Epochs = def.Epochs
	}
	if o.LearningRate <= 0 {
		o.LearningRate = def.LearningRate
	}
	if o.L2 < 0 {
		o.L2 = def.L2
	}
}

// Train fits a logistic-regression model with batch gradient descent.
// Inputs are standardized with a freshly fitted scaler; the returned scaler
// must be persisted alongside the model so serving applies the same
// transform. Labels are 0 (legitimate) or 1 (phishing).
//
// Both classes must be present: a single-class dataset returns
// ErrEmptyTrainingSet because the resulting decision boundary would be
// degenerate.
func Train(rows [][]float64, labels []int, opts TrainOptions) (*LogisticRegression, *StandardScaler, error) {
	if len(rows) == 0 || len(rows) != len(labels) {
		return nil, nil, fmt.Errorf("%w: %d rows, %d labels", ErrEmptyTrainingSet, len(rows), len(labels))
	}
	dims := len(rows[0])
	if dims == 0 {
		return nil, nil, fmt.Errorf("%w: zero-width feature rows", ErrEmptyTrainingSet)
	}
	for i, row := range rows {
		if len(row) != dims {
			return nil, nil, fmt.Errorf("%w: row %d has %d features, expected %d",
				ErrDimensionMismatch, i, len(row), dims)
		}
	}

	positives := 0
	for _, y := range labels {
		if y == 1 {
			positives++
		}
	}
	if positives == 0 || positives == len(labels) {
		return nil, nil, fmt.Errorf("%w: %d positive of %d rows", ErrEmptyTrainingSet, positives, len(labels))
	}

	opts.fillDefaults()

	scaler := FitScaler(rows)
	scaled := make([][]float64, len(rows))
	for i, row := range rows {
		scaled[i] = scaler.Transform(row)
	}

	// Per-example weights: n / (2 * class_count) when balancing, so the two
	// classes contribute equally to the gradient regardless of skew.
	n := float64(len(rows))
	posWeight, negWeight := 1.0, 1.0
	if opts.BalanceClasses {
		posWeight = n / (2 * float64(positives))
		negWeight = n / (2 * float64(len(labels)-positives))
	}

	weights := make([]float64, dims)
	bias := 0.0
	grad := make([]float64, dims)

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0

		for i, x := range scaled {
			z := bias
			for j, w := range weights {
				z += w * x[j]
			}
			p := sigmoid(z)

			ew := negWeight
			if labels[i] == 1 {
				ew = posWeight
			}
			residual := ew * (p - float64(labels[i]))

			for j := range grad {
				grad[j] += residual * x[j]
			}
			gradBias += residual
		}

		for j := range weights {
			weights[j] -= opts.LearningRate * (grad[j]/n + opts.L2*weights[j])
		}
		bias -= opts.LearningRate * gradBias / n
	}

	for j, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, nil, fmt.Errorf("training diverged at weight %d; lower the learning rate", j)
		}
	}

	return &LogisticRegression{Weights: weights, Bias: bias}, scaler, nil
}
