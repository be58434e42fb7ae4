package classifier

import "math"

// LogisticRegression is the built-in linear classifier. It implements all
// three capabilities: hard prediction, probability scoring, and global
// feature importances (normalized absolute weights).
type LogisticRegression struct {
	// Weights holds one coefficient per feature position.
	Weights []float64 `json:"weights"`

	// Bias is the intercept term.
	Bias float64 `json:"bias"`
}

// Predict returns 1 when the phishing probability is at least 0.5.
// The boundary is inclusive to phishing, matching the scoring layer.
func (m *LogisticRegression) Predict(x []float64) int {
	if m.ProbabilityOfPositive(x) >= 0.5 {
		return 1
	}
	return 0
}

// ProbabilityOfPositive returns sigmoid(w·x + b).
// A dimension mismatch yields 0 rather than a panic; the scoring layer
// validates dimensions before calling.
func (m *LogisticRegression) ProbabilityOfPositive(x []float64) float64 {
	if len(x) != len(m.Weights) {
		return 0
	}
	z := m.Bias
	for i, w := range m.Weights {
		z += w * x[i]
	}
	return sigmoid(z)
}

// FeatureImportances returns |weight| normalized to sum to 1. For a linear
// model the coefficient magnitude is the natural global importance; the
// sign (direction) is deliberately discarded because the explainability
// ranking only orders influence.
func (m *LogisticRegression) FeatureImportances() []float64 {
	out := make([]float64, len(m.Weights))
	total := 0.0
	for i, w := range m.Weights {
		out[i] = math.Abs(w)
		total += out[i]
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// sigmoid maps a logit to (0,1) with clamping at the extremes so that huge
// magnitudes cannot produce NaN through overflow.
func sigmoid(z float64) float64 {
	switch {
	case z > 40:
		return 1
	case z < -40:
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}
