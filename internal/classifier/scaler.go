package classifier

import "math"

// StandardScaler centers and scales features to zero mean and unit
// variance using statistics captured at training time. Its presence is
// optional: artifact sets without a scaler score raw feature values.
type StandardScaler struct {
	// Mean holds the per-feature training mean.
	Mean []float64 `json:"mean"`

	// Std holds the per-feature training standard deviation.
	Std []float64 `json:"std"`
}

// Transform returns (x - mean) / std per position. A zero or missing std
// leaves the centered value unscaled, so constant features cannot produce
// division by zero. Dimension mismatches return the input unchanged; the
// scoring layer validates dimensions against the feature-name artifact.
func (s *StandardScaler) Transform(x []float64) []float64 {
	if len(x) != len(s.Mean) || len(x) != len(s.Std) {
		return x
	}
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] - s.Mean[i]
		if s.Std[i] != 0 {
			out[i] /= s.Std[i]
		}
	}
	return out
}

// FitScaler computes per-feature mean and standard deviation over a
// feature matrix (rows of equal length).
func FitScaler(rows [][]float64) *StandardScaler {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return &StandardScaler{}
	}
	cols := len(rows[0])
	mean := make([]float64, cols)
	std := make([]float64, cols)

	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			mean[j] += row[j]
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			d := row[j] - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
	}
	return &StandardScaler{Mean: mean, Std: std}
}
