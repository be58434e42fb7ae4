package model

import "time"

// Classification labels assigned to a scored URL.
const (
	// LabelPhishing is assigned when the phishing probability is >= 0.5.
	// The boundary is inclusive to phishing: a coin-flip URL is treated as
	// hostile rather than benign.
	LabelPhishing = "Phishing"

	// LabelLegitimate is assigned when the phishing probability is < 0.5.
	LabelLegitimate = "Legitimate"
)

// Contribution is one entry of the per-prediction explanation: a feature
// name paired with its (approximate) contribution to the risk score.
//
// The contribution is a proxy computed from global feature importance and
// the feature's value for this sample. It is not a calibrated per-sample
// attribution and must not be presented as one.
type Contribution struct {
	// Name is the canonical feature name.
	Name string `json:"name"`

	// Contribution is the proxy value; larger means more influential.
	Contribution float64 `json:"contribution"`
}

// PredictionResult is the outcome of classifying a single URL.
// It is created per prediction request and never persisted by the scoring
// layer itself; the history store keeps its own record.
type PredictionResult struct {
	// URL is the input exactly as the caller provided it.
	URL string `json:"url"`

	// Classification is LabelPhishing or LabelLegitimate, or empty when
	// Error is set.
	Classification string `json:"classification"`

	// RiskScore is the phishing probability scaled to 0-100 and rounded
	// to one decimal place.
	RiskScore float64 `json:"risk_score"`

	// TopContributingFeatures lists up to ten features ranked by their
	// contribution proxy, highest first. Only strictly positive
	// contributions appear. Empty when the classifier does not expose
	// global importances.
	TopContributingFeatures []Contribution `json:"top_contributing_features"`

	// Error holds a human-readable failure description. When set, all
	// other fields except URL are zero values. The serving layer never
	// sees an unhandled fault from the scoring path; it sees this field.
	Error string `json:"error,omitempty"`

	// ScannedAt is the timestamp when the prediction was produced.
	ScannedAt time.Time `json:"scanned_at"`
}

// Failed reports whether the prediction carries an error instead of a
// classification.
func (r *PredictionResult) Failed() bool {
	return r.Error != ""
}

// NewErrorResult builds a PredictionResult that carries only the input URL
// and a failure description.
func NewErrorResult(url, errMsg string) PredictionResult {
	return PredictionResult{
		URL:       url,
		Error:     errMsg,
		ScannedAt: time.Now(),
	}
}

// Row is one training-side input record: a URL and its ground-truth label.
// Label 1 means phishing, 0 means legitimate. This is the only dataset
// shape the pipeline accepts at its boundary.
type Row struct {
	// URL is the raw URL string from the dataset.
	URL string

	// Label is 1 for phishing, 0 for legitimate.
	Label int
}
