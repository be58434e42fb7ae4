package classifier

// Classifier is the minimal scoring contract: a hard 0/1 prediction for a
// positionally-ordered feature vector. Label 1 means phishing.
type Classifier interface {
	// Predict returns 1 (phishing) or 0 (legitimate) for the input vector.
	Predict(x []float64) int
}

// ProbabilityScorer is the optional probability capability. Models exposing
// it produce graded risk scores; models without it degrade to 0/100.
type ProbabilityScorer interface {
	// ProbabilityOfPositive returns P(label=1) in [0,1].
	ProbabilityOfPositive(x []float64) float64
}

// ImportanceProvider is the optional explainability capability: global
// per-feature importances in the same length and order as the feature
// vector. Values are non-negative and typically sum to 1.
type ImportanceProvider interface {
	// FeatureImportances returns one importance per feature position.
	FeatureImportances() []float64
}
