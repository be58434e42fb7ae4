package classifier

// Metrics summarizes binary-classification quality on a labeled set.
// Phishing (label 1) is the positive class throughout.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	TruePositives  int `json:"true_positives"`
	TrueNegatives  int `json:"true_negatives"`
	FalsePositives int `json:"false_positives"`
	FalseNegatives int `json:"false_negatives"`
}

// Evaluate runs the model over labeled rows and computes the confusion
// matrix and derived metrics. Undefined ratios (empty denominators) are
// reported as 0 rather than NaN.
func Evaluate(model Classifier, rows [][]float64, labels []int) Metrics {
	var m Metrics
	for i, x := range rows {
		if i >= len(labels) {
			break
		}
		pred := model.Predict(x)
		switch {
		case pred == 1 && labels[i] == 1:
			m.TruePositives++
		case pred == 0 && labels[i] == 0:
			m.TrueNegatives++
		case pred == 1 && labels[i] == 0:
			m.FalsePositives++
		default:
			m.FalseNegatives++
		}
	}

	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		m.Accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		m.Precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		m.Recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

// Score is the model-selection criterion: recall-weighted because a missed
// phishing page costs far more than a false alarm.
func (m Metrics) Score() float64 {
	return 0.4*m.Accuracy + 0.6*m.Recall
}
