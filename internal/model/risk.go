package model

// RiskLevel buckets a 0-100 risk score for human-facing output.
// Reports and the history listing use it to color and sort results; the
// classifier itself only ever deals in raw probabilities.
//
// Design decision: We use iota-based constants rather than string constants
// for efficient comparison and sorting. The String() method provides
// human-readable output when needed.
type RiskLevel int

const (
	// RiskLow covers scores below 25: the URL shows few or no phishing
	// signals.
	RiskLow RiskLevel = iota

	// RiskMedium covers scores from 25 up to 50: some signals present but
	// the classifier still leans legitimate.
	RiskMedium

	// RiskHigh covers scores from 50 up to 75: classified as phishing with
	// moderate confidence.
	RiskHigh

	// RiskCritical covers scores of 75 and above: strong phishing signals
	// across multiple feature groups.
	RiskCritical
)

// String returns a human-readable representation of the risk level.
func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// RiskLevelForScore maps a 0-100 risk score to its bucket.
// Scores outside the range are clamped into the nearest bucket so that a
// malformed score can never produce an out-of-range level.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score < 25:
		return RiskLow
	case score < 50:
		return RiskMedium
	case score < 75:
		return RiskHigh
	default:
		return RiskCritical
	}
}
