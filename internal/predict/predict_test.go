package predict

import (
	"context"
	"strings"
	"testing"

	"github.com/phishscan/phishscan/internal/classifier"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/model"
)

// hardOnly is a classifier without probability or importance capabilities.
type hardOnly struct{ label int }

func (h hardOnly) Predict(_ []float64) int { return h.label }

func testArtifacts(weights []float64, bias float64, names []string) *classifier.Artifacts {
	return &classifier.Artifacts{
		Model:        &classifier.LogisticRegression{Weights: weights, Bias: bias},
		FeatureNames: names,
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	t.Run("probability maps to one-decimal risk score", func(t *testing.T) {
		t.Parallel()
		// Zero weights and bias give p = 0.5 exactly.
		art := testArtifacts([]float64{0, 0}, 0, []string{"a", "b"})
		label, risk, _, err := Score([]float64{1, 2}, art)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if risk != 50.0 {
			t.Errorf("risk = %v, want 50.0", risk)
		}
		if label != model.LabelPhishing {
			t.Errorf("label at p=0.5 = %q, want %q (boundary inclusive to phishing)", label, model.LabelPhishing)
		}
	})

	t.Run("below boundary is legitimate", func(t *testing.T) {
		t.Parallel()
		art := testArtifacts([]float64{-2}, 0, []string{"a"})
		label, risk, _, err := Score([]float64{1}, art)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if label != model.LabelLegitimate {
			t.Errorf("label = %q, want %q", label, model.LabelLegitimate)
		}
		if risk >= 50 {
			t.Errorf("risk = %v, want < 50", risk)
		}
	})

	t.Run("dimension mismatch is an error, not a panic", func(t *testing.T) {
		t.Parallel()
		art := testArtifacts([]float64{1, 2}, 0, []string{"a", "b"})
		if _, _, _, err := Score([]float64{1}, art); err == nil {
			t.Error("Score() error = nil, want dimension mismatch")
		}
	})

	t.Run("hard-prediction-only classifier degrades to 0 or 100", func(t *testing.T) {
		t.Parallel()
		art := &classifier.Artifacts{Model: hardOnly{label: 1}, FeatureNames: []string{"a"}}
		label, risk, contributions, err := Score([]float64{1}, art)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if risk != 100.0 || label != model.LabelPhishing {
			t.Errorf("Score() = (%q, %v), want (Phishing, 100)", label, risk)
		}
		if contributions != nil {
			t.Errorf("contributions = %v, want nil without importance capability", contributions)
		}
	})

	t.Run("scaler applies to scoring but not contributions", func(t *testing.T) {
		t.Parallel()
		art := testArtifacts([]float64{1}, 0, []string{"a"})
		art.Scaler = &classifier.StandardScaler{Mean: []float64{100}, Std: []float64{1}}

		// Raw value 100 scales to 0, so p = 0.5 exactly.
		_, risk, contributions, err := Score([]float64{100}, art)
		if err != nil {
			t.Fatalf("Score() error = %v", err)
		}
		if risk != 50.0 {
			t.Errorf("risk = %v, want 50.0 from scaled input", risk)
		}
		// The contribution must reflect the raw |100|, not the scaled 0.
		if len(contributions) != 1 || contributions[0].Contribution < 99 {
			t.Errorf("contributions = %v, want raw-value contribution near 100", contributions)
		}
	})
}

func TestRankContributions(t *testing.T) {
	t.Parallel()

	t.Run("descending with name tie-break and top-ten cap", func(t *testing.T) {
		t.Parallel()
		names := make([]string, 12)
		weights := make([]float64, 12)
		values := make([]float64, 12)
		for i := range names {
			names[i] = string(rune('a' + i))
			weights[i] = 1 // equal importance: ties broken by name
			values[i] = 1
		}
		art := testArtifacts(weights, 0, names)

		got := rankContributions(values, art)
		if len(got) != 10 {
			t.Fatalf("len = %d, want 10", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].Name > got[i].Name {
				t.Errorf("tie-break order violated: %q before %q", got[i-1].Name, got[i].Name)
			}
		}
	})

	t.Run("zero-importance features are excluded", func(t *testing.T) {
		t.Parallel()
		art := testArtifacts([]float64{0, 3}, 0, []string{"dead", "live"})
		got := rankContributions([]float64{5, 5}, art)
		if len(got) != 1 || got[0].Name != "live" {
			t.Errorf("rankContributions() = %v, want only the live feature", got)
		}
	})

	t.Run("zero-valued feature with importance stays via epsilon", func(t *testing.T) {
		t.Parallel()
		art := testArtifacts([]float64{1}, 0, []string{"quiet"})
		got := rankContributions([]float64{0}, art)
		// importance 1 * (0 + 1e-6) rounds to 0 at four decimals, which is
		// not strictly positive after rounding; accept either exclusion or a
		// tiny positive value, but never a negative one.
		for _, c := range got {
			if c.Contribution < 0 {
				t.Errorf("negative contribution %v", c.Contribution)
			}
		}
	})
}

func TestPredictor_Predict(t *testing.T) {
	t.Parallel()

	t.Run("missing artifacts produce an error result", func(t *testing.T) {
		t.Parallel()
		loader := classifier.NewLoader(t.TempDir())
		p := New(loader)

		result := p.Predict(context.Background(), "https://example.com", false)
		if !result.Failed() {
			t.Fatal("Predict() without artifacts should fail")
		}
		if !strings.Contains(result.Error, "load model") {
			t.Errorf("Error = %q, want load model failure", result.Error)
		}
		if result.URL != "https://example.com" {
			t.Errorf("URL = %q, want input echoed back", result.URL)
		}
	})

	t.Run("invalid URL produces an error result", func(t *testing.T) {
		t.Parallel()
		loader := classifier.NewLoader(t.TempDir())
		p := New(loader)

		result := p.Predict(context.Background(), "", false)
		if !result.Failed() {
			t.Error("Predict() with empty URL should fail")
		}
	})

	t.Run("trained artifacts classify without fetching", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		names := feature.CanonicalNames()
		weights := make([]float64, len(names))
		weights[0] = 0.01
		lr := &classifier.LogisticRegression{Weights: weights, Bias: -1}
		if err := classifier.SaveArtifacts(dir, lr, names, nil); err != nil {
			t.Fatal(err)
		}

		loader := classifier.NewLoader(dir, classifier.WithExpectedNames(names))
		assembler := feature.NewAssembler(
			feature.WithDomainExtractor(feature.NewDomainExtractor(
				feature.DefaultWhoisTimeout, feature.DefaultDNSTimeout,
				feature.WithRegistrationLookup(feature.UnavailableLookup{}),
				feature.WithAddressLookup(feature.UnavailableLookup{}),
			)),
		)
		p := New(loader, WithAssembler(assembler))

		result := p.Predict(context.Background(), "https://example.com/login", false)
		if result.Failed() {
			t.Fatalf("Predict() error = %q", result.Error)
		}
		if result.Classification == "" {
			t.Error("Classification is empty")
		}
		if result.RiskScore < 0 || result.RiskScore > 100 {
			t.Errorf("RiskScore = %v, want within [0,100]", result.RiskScore)
		}
		if result.ScannedAt.IsZero() {
			t.Error("ScannedAt is zero")
		}
	})
}
