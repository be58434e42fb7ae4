package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/phishscan/phishscan/internal/model"
)

func sampleResult() model.PredictionResult {
	return model.PredictionResult{
		URL:            "https://paypal-verify.secure-account.test/login",
		Classification: model.LabelPhishing,
		RiskScore:      87.5,
		TopContributingFeatures: []model.Contribution{
			{Name: "num_suspicious_keywords", Contribution: 0.4213},
			{Name: "url_length", Contribution: 0.1102},
		},
		ScannedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders classification and risk level", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		result := sampleResult()

		n, err := NewSimpleWriter(&buf).Write(&result)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("Write() returned %d bytes, buffer holds %d", n, buf.Len())
		}

		out := buf.String()
		for _, want := range []string{result.URL, "Phishing", "87.5", "CRITICAL", "num_suspicious_keywords"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("failed result renders the error only", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		result := model.NewErrorResult("https://broken.test", "invalid URL: empty input")

		if _, err := NewSimpleWriter(&buf).Write(&result); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "ERROR") || !strings.Contains(out, "invalid URL") {
			t.Errorf("output missing error status:\n%s", out)
		}
		if strings.Contains(out, "Risk Score") {
			t.Errorf("failed result should not render a risk score:\n%s", out)
		}
	})

	t.Run("batch output ends with a verdict summary", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		results := []model.PredictionResult{
			sampleResult(),
			{URL: "https://ok.test", Classification: model.LabelLegitimate, RiskScore: 2.1},
			model.NewErrorResult("https://broken.test", "boom"),
		}

		if _, err := NewSimpleWriter(&buf).WriteBatch(results); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		if !strings.Contains(buf.String(), "3 scanned, 1 phishing, 1 legitimate, 1 failed") {
			t.Errorf("batch summary missing:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("single result round-trips", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		result := sampleResult()

		if _, err := NewJSONWriter(&buf).Write(&result); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		var got model.PredictionResult
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if got.URL != result.URL || got.RiskScore != result.RiskScore {
			t.Errorf("round-trip = %+v, want %+v", got, result)
		}
	})

	t.Run("batch is a JSON array", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		results := []model.PredictionResult{sampleResult(), sampleResult()}

		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteBatch(results); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}

		var got []model.PredictionResult
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not a JSON array: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len = %d, want 2", len(got))
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("renders headings and contribution table", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		result := sampleResult()

		if _, err := NewMarkdownWriter(&buf).Write(&result); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()
		for _, want := range []string{"# PhishScan Report", result.URL, "Top Contributing Features", "num_suspicious_keywords"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("batch includes summary table", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		results := []model.PredictionResult{
			sampleResult(),
			{URL: "https://ok.test", Classification: model.LabelLegitimate, RiskScore: 2.1},
		}

		if _, err := NewMarkdownWriter(&buf).WriteBatch(results); err != nil {
			t.Fatalf("WriteBatch() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "## Summary") || !strings.Contains(out, "Phishing") {
			t.Errorf("batch summary missing:\n%s", out)
		}
	})
}

// failingWriter always errors, for MultiWriter propagation tests.
type failingWriter struct{}

func (failingWriter) Write(_ *model.PredictionResult) (int, error) {
	return 0, errors.New("write failed")
}

func (failingWriter) WriteBatch(_ []model.PredictionResult) (int, error) {
	return 0, errors.New("write failed")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all destinations", func(t *testing.T) {
		t.Parallel()
		var a, b bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
		result := sampleResult()

		if _, err := mw.Write(&result); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("one of the destinations received no output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&buf))
		result := sampleResult()

		if _, err := mw.Write(&result); err == nil {
			t.Fatal("Write() error = nil, want propagated failure")
		}
		if buf.Len() != 0 {
			t.Error("writer after the failure should not have been reached")
		}
	})
}
