package dataset

import (
	"errors"
	"strings"
	"testing"
)

// TestLoadFeatures tests precomputed feature matrix loading.
func TestLoadFeatures(t *testing.T) {
	t.Parallel()

	names := []string{"f_a", "f_b", "f_c"}

	t.Run("loads rows in order", func(t *testing.T) {
		t.Parallel()

		csvData := "url,f_a,f_b,f_c,label\n" +
			"https://phish.example,1,0.5,3,phishing\n" +
			"https://ok.example,0,0.25,1,legitimate\n"

		m, err := LoadFeatures(strings.NewReader(csvData), names)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m.Rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(m.Rows))
		}
		if m.URLs[0] != "https://phish.example" {
			t.Errorf("expected first URL preserved, got %q", m.URLs[0])
		}
		if m.Rows[0][1] != 0.5 || m.Rows[1][2] != 1 {
			t.Errorf("unexpected values: %v", m.Rows)
		}
		if m.Labels[0] != 1 || m.Labels[1] != 0 {
			t.Errorf("expected labels [1 0], got %v", m.Labels)
		}
	})

	t.Run("rejects reordered columns", func(t *testing.T) {
		t.Parallel()

		csvData := "url,f_b,f_a,f_c,label\nhttps://x.example,1,2,3,1\n"
		_, err := LoadFeatures(strings.NewReader(csvData), names)
		if !errors.Is(err, ErrBadFeatureHeader) {
			t.Errorf("expected ErrBadFeatureHeader, got %v", err)
		}
	})

	t.Run("rejects missing label column", func(t *testing.T) {
		t.Parallel()

		csvData := "url,f_a,f_b,f_c\nhttps://x.example,1,2,3\n"
		_, err := LoadFeatures(strings.NewReader(csvData), names)
		if !errors.Is(err, ErrBadFeatureHeader) {
			t.Errorf("expected ErrBadFeatureHeader, got %v", err)
		}
	})

	t.Run("skips rows with non-numeric values", func(t *testing.T) {
		t.Parallel()

		csvData := "url,f_a,f_b,f_c,label\n" +
			"https://bad.example,one,2,3,1\n" +
			"https://ok.example,1,2,3,0\n"

		m, err := LoadFeatures(strings.NewReader(csvData), names)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(m.Rows) != 1 || m.URLs[0] != "https://ok.example" {
			t.Errorf("expected only the numeric row to survive, got %v", m.URLs)
		}
	})

	t.Run("empty file returns ErrEmptyDataset", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadFeatures(strings.NewReader(""), names); !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("expected ErrEmptyDataset, got %v", err)
		}
	})

	t.Run("header-only file returns ErrEmptyDataset", func(t *testing.T) {
		t.Parallel()

		csvData := "url,f_a,f_b,f_c,label\n"
		if _, err := LoadFeatures(strings.NewReader(csvData), names); !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("expected ErrEmptyDataset, got %v", err)
		}
	})
}
