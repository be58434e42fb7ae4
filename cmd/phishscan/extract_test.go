package main

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/phishscan/phishscan/internal/feature"
)

// TestWriteFeatureCSV tests the CSV output of the extract command.
func TestWriteFeatureCSV(t *testing.T) {
	t.Parallel()

	names := feature.CanonicalNames()

	makeRow := func(url string, label int) feature.LabeledVector {
		vec := feature.NewVector()
		for i, name := range names {
			vec.Set(name, float64(i))
		}
		return feature.LabeledVector{URL: url, Vector: vec, Label: label}
	}

	t.Run("writes header and rows without labels", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rows := []feature.LabeledVector{makeRow("https://example.com", 0)}
		if err := writeFeatureCSV(&buf, rows, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected header + 1 row, got %d records", len(records))
		}

		header := records[0]
		if header[0] != "url" {
			t.Errorf("expected first column 'url', got %q", header[0])
		}
		if len(header) != 1+len(names) {
			t.Errorf("expected %d columns, got %d", 1+len(names), len(header))
		}
		for i, name := range names {
			if header[i+1] != name {
				t.Errorf("expected column %d to be %q, got %q", i+1, name, header[i+1])
			}
		}
		if records[1][0] != "https://example.com" {
			t.Errorf("expected URL in first column, got %q", records[1][0])
		}
	})

	t.Run("appends label column when labels present", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		rows := []feature.LabeledVector{
			makeRow("https://phish.example", 1),
			makeRow("https://ok.example", 0),
		}
		if err := writeFeatureCSV(&buf, rows, true); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected header + 2 rows, got %d records", len(records))
		}

		header := records[0]
		if header[len(header)-1] != "label" {
			t.Errorf("expected trailing 'label' column, got %q", header[len(header)-1])
		}
		if got := records[1][len(header)-1]; got != "1" {
			t.Errorf("expected label '1', got %q", got)
		}
		if got := records[2][len(header)-1]; got != "0" {
			t.Errorf("expected label '0', got %q", got)
		}
	})

	t.Run("values use plain decimal formatting", func(t *testing.T) {
		t.Parallel()

		vec := feature.NewVector()
		vec.Set(names[0], 0.125)
		rows := []feature.LabeledVector{{URL: "https://example.com", Vector: vec}}

		var buf bytes.Buffer
		if err := writeFeatureCSV(&buf, rows, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if got := records[1][1]; got != "0.125" {
			t.Errorf("expected '0.125', got %q", got)
		}
	})
}

// TestNewExtractCmd tests the extract command creation.
func TestNewExtractCmd(t *testing.T) {
	t.Parallel()

	cmd := NewExtractCmd()

	if cmd.Use != "extract [url...]" {
		t.Errorf("expected use 'extract [url...]', got %q", cmd.Use)
	}
	for _, name := range []string{"dataset", "fetch", "skip-lookups", "batch", "output"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %q flag", name)
		}
	}
}
