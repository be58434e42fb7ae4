// Package dataset loads labeled URL datasets from CSV files.
//
// Real-world phishing datasets disagree on column names and label
// encodings, so the loader is deliberately tolerant: it recognizes several
// common header aliases and label spellings, and it skips unusable rows
// instead of failing the whole file.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phishscan/phishscan/internal/model"
)

// Loading errors.
var (
	// ErrNoURLColumn is returned when no recognized URL column is present.
	ErrNoURLColumn = errors.New("dataset has no recognized URL column")

	// ErrNoLabelColumn is returned when no recognized label column is
	// present and labels were required.
	ErrNoLabelColumn = errors.New("dataset has no recognized label column")

	// ErrEmptyDataset is returned when no usable rows survive loading.
	ErrEmptyDataset = errors.New("dataset contains no usable rows")
)

// urlAliases and labelAliases are the recognized header names, compared
// case-insensitively after trimming.
var (
	urlAliases   = []string{"url", "website", "link"}
	labelAliases = []string{"label", "result", "class", "target", "status", "type"}
)

// phishingLabels and legitimateLabels map the label spellings seen in
// public datasets onto 1 and 0.
var (
	phishingLabels   = map[string]bool{"phishing": true, "bad": true, "malicious": true, "1": true}
	legitimateLabels = map[string]bool{"legitimate": true, "good": true, "benign": true, "0": true}
)

// LoadCSV reads a labeled dataset from path. The first row must be a
// header. Rows with an empty URL or an unrecognized label are skipped;
// a file that yields zero usable rows returns ErrEmptyDataset.
func LoadCSV(path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a labeled dataset from r. See LoadCSV for the row rules.
func Load(r io.Reader) ([]model.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // tolerate ragged rows; they are skipped below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	urlIdx := findColumn(header, urlAliases)
	if urlIdx < 0 {
		return nil, fmt.Errorf("%w: header %v", ErrNoURLColumn, header)
	}
	labelIdx := findColumn(header, labelAliases)
	if labelIdx < 0 {
		return nil, fmt.Errorf("%w: header %v", ErrNoLabelColumn, header)
	}

	var rows []model.Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A single malformed line must not discard the rest of the file.
			continue
		}
		if urlIdx >= len(record) || labelIdx >= len(record) {
			continue
		}

		rawURL := strings.TrimSpace(record[urlIdx])
		if rawURL == "" {
			continue
		}
		label, ok := parseLabel(record[labelIdx])
		if !ok {
			continue
		}
		rows = append(rows, model.Row{URL: rawURL, Label: label})
	}

	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return rows, nil
}

// findColumn returns the index of the first header cell matching any alias,
// or -1.
func findColumn(header []string, aliases []string) int {
	for i, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, alias := range aliases {
			if name == alias {
				return i
			}
		}
	}
	return -1
}

// parseLabel maps a raw label cell onto 1 (phishing) or 0 (legitimate).
// The "-1" spelling means legitimate in datasets that encode phishing as 1
// and legitimate as -1.
func parseLabel(raw string) (int, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case phishingLabels[v]:
		return 1, true
	case legitimateLabels[v] || v == "-1":
		return 0, true
	}
	return 0, false
}
