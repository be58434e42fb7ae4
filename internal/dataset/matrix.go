package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Matrix errors.
var (
	// ErrBadFeatureHeader is returned when a feature matrix header does not
	// carry the expected columns in the expected order.
	ErrBadFeatureHeader = errors.New("feature matrix header does not match the expected feature order")
)

// FeatureMatrix is a precomputed feature matrix as written by the extract
// command: one row per URL, values in canonical feature order, labels
// attached.
type FeatureMatrix struct {
	// URLs holds the input URL of each row.
	URLs []string

	// Rows holds the feature values, one slice per URL.
	Rows [][]float64

	// Labels holds the ground-truth label of each row.
	Labels []int
}

// LoadFeatureCSV reads a precomputed feature matrix from path. The header
// must be exactly: url, the expected feature names in order, label. Unlike
// the raw dataset loader this one is strict: a matrix with reordered or
// renamed columns was produced against a different feature contract and
// training on it would silently misalign every weight.
func LoadFeatureCSV(path string, expectedNames []string) (*FeatureMatrix, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided matrix path is intentional
	if err != nil {
		return nil, fmt.Errorf("open feature matrix: %w", err)
	}
	defer f.Close()
	return LoadFeatures(f, expectedNames)
}

// LoadFeatures reads a precomputed feature matrix from r. See LoadFeatureCSV
// for the header rules.
func LoadFeatures(r io.Reader, expectedNames []string) (*FeatureMatrix, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read feature matrix header: %w", err)
	}
	if err := verifyFeatureHeader(header, expectedNames); err != nil {
		return nil, err
	}

	m := &FeatureMatrix{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read feature matrix row: %w", err)
		}

		row := make([]float64, len(expectedNames))
		ok := true
		for i := range expectedNames {
			row[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		label, ok := parseLabel(record[len(record)-1])
		if !ok {
			continue
		}

		m.URLs = append(m.URLs, strings.TrimSpace(record[0]))
		m.Rows = append(m.Rows, row)
		m.Labels = append(m.Labels, label)
	}

	if len(m.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return m, nil
}

// verifyFeatureHeader checks the url column, the feature columns position by
// position, and the trailing label column.
func verifyFeatureHeader(header, expectedNames []string) error {
	if len(header) != len(expectedNames)+2 {
		return fmt.Errorf("%w: got %d columns, want %d", ErrBadFeatureHeader, len(header), len(expectedNames)+2)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "url") {
		return fmt.Errorf("%w: first column is %q, want \"url\"", ErrBadFeatureHeader, header[0])
	}
	for i, want := range expectedNames {
		if got := strings.TrimSpace(header[i+1]); got != want {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrBadFeatureHeader, i+1, got, want)
		}
	}
	if !strings.EqualFold(strings.TrimSpace(header[len(header)-1]), "label") {
		return fmt.Errorf("%w: last column is %q, want \"label\"", ErrBadFeatureHeader, header[len(header)-1])
	}
	return nil
}
