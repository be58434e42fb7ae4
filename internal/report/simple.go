package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/phishscan/phishscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the full contribution listing in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full contribution listing.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one result in human-readable format.
func (w *SimpleWriter) Write(result *model.PredictionResult) (int, error) {
	var sb strings.Builder
	w.writeResult(&sb, result)
	return w.output.Write([]byte(sb.String()))
}

// WriteBatch outputs all results followed by a verdict summary line.
func (w *SimpleWriter) WriteBatch(results []model.PredictionResult) (int, error) {
	var sb strings.Builder

	for i := range results {
		w.writeResult(&sb, &results[i])
	}

	var phishing, legitimate, failed int
	for i := range results {
		switch {
		case results[i].Failed():
			failed++
		case results[i].Classification == model.LabelPhishing:
			phishing++
		default:
			legitimate++
		}
	}
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("TOTAL: %d scanned, %d phishing, %d legitimate, %d failed\n",
		len(results), phishing, legitimate, failed))

	return w.output.Write([]byte(sb.String()))
}

// writeResult renders one result block.
func (w *SimpleWriter) writeResult(sb *strings.Builder, result *model.PredictionResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("URL:            %s\n", result.URL))

	if result.Failed() {
		sb.WriteString(fmt.Sprintf("Status:         ERROR - %s\n", result.Error))
		sb.WriteString("\n")
		return
	}

	level := model.RiskLevelForScore(result.RiskScore)
	sb.WriteString(fmt.Sprintf("Classification: %s\n", result.Classification))
	sb.WriteString(fmt.Sprintf("Risk Score:     %.1f / 100 [%s]\n", result.RiskScore, level))
	if !result.ScannedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Scanned At:     %s\n", result.ScannedAt.Format("2006-01-02 15:04:05 MST")))
	}

	if len(result.TopContributingFeatures) > 0 {
		sb.WriteString("\nTop Contributing Features:\n")
		limit := len(result.TopContributingFeatures)
		if !w.verbose && limit > 5 {
			limit = 5
		}
		for _, c := range result.TopContributingFeatures[:limit] {
			sb.WriteString(fmt.Sprintf("  [+] %-32s %.4f\n", c.Name, c.Contribution))
		}
	}
	sb.WriteString("\n")
}
