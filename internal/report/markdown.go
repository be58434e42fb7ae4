package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/phishscan/phishscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs one result in Markdown format.
func (w *MarkdownWriter) Write(result *model.PredictionResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PhishScan Report")
	md.PlainText("")

	w.writeResult(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteBatch outputs the results as one Markdown document with a verdict
// summary up front.
func (w *MarkdownWriter) WriteBatch(results []model.PredictionResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PhishScan Report")
	md.PlainText("")

	w.writeSummary(md, results)
	for i := range results {
		w.writeResult(md, &results[i])
	}
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeSummary writes the verdict distribution for a batch.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, results []model.PredictionResult) {
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

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Verdict", "Count"},
		Rows: [][]string{
			{"🔴 Phishing", strconv.Itoa(phishing)},
			{"🟢 Legitimate", strconv.Itoa(legitimate)},
			{"⚠️ Failed", strconv.Itoa(failed)},
			{"**Total**", "**" + strconv.Itoa(len(results)) + "**"},
		},
	})
	md.PlainText("")

	if phishing+legitimate+failed > 0 {
		w.writePieChart(md, phishing, legitimate, failed)
	}

	switch {
	case phishing > 0:
		md.Cautionf("%d URL(s) classified as phishing. Do not enter credentials on these pages.", phishing)
	case failed > 0:
		md.Warningf("%d URL(s) could not be scanned.", failed)
	default:
		md.Tip("No phishing URLs detected in this batch.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the verdict distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, phishing, legitimate, failed int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdict Distribution"),
		piechart.WithShowData(true),
	)

	if phishing > 0 {
		chart.LabelAndIntValue("Phishing", uint64(phishing))
	}
	if legitimate > 0 {
		chart.LabelAndIntValue("Legitimate", uint64(legitimate))
	}
	if failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeResult writes one result section.
func (w *MarkdownWriter) writeResult(md *markdown.Markdown, result *model.PredictionResult) {
	md.H2(result.URL)
	md.PlainText("")

	if result.Failed() {
		md.Warningf("Scan failed: %s", result.Error)
		md.PlainText("")
		return
	}

	level := model.RiskLevelForScore(result.RiskScore)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Classification", w.classificationText(result)},
			{"Risk Score", fmt.Sprintf("%.1f / 100", result.RiskScore)},
			{"Risk Level", level.String()},
			{"Scanned At", result.ScannedAt.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	if len(result.TopContributingFeatures) > 0 {
		w.writeContributions(md, result.TopContributingFeatures)
	}
}

// classificationText returns the classification with a visual indicator.
func (w *MarkdownWriter) classificationText(result *model.PredictionResult) string {
	if result.Classification == model.LabelPhishing {
		return "🔴 " + result.Classification
	}
	return "🟢 " + result.Classification
}

// writeContributions writes the ranked contribution table.
func (w *MarkdownWriter) writeContributions(md *markdown.Markdown, contributions []model.Contribution) {
	rows := make([][]string, len(contributions))
	for i, c := range contributions {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			"`" + c.Name + "`",
			strconv.FormatFloat(c.Contribution, 'f', 4, 64),
		}
	}

	md.PlainText("### Top Contributing Features")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Feature", "Contribution"},
		Rows:   rows,
	})
	md.PlainText("")
	md.Note("Contributions are a global-importance proxy, not per-sample attributions.")
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [PhishScan](https://github.com/phishscan/phishscan)*")
}
