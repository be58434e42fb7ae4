package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/dataset"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/log"
)

// NewExtractCmd creates the extract command.
func NewExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [url...]",
		Short: "Extract feature vectors without classifying",
		Long: `Extract computes the full feature vector for each URL and writes it as
CSV in the canonical feature order, without running the classifier.

This is the feature-engineering side of the pipeline: the output of
extract over a labeled dataset is exactly what train consumes.

Examples:
  # Extract features for one URL to stdout
  phishscan extract https://example.com

  # Extract features for a labeled dataset
  phishscan extract --dataset urls.csv -o features.csv

  # Skip network lookups for a fast lexical-only matrix
  phishscan extract --skip-lookups --dataset urls.csv -o features.csv`,
		Args: cobra.ArbitraryArgs,
		RunE: runExtractCmd,
	}

	cmd.Flags().StringP("dataset", "d", "",
		"Labeled CSV dataset (url,label columns); labels are carried into the output")
	cmd.Flags().BoolP("fetch", "f", false,
		"Fetch live pages for content features")
	cmd.Flags().Bool("skip-lookups", false,
		"Skip WHOIS and DNS lookups")
	cmd.Flags().Duration("whois-timeout", config.DefaultWhoisTimeout,
		"Timeout for each WHOIS lookup")
	cmd.Flags().Duration("dns-timeout", config.DefaultDNSTimeout,
		"Timeout for each DNS exchange")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent extractions")
	cmd.Flags().StringP("output", "o", "",
		"Write CSV to specified file path instead of stdout")

	return cmd
}

// runExtractCmd executes the extract command.
func runExtractCmd(cmd *cobra.Command, args []string) error {
	cfg := config.NewConfig()

	var err error
	cfg.FetchContent, err = cmd.Flags().GetBool("fetch")
	if err != nil {
		return err
	}
	cfg.SkipLookups, err = cmd.Flags().GetBool("skip-lookups")
	if err != nil {
		return err
	}
	cfg.WhoisTimeout, err = cmd.Flags().GetDuration("whois-timeout")
	if err != nil {
		return err
	}
	cfg.DNSTimeout, err = cmd.Flags().GetDuration("dns-timeout")
	if err != nil {
		return err
	}
	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	datasetPath, err := cmd.Flags().GetString("dataset")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	// Collect URLs and optional labels
	urls := args
	var labels []int
	hasLabels := false
	if datasetPath != "" {
		rows, err := dataset.LoadCSV(datasetPath)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		for _, row := range rows {
			urls = append(urls, row.URL)
			labels = append(labels, row.Label)
		}
		hasLabels = len(args) == 0 // mixing flag and args loses label alignment
	}
	if len(urls) == 0 {
		return config.ErrNoTarget
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	assembler := newAssembler(cfg, logger)
	opts := feature.AssembleOptions{
		FetchContent: cfg.FetchContent,
		SkipLookups:  cfg.SkipLookups,
	}

	var rows []feature.LabeledVector
	if hasLabels {
		rows, err = assembler.AssembleBatch(ctx, urls, labels, opts)
	} else {
		rows, err = assembler.AssembleBatch(ctx, urls, nil, opts)
	}
	if err != nil {
		return fmt.Errorf("feature extraction failed: %w", err)
	}

	var output io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.OpenFile(outputPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	return writeFeatureCSV(output, rows, hasLabels)
}

// writeFeatureCSV writes extracted rows as CSV: url, canonical feature
// columns, and a trailing label column when labels are present.
func writeFeatureCSV(output io.Writer, rows []feature.LabeledVector, hasLabels bool) error {
	w := csv.NewWriter(output)

	names := feature.CanonicalNames()
	header := append([]string{"url"}, names...)
	if hasLabels {
		header = append(header, "label")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.URL)
		for _, v := range row.Vector.ValuesInOrder(names) {
			record = append(record, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if hasLabels {
			record = append(record, strconv.Itoa(row.Label))
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}
