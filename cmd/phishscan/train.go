package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/phishscan/phishscan/internal/classifier"
	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/dataset"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/log"
)

// NewTrainCmd creates the train command.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the classifier from a labeled URL dataset",
		Long: `Train extracts features from a labeled dataset, fits the logistic
regression classifier, and writes the model artifacts.

The dataset is a CSV file with a URL column (url/website/link) and a label
column (label/result/class/target). Labels may be phishing/legitimate,
bad/good, or 1/0. Alternatively --features consumes a matrix previously
written by extract, skipping extraction entirely.

A held-out split is scored after training; the selection metric weighs
recall more than accuracy because a missed phishing page costs more than a
false alarm.

Examples:
  # Train from a dataset, writing artifacts to the XDG data directory
  phishscan train --dataset urls.csv

  # Train offline (lexical features only) into a custom directory
  phishscan train --dataset urls.csv --skip-lookups --model-dir ./model

  # Train from a matrix produced by extract
  phishscan train --features features.csv

  # Longer training run
  phishscan train --dataset urls.csv --epochs 1000 --learning-rate 0.05`,
		RunE: runTrainCmd,
	}

	cmd.Flags().StringP("dataset", "d", "",
		"Labeled CSV dataset to extract and train from")
	cmd.Flags().String("features", "",
		"Precomputed feature matrix from extract (alternative to --dataset)")
	cmd.Flags().String("model-dir", "",
		"Directory to write model artifacts (default: XDG data directory)")
	cmd.Flags().BoolP("fetch", "f", false,
		"Fetch live pages for content features during extraction")
	cmd.Flags().Bool("skip-lookups", false,
		"Skip WHOIS and DNS lookups during extraction")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent extractions")
	cmd.Flags().Int("epochs", 0,
		"Training epochs (0 uses the built-in default)")
	cmd.Flags().Float64("learning-rate", 0,
		"Gradient step size (0 uses the built-in default)")
	cmd.Flags().Float64("test-split", 0.2,
		"Fraction of rows held out for evaluation")

	cmd.MarkFlagsOneRequired("dataset", "features")
	cmd.MarkFlagsMutuallyExclusive("dataset", "features")

	return cmd
}

// runTrainCmd executes the train command.
func runTrainCmd(cmd *cobra.Command, _ []string) error {
	cfg := config.NewConfig()

	datasetPath, err := cmd.Flags().GetString("dataset")
	if err != nil {
		return err
	}
	featuresPath, err := cmd.Flags().GetString("features")
	if err != nil {
		return err
	}
	modelDir, err := cmd.Flags().GetString("model-dir")
	if err != nil {
		return err
	}
	if modelDir != "" {
		cfg.ModelDir = modelDir
	}
	cfg.FetchContent, err = cmd.Flags().GetBool("fetch")
	if err != nil {
		return err
	}
	cfg.SkipLookups, err = cmd.Flags().GetBool("skip-lookups")
	if err != nil {
		return err
	}
	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}
	epochs, err := cmd.Flags().GetInt("epochs")
	if err != nil {
		return err
	}
	learningRate, err := cmd.Flags().GetFloat64("learning-rate")
	if err != nil {
		return err
	}
	testSplit, err := cmd.Flags().GetFloat64("test-split")
	if err != nil {
		return err
	}
	if testSplit < 0 || testSplit >= 1 {
		return fmt.Errorf("invalid test split %v: must be in [0, 1)", testSplit)
	}

	verbose := getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	names := feature.CanonicalNames()

	var matrix [][]float64
	var labels []int
	if featuresPath != "" {
		// Precomputed matrix from extract; header is checked against the
		// canonical order so a stale matrix fails loudly.
		fm, err := dataset.LoadFeatureCSV(featuresPath, names)
		if err != nil {
			return fmt.Errorf("failed to load feature matrix: %w", err)
		}
		matrix, labels = fm.Rows, fm.Labels
		fmt.Printf("Loaded %d feature rows from %s\n", len(matrix), featuresPath)
	} else {
		rows, err := dataset.LoadCSV(datasetPath)
		if err != nil {
			return fmt.Errorf("failed to load dataset: %w", err)
		}
		fmt.Printf("Loaded %d labeled URLs from %s\n", len(rows), datasetPath)

		// Extract features for every row
		urls := make([]string, len(rows))
		labels = make([]int, len(rows))
		for i, row := range rows {
			urls[i] = row.URL
			labels[i] = row.Label
		}

		assembler := newAssembler(cfg, logger)
		vectors, err := assembler.AssembleBatch(ctx, urls, labels, feature.AssembleOptions{
			FetchContent: cfg.FetchContent,
			SkipLookups:  cfg.SkipLookups,
		})
		if err != nil {
			return fmt.Errorf("feature extraction failed: %w", err)
		}

		matrix = make([][]float64, len(vectors))
		defaulted := 0
		for i, v := range vectors {
			matrix[i] = v.Vector.ValuesInOrder(names)
			if v.Defaulted {
				defaulted++
			}
		}
		if defaulted > 0 {
			fmt.Printf("Warning: %d row(s) fell back to default features\n", defaulted)
		}
	}

	// Split train/test with a deterministic shuffle so repeated runs on the
	// same dataset produce the same split.
	trainX, trainY, testX, testY := splitDataset(matrix, labels, testSplit)

	opts := classifier.NewTrainOptions()
	if epochs > 0 {
		opts.Epochs = epochs
	}
	if learningRate > 0 {
		opts.LearningRate = learningRate
	}

	fmt.Printf("Training on %d rows (%d held out)...\n", len(trainX), len(testX))
	model, scaler, err := classifier.Train(trainX, trainY, opts)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	// Evaluate on the held-out split when one exists
	if len(testX) > 0 {
		scaled := make([][]float64, len(testX))
		for i, x := range testX {
			scaled[i] = scaler.Transform(x)
		}
		m := classifier.Evaluate(model, scaled, testY)
		fmt.Printf("\nHeld-out evaluation:\n")
		fmt.Printf("  Accuracy:  %.3f\n", m.Accuracy)
		fmt.Printf("  Precision: %.3f\n", m.Precision)
		fmt.Printf("  Recall:    %.3f\n", m.Recall)
		fmt.Printf("  F1:        %.3f\n", m.F1)
		fmt.Printf("  Score:     %.3f (recall-weighted)\n", m.Score())
	}

	if err := classifier.SaveArtifacts(cfg.ModelDir, model, names, scaler); err != nil {
		return fmt.Errorf("failed to save model artifacts: %w", err)
	}
	fmt.Printf("\nModel artifacts written to %s\n", cfg.ModelDir)

	return nil
}

// splitDataset shuffles deterministically and carves off a held-out split.
func splitDataset(matrix [][]float64, labels []int, testSplit float64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	idx := make([]int, len(matrix))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic split, not cryptography
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	testCount := int(float64(len(idx)) * testSplit)
	for n, i := range idx {
		if n < testCount {
			testX = append(testX, matrix[i])
			testY = append(testY, labels[i])
			continue
		}
		trainX = append(trainX, matrix[i])
		trainY = append(trainY, labels[i])
	}
	return trainX, trainY, testX, testY
}
