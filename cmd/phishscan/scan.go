package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phishscan/phishscan/internal/classifier"
	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/feature"
	"github.com/phishscan/phishscan/internal/history"
	"github.com/phishscan/phishscan/internal/log"
	"github.com/phishscan/phishscan/internal/model"
	"github.com/phishscan/phishscan/internal/predict"
	"github.com/phishscan/phishscan/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [url...]",
		Short: "Classify URLs as phishing or legitimate",
		Long: `Scan classifies one or more URLs using the trained model.

Each URL is analyzed along three feature groups:
- Lexical: length, structure, suspicious keywords, entropy (always offline)
- Domain trust: WHOIS registration age, DNS resolution (network lookups)
- Page content: forms, iframes, redirect scripts, urgency language
  (only with --fetch, guarded against private and internal addresses)

Examples:
  # Scan a single URL
  phishscan scan https://suspicious-login.example

  # Scan multiple URLs concurrently
  phishscan scan https://a.example https://b.example

  # Scan URLs from a file (one per line)
  phishscan scan --list urls.txt

  # Include live page content in the analysis
  phishscan scan --fetch https://suspicious-login.example

  # Offline scan: lexical features only
  phishscan scan --skip-lookups https://suspicious-login.example

  # Output JSON report
  phishscan scan --json https://suspicious-login.example`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	// Extraction behavior flags
	cmd.Flags().BoolP("fetch", "f", false,
		"Fetch the live page for content features (outbound HTTP through the safe-fetch guard)")
	cmd.Flags().Bool("skip-lookups", false,
		"Skip WHOIS and DNS lookups; lookup-dependent features are imputed to 0")
	cmd.Flags().Duration("whois-timeout", config.DefaultWhoisTimeout,
		"Timeout for each WHOIS lookup")
	cmd.Flags().Duration("dns-timeout", config.DefaultDNSTimeout,
		"Timeout for each DNS exchange")

	// Batch scanning flags
	cmd.Flags().StringP("list", "l", "",
		"File with URLs to scan, one per line ('#' starts a comment)")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent classifications")

	// Model and persistence flags
	cmd.Flags().String("model-dir", "",
		"Directory holding the model artifacts (default: XDG data directory)")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")
	cmd.Flags().Bool("no-save", false,
		"Do not record predictions in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .phishscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with secret sanitization
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	return runScan(ctx, cfg, logger)
}

// signalContext returns a context canceled by SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildScanConfig creates a Config from cobra command flags.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.FetchContent, err = cmd.Flags().GetBool("fetch")
	if err != nil {
		return nil, err
	}

	cfg.SkipLookups, err = cmd.Flags().GetBool("skip-lookups")
	if err != nil {
		return nil, err
	}

	cfg.WhoisTimeout, err = cmd.Flags().GetDuration("whois-timeout")
	if err != nil {
		return nil, err
	}

	cfg.DNSTimeout, err = cmd.Flags().GetDuration("dns-timeout")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}
	config.LoadEnv(cfg)

	if modelDir, err := cmd.Flags().GetString("model-dir"); err != nil {
		return nil, err
	} else if modelDir != "" {
		cfg.ModelDir = modelDir
	}

	if dbDir, err := cmd.Flags().GetString("db-dir"); err != nil {
		return nil, err
	} else if dbDir != "" {
		cfg.DBDir = dbDir
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	if !noSave && cfg.DBDir == "" {
		// Record predictions in the XDG data directory by default so the
		// history subcommand works out of the box.
		cfg.DBDir = config.XDGDataDir()
	}
	cfg.SaveToDB = !noSave

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	listFile, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}

	cfg.Targets, err = collectTargets(args, listFile)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyConfigFile loads and applies the .phishscan file.
// If the user explicitly specified a config file path, a missing file is an
// error. Otherwise a missing file just means defaults.
func applyConfigFile(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	if path == "" {
		if explicit {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		return nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	cf.ApplyTo(cfg)
	return nil
}

// collectTargets merges positional URLs with the --list file contents.
func collectTargets(args []string, listFile string) ([]string, error) {
	targets := make([]string, 0, len(args))
	targets = append(targets, args...)

	if listFile != "" {
		fromFile, err := readURLList(listFile)
		if err != nil {
			return nil, err
		}
		targets = append(targets, fromFile...)
	}

	return targets, nil
}

// readURLList reads URLs from a file, one per line. Blank lines and lines
// starting with '#' are skipped.
func readURLList(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided list path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open URL list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URL list: %w", err)
	}
	return urls, nil
}

// newAssembler builds the feature assembler for cfg.
func newAssembler(cfg *config.Config, logger *slog.Logger) *feature.Assembler {
	domain := feature.NewDomainExtractor(cfg.WhoisTimeout, cfg.DNSTimeout,
		feature.WithDomainLogger(logger),
	)
	content := feature.NewContentExtractor(
		feature.WithFetcher(feature.NewFetcher(
			feature.WithFetchTimeout(cfg.FetchTimeout),
			feature.WithFetchMaxBytes(cfg.MaxBodySize),
			feature.WithUserAgent(cfg.UserAgent),
		)),
		feature.WithContentLogger(logger),
	)
	return feature.NewAssembler(
		feature.WithDomainExtractor(domain),
		feature.WithContentExtractor(content),
		feature.WithAssemblerLogger(logger),
		feature.WithBatchConcurrency(cfg.BatchSize),
	)
}

// newPredictor builds the predictor for cfg, wiring the artifact loader to
// the canonical feature order.
func newPredictor(cfg *config.Config, logger *slog.Logger) *predict.Predictor {
	loader := classifier.NewLoader(cfg.ModelDir,
		classifier.WithExpectedNames(feature.CanonicalNames()),
	)
	opts := []predict.Option{
		predict.WithAssembler(newAssembler(cfg, logger)),
		predict.WithLogger(logger),
	}
	if cfg.SkipLookups {
		opts = append(opts, predict.WithSkipLookups())
	}
	return predict.New(loader, opts...)
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"targets", len(cfg.Targets),
		"fetchContent", cfg.FetchContent,
		"skipLookups", cfg.SkipLookups,
		"batchSize", cfg.BatchSize,
	)

	// Open the history store if saving is enabled
	var store *history.Store
	if cfg.SaveToDB && cfg.DBDir != "" {
		var err error
		store, err = history.Open(cfg.DBDir, history.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	predictor := newPredictor(cfg, logger)

	start := time.Now()
	results := make([]model.PredictionResult, len(cfg.Targets))

	// Classify concurrently; each URL writes only its own slot, so input
	// order is preserved in the report.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.BatchSize)
	for i, target := range cfg.Targets {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = predictor.Predict(gctx, target, cfg.FetchContent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Scanned %d URL(s) in %s\n", len(results), time.Since(start).Round(time.Millisecond))

	warnTrustedPhishing(cfg, results, logger)

	if store != nil {
		for i := range results {
			if _, err := store.SavePrediction(ctx, &results[i]); err != nil {
				logger.Warn("failed to save prediction", "url", results[i].URL, "error", err)
			}
		}
	}

	return outputResults(cfg, results)
}

// warnTrustedPhishing flags phishing verdicts on hosts the config file marks
// as trusted. Either a trusted site is compromised or the trust list covers a
// lookalike; both deserve operator attention beyond the report line.
func warnTrustedPhishing(cfg *config.Config, results []model.PredictionResult, logger *slog.Logger) {
	if cfg.FileConfig == nil || len(cfg.FileConfig.TrustedDomains) == 0 {
		return
	}
	for i := range results {
		r := &results[i]
		if r.Failed() || r.Classification != model.LabelPhishing {
			continue
		}
		parsed, err := url.Parse(r.URL)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		if cfg.FileConfig.IsTrusted(parsed.Hostname()) {
			logger.Warn("trusted domain classified as phishing",
				"url", r.URL,
				"riskScore", r.RiskScore,
			)
		}
	}
}

// outputResults writes the results in the requested format. When a report
// file is set, the formatted report goes to the file and a plain summary
// still goes to stdout so the operator sees the verdicts immediately.
func outputResults(cfg *config.Config, results []model.PredictionResult) error {
	output := os.Stdout
	toFile := cfg.ReportFile != ""
	if toFile {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may name sensitive internal URLs; owner-only permissions.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	if toFile {
		writer = report.NewMultiWriter(writer,
			report.NewSimpleWriter(os.Stdout, report.WithVerbose(cfg.Verbose)))
	}

	var err error
	if len(results) == 1 {
		_, err = writer.Write(&results[0])
	} else {
		_, err = writer.WriteBatch(results)
	}
	return err
}
