package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/phishscan/phishscan/internal/config"
	"github.com/phishscan/phishscan/internal/model"
)

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [url...]" {
			t.Errorf("expected use 'scan [url...]', got %q", cmd.Use)
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{
			"fetch", "skip-lookups", "whois-timeout", "dns-timeout",
			"list", "batch", "model-dir", "db-dir", "no-save", "config",
			"json", "markdown", "output",
		} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %q flag", name)
			}
		}
	})
}

// TestBuildScanConfig tests flag-to-config translation.
func TestBuildScanConfig(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cmd := NewScanCmd()
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildScanConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.BatchSize != config.DefaultBatchSize {
			t.Errorf("expected batch size %d, got %d", config.DefaultBatchSize, cfg.BatchSize)
		}
		if cfg.WhoisTimeout != config.DefaultWhoisTimeout {
			t.Errorf("expected whois timeout %v, got %v", config.DefaultWhoisTimeout, cfg.WhoisTimeout)
		}
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB by default")
		}
		if cfg.DBDir == "" {
			t.Error("expected DBDir to default to the data directory")
		}
		if len(cfg.Targets) != 1 || cfg.Targets[0] != "https://example.com" {
			t.Errorf("expected positional target, got %v", cfg.Targets)
		}
	})

	t.Run("parses flags", func(t *testing.T) {
		cmd := NewScanCmd()
		args := []string{
			"--fetch", "--skip-lookups", "--json",
			"--batch", "5", "--model-dir", "/tmp/model",
			"--no-save", "--dns-timeout", "1s",
		}
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildScanConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !cfg.FetchContent {
			t.Error("expected FetchContent")
		}
		if !cfg.SkipLookups {
			t.Error("expected SkipLookups")
		}
		if !cfg.JSONReport {
			t.Error("expected JSONReport")
		}
		if cfg.BatchSize != 5 {
			t.Errorf("expected batch size 5, got %d", cfg.BatchSize)
		}
		if cfg.ModelDir != "/tmp/model" {
			t.Errorf("expected model dir override, got %q", cfg.ModelDir)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB disabled with --no-save")
		}
		if cfg.DNSTimeout != time.Second {
			t.Errorf("expected 1s DNS timeout, got %v", cfg.DNSTimeout)
		}
	})

	t.Run("conflicting report formats fail validation", func(t *testing.T) {
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--json", "--markdown"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := buildScanConfig(cmd, []string{"https://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := cfg.Validate(); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("explicit missing config file errors", func(t *testing.T) {
		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"--config", "/nonexistent/.phishscan"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := buildScanConfig(cmd, []string{"https://example.com"}); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

// TestReadURLList tests URL list file parsing.
func TestReadURLList(t *testing.T) {
	t.Parallel()

	t.Run("skips blanks and comments", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "urls.txt")
		content := "https://a.example\n\n# comment line\n  https://b.example  \n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write list: %v", err)
		}

		urls, err := readURLList(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"https://a.example", "https://b.example"}
		if len(urls) != len(want) {
			t.Fatalf("expected %d URLs, got %d", len(want), len(urls))
		}
		for i, u := range want {
			if urls[i] != u {
				t.Errorf("expected %q at %d, got %q", u, i, urls[i])
			}
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		t.Parallel()
		if _, err := readURLList("/nonexistent/urls.txt"); err == nil {
			t.Error("expected error for missing list file")
		}
	})
}

// TestCollectTargets tests merging positional URLs with a list file.
func TestCollectTargets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(path, []byte("https://c.example\n"), 0o600); err != nil {
		t.Fatalf("failed to write list: %v", err)
	}

	targets, err := collectTargets([]string{"https://a.example"}, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0] != "https://a.example" || targets[1] != "https://c.example" {
		t.Errorf("unexpected target order: %v", targets)
	}
}

// TestOutputResults tests report writing to a file.
func TestOutputResults(t *testing.T) {
	t.Parallel()

	sample := model.PredictionResult{
		URL:            "https://example.com",
		Classification: model.LabelLegitimate,
		RiskScore:      12.5,
		ScannedAt:      time.Now(),
	}

	t.Run("writes JSON report to nested path", func(t *testing.T) {
		t.Parallel()
		reportPath := filepath.Join(t.TempDir(), "reports", "out.json")
		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = reportPath

		if err := outputResults(cfg, []model.PredictionResult{sample}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test-controlled path
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		var decoded model.PredictionResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("expected valid JSON report, got %v", err)
		}
		if decoded.URL != sample.URL {
			t.Errorf("expected URL %q, got %q", sample.URL, decoded.URL)
		}
	})

	t.Run("writes batch summary in simple format", func(t *testing.T) {
		t.Parallel()
		reportPath := filepath.Join(t.TempDir(), "out.txt")
		cfg := config.NewConfig()
		cfg.ReportFile = reportPath

		results := []model.PredictionResult{sample, sample}
		if err := outputResults(cfg, results); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test-controlled path
		if err != nil {
			t.Fatalf("failed to read report: %v", err)
		}
		if !strings.Contains(string(data), "TOTAL: 2 scanned") {
			t.Errorf("expected batch summary, got %q", string(data))
		}
	})
}
