package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Lookup budgets are chosen so a slow registrar or resolver degrades one
// feature group instead of stalling the scan.
const (
	// DefaultWhoisTimeout bounds one WHOIS lookup. Registrar servers are
	// slow and rate-limited; ten seconds catches most of them without
	// letting a dead one dominate the scan.
	DefaultWhoisTimeout = 10 * time.Second

	// DefaultDNSTimeout bounds one DNS exchange. Resolvers answer in well
	// under a second; three seconds covers retries over lossy links.
	DefaultDNSTimeout = 3 * time.Second

	// DefaultFetchTimeout bounds one page fetch for content features.
	DefaultFetchTimeout = 5 * time.Second

	// DefaultBatchSize of 10 concurrent extractions balances throughput
	// with outbound lookup volume. Higher values may trigger WHOIS rate
	// limiting; lower values are safer but slower for large lists.
	DefaultBatchSize = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "phishscan"

	// DefaultUserAgent identifies phishscan in HTTP requests.
	// A descriptive User-Agent is good practice and allows operators to
	// identify scanner traffic in their logs.
	DefaultUserAgent = "phishscan/1.0 (+https://github.com/phishscan/phishscan; security research)"

	// DefaultMaxBodySize limits the response body read during content
	// extraction. 100KB covers the markup heuristics need; anything larger
	// only costs memory and time.
	DefaultMaxBodySize = 100_000

	// DefaultListenAddress is the HTTP API listen address for serve mode.
	DefaultListenAddress = ":8080"

	// DefaultHistoryLimit is how many past predictions the history
	// subcommand shows by default.
	DefaultHistoryLimit = 20
)

// Config holds all configuration options for phishscan.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., ScanConfig, ServeConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Targets is the list of URLs to classify.
	Targets []string

	// WhoisTimeout bounds each WHOIS lookup during domain feature
	// extraction.
	WhoisTimeout time.Duration

	// DNSTimeout bounds each DNS exchange during domain feature extraction.
	DNSTimeout time.Duration

	// FetchTimeout bounds each page fetch during content feature
	// extraction.
	FetchTimeout time.Duration

	// FetchContent enables fetching the live page for content features.
	// When false, content features use their neutral defaults and no
	// outbound HTTP request is made.
	FetchContent bool

	// SkipLookups disables WHOIS and DNS lookups entirely. Lexical and
	// content features are unaffected; lookup-dependent domain features
	// are imputed to 0.
	SkipLookups bool

	// BatchSize is the number of concurrent extractions when processing
	// multiple URLs.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// ModelDir is the directory holding the classifier artifact set.
	// Defaults to the XDG data directory (~/.local/share/phishscan on
	// Linux).
	ModelDir string

	// DBDir is the directory for the SQLite prediction history.
	// When empty, predictions are not persisted.
	DBDir string

	// SaveToDB indicates whether to save predictions to the history store.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// ListenAddress is the HTTP API listen address for serve mode.
	ListenAddress string

	// UserAgent is the User-Agent header sent with content fetches.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read
	// during content extraction. Set to 0 to use the default.
	MaxBodySize int64

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .phishscan in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// FileConfig holds settings loaded from the config file.
	// This is populated by LoadConfigFile.
	FileConfig *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeouts, batch
// size). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		WhoisTimeout:  DefaultWhoisTimeout,
		DNSTimeout:    DefaultDNSTimeout,
		FetchTimeout:  DefaultFetchTimeout,
		BatchSize:     DefaultBatchSize,
		ListenAddress: DefaultListenAddress,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		ModelDir:      XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for phishscan.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/phishscan
// On macOS: ~/Library/Application Support/phishscan
// On Windows: %LOCALAPPDATA%\phishscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for phishscan.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for phishscan.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.WhoisTimeout <= 0 || c.DNSTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ValidateServe checks the fields serve mode depends on. Serve mode takes
// no targets, so the scan-oriented Validate does not apply.
func (c *Config) ValidateServe() error {
	if c.ListenAddress == "" {
		return ErrInvalidListenAddress
	}
	if c.WhoisTimeout <= 0 || c.DNSTimeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}
