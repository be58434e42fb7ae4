package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".phishscan"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file contents.
type File struct {
	// Defaults overrides built-in defaults for fields the user sets.
	Defaults Defaults `yaml:"defaults"`

	// TrustedDomains lists registrable domains the user vouches for.
	// They are still scanned, but reports flag the trust mark so an
	// operator can spot a lookalike of their own brand quickly.
	TrustedDomains []string `yaml:"trusted_domains"`
}

// Defaults are the overridable settings of the configuration file.
// Pointer fields distinguish "not set" from an explicit false/zero.
type Defaults struct {
	FetchContent *bool  `yaml:"fetch_content"`
	SkipLookups  *bool  `yaml:"skip_lookups"`
	BatchSize    int    `yaml:"batch_size"`
	UserAgent    string `yaml:"user_agent"`
	ModelDir     string `yaml:"model_dir"`
	DBDir        string `yaml:"db_dir"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// ApplyTo merges file settings into cfg. Only fields the file actually set
// are applied; everything else keeps its current value.
func (f *File) ApplyTo(cfg *Config) {
	if f.Defaults.FetchContent != nil {
		cfg.FetchContent = *f.Defaults.FetchContent
	}
	if f.Defaults.SkipLookups != nil {
		cfg.SkipLookups = *f.Defaults.SkipLookups
	}
	if f.Defaults.BatchSize > 0 {
		cfg.BatchSize = f.Defaults.BatchSize
	}
	if f.Defaults.UserAgent != "" {
		cfg.UserAgent = f.Defaults.UserAgent
	}
	if f.Defaults.ModelDir != "" {
		cfg.ModelDir = f.Defaults.ModelDir
	}
	if f.Defaults.DBDir != "" {
		cfg.DBDir = f.Defaults.DBDir
		cfg.SaveToDB = true
	}
	cfg.FileConfig = f
}

// IsTrusted reports whether host is covered by the trusted list, either
// exactly or as a subdomain of a trusted entry.
func (f *File) IsTrusted(host string) bool {
	for _, d := range f.TrustedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .phishscan in the current directory
// 3. Look for .phishscan in the XDG config directory
// 4. Look for .phishscan in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	// Check home directory
	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// LoadEnv loads a .env file from the working directory when present and
// applies PHISHSCAN_* environment overrides to cfg. A missing .env file is
// not an error; explicit environment variables win over the file.
func LoadEnv(cfg *Config) {
	_ = godotenv.Load() // best effort; absence is the common case

	if v := os.Getenv("PHISHSCAN_MODEL_DIR"); v != "" {
		cfg.ModelDir = v
	}
	if v := os.Getenv("PHISHSCAN_DB_DIR"); v != "" {
		cfg.DBDir = v
		cfg.SaveToDB = true
	}
	if v := os.Getenv("PHISHSCAN_LISTEN_ADDRESS"); v != "" {
		cfg.ListenAddress = v
	}
	if v := os.Getenv("PHISHSCAN_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
}
