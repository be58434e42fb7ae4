// Package config defines the runtime configuration for phishscan and its
// validation rules, plus loading of the optional .phishscan YAML file and
// .env environment overrides.
package config
