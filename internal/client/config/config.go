// Package config loads runtime configuration for the VeriStamp CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional YAML file at ~/.veristamp/config.yaml (or the path given via
//     the --config flag).
//  3. Command-line flags, which override earlier values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veristamp/veristamp/internal/timex"
)

// Config holds runtime settings for the VeriStamp CLI.
//
// Fields:
//   - ServerURL: base URL of the backend REST endpoint.
//   - RequestTimeout: per-request timeout for API calls.
//   - DatabasePath: sqlite file holding tokens and cached receipts.
type Config struct {
	ServerURL      string         `yaml:"server_url"`
	RequestTimeout timex.Duration `yaml:"request_timeout"`
	DatabasePath   string         `yaml:"database_path"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veristamp"
	}
	return filepath.Join(home, ".veristamp")
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080"
	c.RequestTimeout = timex.Duration{Duration: 30 * time.Second}
	c.DatabasePath = filepath.Join(DefaultDir(), "veristamp.db")
}

// LoadConfig constructs a Config from defaults plus the YAML file at path.
// An absent file is not an error; a malformed one is.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path == "" {
		path = filepath.Join(DefaultDir(), "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}
