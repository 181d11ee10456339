// Package config loads watch settings from an optional YAML file and the environment.
// Precedence: defaults < YAML file < VERSIONWATCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the watch command.
type Config struct {
	URL        string `yaml:"url"`         // VERSIONWATCH_URL — default: "/version.json"
	BaseURL    string `yaml:"base_url"`    // VERSIONWATCH_BASE_URL — default: ""
	IntervalMS int64  `yaml:"interval_ms"` // VERSIONWATCH_INTERVAL_MS — default: 60000
	Message    string `yaml:"message"`     // VERSIONWATCH_MESSAGE — default: monitor default
	Silent     bool   `yaml:"silent"`      // VERSIONWATCH_SILENT — default: false
	Exec       string `yaml:"exec"`        // VERSIONWATCH_EXEC — command run on reload
	CAPath     string `yaml:"ca_path"`     // VERSIONWATCH_CA_PATH
	CertPath   string `yaml:"cert_path"`   // VERSIONWATCH_CERT_PATH
	KeyPath    string `yaml:"key_path"`    // VERSIONWATCH_KEY_PATH
}

const (
	envKeyURL        = "VERSIONWATCH_URL"
	envKeyBaseURL    = "VERSIONWATCH_BASE_URL"
	envKeyIntervalMS = "VERSIONWATCH_INTERVAL_MS"
	envKeyMessage    = "VERSIONWATCH_MESSAGE"
	envKeySilent     = "VERSIONWATCH_SILENT"
	envKeyExec       = "VERSIONWATCH_EXEC"
	envKeyCAPath     = "VERSIONWATCH_CA_PATH"
	envKeyCertPath   = "VERSIONWATCH_CERT_PATH"
	envKeyKeyPath    = "VERSIONWATCH_KEY_PATH"
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		URL:        "/version.json",
		IntervalMS: 60000,
	}
}

// Load applies the YAML file at path (skipped when path is empty) and then
// environment overrides on top of Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.URL = envOr(envKeyURL, cfg.URL)
	cfg.BaseURL = envOr(envKeyBaseURL, cfg.BaseURL)
	cfg.Message = envOr(envKeyMessage, cfg.Message)
	cfg.Exec = envOr(envKeyExec, cfg.Exec)
	cfg.CAPath = envOr(envKeyCAPath, cfg.CAPath)
	cfg.CertPath = envOr(envKeyCertPath, cfg.CertPath)
	cfg.KeyPath = envOr(envKeyKeyPath, cfg.KeyPath)

	if v := os.Getenv(envKeyIntervalMS); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envKeyIntervalMS, err)
		}
		cfg.IntervalMS = ms
	}
	if v := os.Getenv(envKeySilent); v != "" {
		silent, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", envKeySilent, err)
		}
		cfg.Silent = silent
	}

	return cfg, cfg.Validate()
}

// Validate checks values a monitor cannot run with.
func (c Config) Validate() error {
	if c.IntervalMS <= 0 {
		return errors.New("interval_ms must be > 0")
	}
	if (c.CertPath == "") != (c.KeyPath == "") {
		return errors.New("cert_path and key_path must be set together")
	}
	return nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
