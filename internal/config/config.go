// Package config layers the UI settings: built-in defaults, then an optional
// YAML file, then POS_* environment variables, then command-line flags.
// Later layers win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL    = "http://localhost:8000"
	DefaultFetchTimeoutS = 5
	DefaultQueryTimeoutS = 60
	minTimeoutS          = 1
	maxTimeoutS          = 120
)

// Config is everything the UI needs to run.
type Config struct {
	BackendURL          string `yaml:"backend_url"`
	FetchTimeoutSeconds int    `yaml:"fetch_timeout_seconds"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
	Debug               bool   `yaml:"debug"`
	LogFile             string `yaml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BackendURL:          DefaultBackendURL,
		FetchTimeoutSeconds: DefaultFetchTimeoutS,
		QueryTimeoutSeconds: DefaultQueryTimeoutS,
		LogFile:             "pos-tui.log",
	}
}

// Load reads cfg from a YAML file on top of the defaults. A missing path is
// not an error; the defaults come back unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays POS_* environment variables onto cfg.
func (c *Config) ApplyEnv() {
	c.BackendURL = envOr("POS_BACKEND_URL", c.BackendURL)
	c.FetchTimeoutSeconds = envOrInt("POS_FETCH_TIMEOUT", c.FetchTimeoutSeconds)
	c.QueryTimeoutSeconds = envOrInt("POS_QUERY_TIMEOUT", c.QueryTimeoutSeconds)
	c.Debug = envOrBool("POS_DEBUG", c.Debug)
	c.LogFile = envOr("POS_LOG_FILE", c.LogFile)
}

// Normalize clamps timeouts into their supported range and tidies the
// backend address. An empty backend URL is rejected.
func (c *Config) Normalize() error {
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		return fmt.Errorf("backend url must not be empty")
	}
	c.FetchTimeoutSeconds = clampInt(c.FetchTimeoutSeconds, minTimeoutS, maxTimeoutS)
	c.QueryTimeoutSeconds = clampInt(c.QueryTimeoutSeconds, minTimeoutS, maxTimeoutS)
	c.LogFile = strings.TrimSpace(c.LogFile)
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envOrBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
