// Package config loads Bellum's runtime configuration from a YAML file,
// with environment-variable overrides for the fields an operator most
// often needs to change per-deployment without editing the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	HTTP   HTTPConfig   `yaml:"http"`
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
}

// HTTPConfig configures the httpapi façade (SPEC_FULL.md §4.8).
type HTTPConfig struct {
	Addr              string        `yaml:"addr"`
	DefaultTimeLimit  time.Duration `yaml:"default_time_limit"`
}

// LedgerConfig configures the optional Postgres run ledger (SPEC_FULL.md
// §4.7). An empty DSN disables the ledger entirely — every Scheduler runs
// with a nil RunLedger, which is the spec's documented no-op behavior.
type LedgerConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig configures the hclog logger shared by every component.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration a fresh install should run with.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:             getEnvOrDefault("BELLUM_HTTP_ADDR", ":8080"),
			DefaultTimeLimit: getEnvDurationOrDefault("BELLUM_DEFAULT_TIME_LIMIT", time.Minute),
		},
		Ledger: LedgerConfig{
			DSN: getEnvOrDefault("BELLUM_LEDGER_DSN", ""),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("BELLUM_LOG_LEVEL", "info"),
		},
	}
}

// Load reads a YAML config file at path, falling back to Default() values
// for any field the file leaves unset, then applies environment-variable
// overrides on top so a deployed container can override a baked-in file
// without a rebuild.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	if v := os.Getenv("BELLUM_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("BELLUM_DEFAULT_TIME_LIMIT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.DefaultTimeLimit = d
		}
	}
	if v := os.Getenv("BELLUM_LEDGER_DSN"); v != "" {
		cfg.Ledger.DSN = v
	}
	if v := os.Getenv("BELLUM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}
