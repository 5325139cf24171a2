// Package config loads tool configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config captures the settings for the migration tool.
type Config struct {
	// DSN is the SQLite data source. File paths and file: URIs are accepted.
	DSN string `yaml:"dsn" env:"DBCONDUIT_DSN"`

	// MigrationsDir holds the {version}_{description}.sql files.
	MigrationsDir string `yaml:"migrations_dir" env:"DBCONDUIT_MIGRATIONS_DIR"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"DBCONDUIT_LOG_LEVEL"`
}

func defaults() Config {
	return Config{
		DSN:           "file:dbconduit.db?_pragma=busy_timeout(5000)",
		MigrationsDir: "migrations",
		LogLevel:      "info",
	}
}

// Load builds the configuration: defaults, then the YAML file at path if one
// is given, then environment overrides. A named file that does not exist is
// an error; an empty path skips the file layer.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	invalid := make([]string, 0, 2)
	if strings.TrimSpace(cfg.DSN) == "" {
		invalid = append(invalid, "dsn")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log_level")
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
