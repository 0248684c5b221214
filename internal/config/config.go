// Package config loads the engine configuration from YAML with environment
// overrides for credentials.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`

	Engine struct {
		Workers       int           `yaml:"workers"`
		ItemTimeout   time.Duration `yaml:"item_timeout"`
		LookbackYears int           `yaml:"lookback_years"`
	} `yaml:"engine"`

	Calibration struct {
		WindowDays int `yaml:"window_days"`
	} `yaml:"calibration"`

	Postgres struct {
		DSN string `yaml:"dsn"`
	} `yaml:"postgres"`

	ClickHouse struct {
		DSN      string `yaml:"dsn"`
		Database string `yaml:"database"`
	} `yaml:"clickhouse"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or console
	} `yaml:"logging"`
}

// Default returns a configuration usable without a file: memory-friendly
// worker settings and no external stores configured.
func Default() *Config {
	c := &Config{Environment: "development"}
	c.Engine.Workers = 4
	c.Engine.ItemTimeout = 30 * time.Second
	c.Engine.LookbackYears = 3
	c.Calibration.WindowDays = 90
	c.Logging.Level = "info"
	c.Logging.Format = "console"
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables so DSNs never have to live in the file.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		c.ClickHouse.DSN = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers cannot be negative")
	}
	if c.Engine.LookbackYears < 0 {
		return fmt.Errorf("engine.lookback_years cannot be negative")
	}
	if c.Calibration.WindowDays < 0 {
		return fmt.Errorf("calibration.window_days cannot be negative")
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got '%s'", c.Logging.Format)
	}
	return nil
}
