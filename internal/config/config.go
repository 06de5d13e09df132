package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/safeget/safeget/internal/progress"
)

// Config defines configuration for the safeget CLI.
type Config struct {
	OutputDir string        `yaml:"output_dir"`
	BaseURL   string        `yaml:"base_url"`
	BlockSize int64         `yaml:"block_size"`
	Workers   int           `yaml:"workers"`
	Verbosity int           `yaml:"verbosity"`
	Progress  bool          `yaml:"progress"`
	Timeout   time.Duration `yaml:"timeout"`
	Retry     RetryConfig   `yaml:"retry"`
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Attempts   int           `yaml:"attempts"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

// MaxVerbosity is the highest meaningful verbosity level (debug).
const MaxVerbosity = 3

// Default returns a Config with sensible defaults.
// Workers defaults to 1: items are downloaded strictly in order.
func Default() Config {
	return Config{
		OutputDir: ".",
		BlockSize: 1024,
		Workers:   1,
		Verbosity: 1,
		Timeout:   30 * time.Second,
		Retry: RetryConfig{
			Attempts:   5,
			Backoff:    time.Second,
			MaxBackoff: 30 * time.Second,
		},
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	OutputDir string          `yaml:"output_dir"`
	BaseURL   string          `yaml:"base_url"`
	BlockSize string          `yaml:"block_size"`
	Workers   int             `yaml:"workers"`
	Verbosity *int            `yaml:"verbosity"`
	Progress  bool            `yaml:"progress"`
	Timeout   string          `yaml:"timeout"`
	Retry     yamlRetryConfig `yaml:"retry"`
}

type yamlRetryConfig struct {
	Attempts   int    `yaml:"attempts"`
	Backoff    string `yaml:"backoff"`
	MaxBackoff string `yaml:"max_backoff"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.BaseURL != "" {
		cfg.BaseURL = yc.BaseURL
	}
	if yc.BlockSize != "" {
		size, err := progress.ParseBytes(yc.BlockSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse block_size: %w", err)
		}
		cfg.BlockSize = size
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}
	if yc.Verbosity != nil {
		cfg.Verbosity = *yc.Verbosity
	}
	cfg.Progress = yc.Progress
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.Retry.Attempts != 0 {
		cfg.Retry.Attempts = yc.Retry.Attempts
	}
	if yc.Retry.Backoff != "" {
		d, err := time.ParseDuration(yc.Retry.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.backoff: %w", err)
		}
		cfg.Retry.Backoff = d
	}
	if yc.Retry.MaxBackoff != "" {
		d, err := time.ParseDuration(yc.Retry.MaxBackoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse retry.max_backoff: %w", err)
		}
		cfg.Retry.MaxBackoff = d
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SAFEGET_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("SAFEGET_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("SAFEGET_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SAFEGET_BLOCK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_BLOCK_SIZE: %w", err)
		}
		c.BlockSize = size
	}
	if v := os.Getenv("SAFEGET_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := os.Getenv("SAFEGET_VERBOSITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_VERBOSITY: %w", err)
		}
		c.Verbosity = n
	}
	if v := os.Getenv("SAFEGET_PROGRESS"); v != "" {
		c.Progress = v == "true" || v == "1"
	}
	if v := os.Getenv("SAFEGET_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	if v := os.Getenv("SAFEGET_RETRY_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_RETRY_ATTEMPTS: %w", err)
		}
		c.Retry.Attempts = n
	}
	if v := os.Getenv("SAFEGET_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_RETRY_BACKOFF: %w", err)
		}
		c.Retry.Backoff = d
	}
	if v := os.Getenv("SAFEGET_RETRY_MAX_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse SAFEGET_RETRY_MAX_BACKOFF: %w", err)
		}
		c.Retry.MaxBackoff = d
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("config: output directory is required")
	}
	if c.BlockSize <= 0 {
		return errors.New("config: block_size must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Verbosity < 0 || c.Verbosity > MaxVerbosity {
		return fmt.Errorf("config: verbosity must be between 0 and %d", MaxVerbosity)
	}
	if c.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.BaseURL != "" {
		c.BaseURL = override.BaseURL
	}
	if override.BlockSize != 0 {
		c.BlockSize = override.BlockSize
	}
	if override.Workers != 0 {
		c.Workers = override.Workers
	}
	if override.Verbosity != 0 {
		c.Verbosity = override.Verbosity
	}
	if override.Progress {
		c.Progress = override.Progress
	}
	if override.Timeout != 0 {
		c.Timeout = override.Timeout
	}
	if override.Retry.Attempts != 0 {
		c.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.Backoff != 0 {
		c.Retry.Backoff = override.Retry.Backoff
	}
	if override.Retry.MaxBackoff != 0 {
		c.Retry.MaxBackoff = override.Retry.MaxBackoff
	}
	return c
}
