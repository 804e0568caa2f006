// Package config defines the run configuration surface and its YAML loader.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nharlow/recap/internal/errors"
	"github.com/nharlow/recap/internal/types"
)

// Config is the constructor-level configuration of one cache run. It is
// bound once at session construction and never changes afterwards.
type Config struct {
	// Mode is "record" or "replay".
	Mode string `yaml:"mode"`

	// TotalSteps is the total planned step count of the run. It also
	// determines the zero-padding width of bucket file names.
	TotalSteps int64 `yaml:"total_steps"`

	// SampleRate N caches (or looks up) only steps where step % N == 0.
	// 1 caches every step.
	SampleRate int64 `yaml:"sample_rate"`

	// FlushInterval is the number of steps accumulated in memory before
	// a durable flush. Independent from SampleRate.
	FlushInterval int64 `yaml:"flush_interval"`

	// OutputDir holds all cache file pairs for one run.
	OutputDir string `yaml:"output_dir"`

	// Compression configures Parquet compression.
	Compression CompressionConfig `yaml:"compression"`

	// Manifest configures the sqlite run ledger.
	Manifest ManifestConfig `yaml:"manifest"`

	// Log configures logging output.
	Log LogConfig `yaml:"log"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: snappy, zstd, lz4, gzip, none.
	Algorithm string `yaml:"algorithm"`

	// Level is the compression level (for zstd: 1-22).
	Level int `yaml:"level"`
}

// ManifestConfig configures the run ledger.
type ManifestConfig struct {
	// Enabled enables recording runs and buckets to the ledger.
	Enabled bool `yaml:"enabled"`

	// Path is the ledger database path. Defaults to {OutputDir}/manifest.db.
	Path string `yaml:"path"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is the log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON selects JSON output instead of text.
	JSON bool `yaml:"json"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults. OutputDir
// and TotalSteps have no defaults; callers must set them.
func DefaultConfig() *Config {
	return &Config{
		Mode:          "record",
		SampleRate:    1,
		FlushInterval: 100,
		Compression: CompressionConfig{
			Algorithm: "zstd",
			Level:     3,
		},
		Manifest: ManifestConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := types.ParseMode(c.Mode); err != nil {
		return errors.NewInvalidValue("mode", c.Mode, "want record or replay")
	}
	if c.TotalSteps <= 0 {
		return errors.NewInvalidValue("total_steps", c.TotalSteps, "must be positive")
	}
	if c.SampleRate <= 0 {
		return errors.NewInvalidValue("sample_rate", c.SampleRate, "must be positive")
	}
	if c.FlushInterval <= 0 {
		return errors.NewInvalidValue("flush_interval", c.FlushInterval, "must be positive")
	}
	if c.OutputDir == "" {
		return errors.NewMissingField("output_dir")
	}
	return nil
}

// CacheMode returns the parsed Mode. Call Validate first.
func (c *Config) CacheMode() types.Mode {
	m, _ := types.ParseMode(c.Mode)
	return m
}

// ManifestPath returns the effective ledger path.
func (c *Config) ManifestPath() string {
	if c.Manifest.Path != "" {
		return c.Manifest.Path
	}
	return filepath.Join(c.OutputDir, "manifest.db")
}
