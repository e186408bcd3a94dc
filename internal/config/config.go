// Package config loads pipeline settings from a YAML document with
// environment-variable overrides. Environment variables always take
// precedence over the document.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the immutable settings object consumed at pipeline
// construction.
type Config struct {
	Data         DataConfig       `yaml:"data"`
	Validation   ValidationConfig `yaml:"validation"`
	Destinations []Destination    `yaml:"destinations"`
	Storage      StorageConfig    `yaml:"storage"`
	Catalog      CatalogConfig    `yaml:"catalog"`
	Logging      LoggingConfig    `yaml:"logging"`
	Metrics      MetricsConfig    `yaml:"metrics"`
}

// DataConfig describes the input file and its dialect.
type DataConfig struct {
	RawPath            string `yaml:"raw_path"`
	ProcessedPath      string `yaml:"processed_path"`
	OutputPath         string `yaml:"output_path"`
	Encoding           string `yaml:"encoding"`            // "utf-8" | "latin-1" | "windows-1252"
	Delimiter          string `yaml:"delimiter"`           // field separator, default ","
	DecimalSeparator   string `yaml:"decimal_separator"`   // default ","
	ThousandsSeparator string `yaml:"thousands_separator"` // default "."
	ChunkSize          int    `yaml:"chunk_size"`
	MaxWorkers         int    `yaml:"max_workers"`
}

// ValidationConfig holds data-quality thresholds.
type ValidationConfig struct {
	MaxNullRatio float64 `yaml:"max_null_ratio"`
	MinYear      int     `yaml:"min_year"`
	MaxYear      int     `yaml:"max_year"`
}

// Destination names one load target.
type Destination struct {
	Name        string `yaml:"name"`
	Format      string `yaml:"format"`      // "csv" | "parquet"
	Path        string `yaml:"path"`        // key within the storage backend
	Compression string `yaml:"compression"` // csv: "" | "gzip"; parquet: "snappy" (default) | "none"
	Delimiter   string `yaml:"delimiter"`   // csv only, defaults to data.delimiter
}

// StorageConfig selects the output backend.
type StorageConfig struct {
	Backend   string `yaml:"backend"`    // "local" | "blob"
	LocalDir  string `yaml:"local_dir"`  // local backend root
	BucketURL string `yaml:"bucket_url"` // blob backend, e.g. "s3://bucket?region=us-east-1", "gs://bucket", "file:///tmp/out"
	Prefix    string `yaml:"prefix"`
}

// CatalogConfig configures the optional Postgres run catalog.
type CatalogConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// MetricsConfig configures the optional Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the baseline configuration before YAML and env overrides.
func Default() Config {
	return Config{
		Data: DataConfig{
			RawPath:            "data/raw/sii_empresas.csv",
			ProcessedPath:      "data/processed",
			OutputPath:         "data/output",
			Encoding:           "utf-8",
			Delimiter:          ",",
			DecimalSeparator:   ",",
			ThousandsSeparator: ".",
			ChunkSize:          10000,
			MaxWorkers:         4,
		},
		Validation: ValidationConfig{
			MaxNullRatio: 0.3,
			MinYear:      2005,
			MaxYear:      2024,
		},
		Storage: StorageConfig{
			Backend:  "local",
			LocalDir: ".",
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			ListenAddr: ":9090",
		},
	}
}

// Load reads the YAML document at path (missing file is not an error) and
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults + env.
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides individual settings from the environment.
func (c *Config) applyEnv() {
	c.Data.RawPath = getenvDefault("RAW_DATA_PATH", c.Data.RawPath)
	c.Data.ProcessedPath = getenvDefault("PROCESSED_DATA_PATH", c.Data.ProcessedPath)
	c.Data.OutputPath = getenvDefault("OUTPUT_DATA_PATH", c.Data.OutputPath)
	c.Data.Encoding = getenvDefault("ENCODING", c.Data.Encoding)
	c.Data.ChunkSize = getenvInt("CHUNK_SIZE", c.Data.ChunkSize)
	c.Data.MaxWorkers = getenvInt("MAX_WORKERS", c.Data.MaxWorkers)
	c.Catalog.PostgresDSN = getenvDefault("CATALOG_DSN", c.Catalog.PostgresDSN)
	c.Logging.Level = getenvDefault("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getenvDefault("LOG_FORMAT", c.Logging.Format)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.Data.RawPath == "" {
		return errors.New("data.raw_path is required")
	}
	if c.Validation.MinYear > c.Validation.MaxYear {
		return fmt.Errorf("validation year range invalid: min %d > max %d",
			c.Validation.MinYear, c.Validation.MaxYear)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			return errors.New("storage.local_dir required for local backend")
		}
	case "blob":
		if c.Storage.BucketURL == "" {
			return errors.New("storage.bucket_url required for blob backend")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s", c.Storage.Backend)
	}
	for _, d := range c.Destinations {
		switch d.Format {
		case "csv", "parquet":
		default:
			return fmt.Errorf("destination %s: unsupported format %q", d.Name, d.Format)
		}
		if d.Path == "" {
			return fmt.Errorf("destination %s: path is required", d.Name)
		}
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getenvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}
