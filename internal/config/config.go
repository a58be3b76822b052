// Package config provides configuration management for the LST export job
// and the datacube catalog server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Source   SourceConfig   `envPrefix:"SOURCE_"`
	Datacube DatacubeConfig `envPrefix:"DATACUBE_"`
	STAC     STACConfig     `envPrefix:"STAC_"`
	Export   ExportConfig   `envPrefix:"EXPORT_"`
	Pipeline PipelineConfig `envPrefix:"PIPELINE_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`
	Features FeatureConfig  `envPrefix:"FEATURE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Source types.
const (
	SourceDatacube = "datacube"
	SourceSTAC     = "stac"
)

// SourceConfig selects where the export job reads scenes from.
type SourceConfig struct {
	// Type is "datacube" (local NetCDF files) or "stac" (a catalog server).
	Type      string        `env:"TYPE" envDefault:"datacube"`
	STACURL   string        `env:"STAC_URL" envDefault:""`
	Timeout   time.Duration `env:"TIMEOUT" envDefault:"30s"`
	PageLimit int           `env:"PAGE_LIMIT" envDefault:"100"`
}

// DatacubeConfig locates the datacube files and their catalog definitions.
type DatacubeConfig struct {
	Dir         string `env:"DIR" envDefault:"data"`
	CatalogsDir string `env:"CATALOGS_DIR" envDefault:"catalogs"`
}

// STACConfig contains STAC API metadata configuration for the catalog server.
type STACConfig struct {
	Version     string `env:"VERSION" envDefault:"1.0.0"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	Title       string `env:"TITLE" envDefault:"Landsat Datacube STAC API"`
	Description string `env:"DESCRIPTION" envDefault:"STAC API over local Landsat surface reflectance and TOA datacubes"`
}

// Export sink types.
const (
	SinkFile = "file"
	SinkS3   = "s3"
)

// ExportConfig selects where CSV exports are written.
type ExportConfig struct {
	Sink     string `env:"SINK" envDefault:"file"`
	Dir      string `env:"DIR" envDefault:"exports"`
	S3Bucket string `env:"S3_BUCKET" envDefault:""`
	S3Prefix string `env:"S3_PREFIX" envDefault:""`
	S3Region string `env:"S3_REGION" envDefault:"us-east-1"`
}

// PipelineConfig tunes the export job.
type PipelineConfig struct {
	Concurrency int    `env:"CONCURRENCY" envDefault:"4"`
	JobFile     string `env:"JOB_FILE" envDefault:""`
}

// MetricsConfig controls the Prometheus registry.
type MetricsConfig struct {
	Namespace string `env:"NAMESPACE" envDefault:"lst"`
	// Textfile, when set, receives the job metrics in text exposition format.
	Textfile string `env:"TEXTFILE" envDefault:""`
}

// FeatureConfig contains feature flags and limits.
type FeatureConfig struct {
	EnableSearch     bool `env:"ENABLE_SEARCH" envDefault:"true"`
	EnableQueryables bool `env:"ENABLE_QUERYABLES" envDefault:"true"`
	EnableMetrics    bool `env:"ENABLE_METRICS" envDefault:"true"`
	DefaultLimit     int  `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit         int  `env:"MAX_LIMIT" envDefault:"250"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	opts := env.Options{
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDotenv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotenv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch c.Source.Type {
	case SourceDatacube:
		if c.Datacube.Dir == "" {
			return fmt.Errorf("datacube directory is required for the datacube source")
		}
	case SourceSTAC:
		if c.Source.STACURL == "" {
			return fmt.Errorf("STAC URL is required for the stac source")
		}
		if c.Source.Timeout <= 0 {
			return fmt.Errorf("source timeout must be positive, got %s", c.Source.Timeout)
		}
		if c.Source.PageLimit < 1 {
			return fmt.Errorf("source page limit must be at least 1, got %d", c.Source.PageLimit)
		}
	default:
		return fmt.Errorf("source type must be 'datacube' or 'stac', got %q", c.Source.Type)
	}

	if c.Datacube.CatalogsDir == "" {
		return fmt.Errorf("catalogs directory is required")
	}

	switch c.Export.Sink {
	case SinkFile:
		if c.Export.Dir == "" {
			return fmt.Errorf("export directory is required for the file sink")
		}
	case SinkS3:
		if c.Export.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for the s3 sink")
		}
	default:
		return fmt.Errorf("export sink must be 'file' or 's3', got %q", c.Export.Sink)
	}

	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}

	if c.STAC.BaseURL == "" {
		return fmt.Errorf("STAC base URL is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	if c.Features.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.Features.DefaultLimit)
	}

	if c.Features.MaxLimit < c.Features.DefaultLimit {
		return fmt.Errorf("max limit (%d) must be >= default limit (%d)", c.Features.MaxLimit, c.Features.DefaultLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
