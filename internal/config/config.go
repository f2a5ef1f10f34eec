// Package config loads chatarchive configuration from a YAML file and
// CHATARCHIVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Tagging backends.
const (
	BackendFastEmbed = "fastembed"
	BackendTEI       = "tei"
)

// Config holds the complete chatarchive configuration.
type Config struct {
	Output    OutputConfig    `koanf:"output" yaml:"output"`
	Tagging   TaggingConfig   `koanf:"tagging" yaml:"tagging"`
	Logging   LoggingConfig   `koanf:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
}

// OutputConfig controls where Markdown files are written and what is
// scrubbed from them.
type OutputConfig struct {
	BasePath string `koanf:"base_path" yaml:"base_path"`

	// RedactSecrets replaces detected credentials with [REDACTED:rule] markers.
	RedactSecrets bool   `koanf:"redact_secrets" yaml:"redact_secrets"`
	Allowlist     string `koanf:"allowlist" yaml:"allowlist,omitempty"`
}

// TaggingConfig configures zero-shot tagging.
type TaggingConfig struct {
	Enabled    bool     `koanf:"enabled" yaml:"enabled"`
	Model      string   `koanf:"model" yaml:"model"`
	Threshold  float64  `koanf:"threshold" yaml:"threshold"`
	MaxTags    int      `koanf:"max_tags" yaml:"max_tags"`
	Categories []string `koanf:"categories" yaml:"categories"`

	// Backend is "fastembed" (local ONNX) or "tei" (HTTP service).
	Backend  string   `koanf:"backend" yaml:"backend"`
	CacheDir string   `koanf:"cache_dir" yaml:"cache_dir,omitempty"`
	BaseURL  string   `koanf:"base_url" yaml:"base_url,omitempty"`
	APIKey   Secret   `koanf:"api_key" yaml:"api_key,omitempty"`
	Timeout  Duration `koanf:"timeout" yaml:"timeout"`
}

// LoggingConfig selects CLI log verbosity and format.
type LoggingConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// TelemetryConfig controls OTLP export of traces and metrics. Protocol is
// "grpc" or "http/protobuf".
type TelemetryConfig struct {
	Enabled    bool    `koanf:"enabled" yaml:"enabled"`
	Endpoint   string  `koanf:"endpoint" yaml:"endpoint"`
	Protocol   string  `koanf:"protocol" yaml:"protocol"`
	Insecure   bool    `koanf:"insecure" yaml:"insecure"`
	SampleRate float64 `koanf:"sample_rate" yaml:"sample_rate"`

	ExportInterval  Duration `koanf:"export_interval" yaml:"export_interval"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultCategories are the labels tagged when none are configured.
var DefaultCategories = []string{
	"framework development",
	"personal reflection",
	"relationship dynamics",
	"consciousness exploration",
	"integration work",
	"practical planning",
	"emotional processing",
	"neurodivergence",
	"creativity",
	"problem solving",
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	return &Config{
		Output: OutputConfig{BasePath: "./output"},
		Tagging: TaggingConfig{
			Enabled:    false,
			Model:      "BAAI/bge-small-en-v1.5",
			Threshold:  0.5,
			MaxTags:    5,
			Categories: append([]string(nil), DefaultCategories...),
			Backend:    BackendFastEmbed,
			BaseURL:    "http://localhost:8080",
			Timeout:    Duration(60 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			Endpoint:        "localhost:4317",
			Protocol:        "grpc",
			Insecure:        true,
			SampleRate:      1.0,
			ExportInterval:  Duration(15 * time.Second),
			ShutdownTimeout: Duration(5 * time.Second),
		},
	}
}

// Validate checks value ranges. Categories are only required when tagging is
// enabled.
func (c *Config) Validate() error {
	var errs []error

	if c.Output.BasePath == "" {
		errs = append(errs, errors.New("output.base_path is required"))
	}

	t := c.Tagging
	if t.Threshold < 0 || t.Threshold > 1 {
		errs = append(errs, fmt.Errorf("tagging.threshold must be between 0 and 1, got %v", t.Threshold))
	}
	if t.MaxTags < 1 {
		errs = append(errs, fmt.Errorf("tagging.max_tags must be >= 1, got %d", t.MaxTags))
	}
	if t.Enabled && len(t.Categories) == 0 {
		errs = append(errs, errors.New("tagging.categories must not be empty when tagging is enabled"))
	}
	switch t.Backend {
	case BackendFastEmbed:
	case BackendTEI:
		if t.Enabled && t.BaseURL == "" {
			errs = append(errs, errors.New("tagging.base_url is required for the tei backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("tagging.backend must be %q or %q, got %q", BackendFastEmbed, BackendTEI, t.Backend))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be 'console' or 'json', got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
