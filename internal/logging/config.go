package logging

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/chatarchive/internal/config"
)

// Config describes how NewLogger builds its core.
type Config struct {
	Level      zapcore.Level
	Format     string // "console" or "json"
	Sampling   SamplingConfig
	Caller     CallerConfig
	Stacktrace StacktraceConfig
	Fields     map[string]string
	Redaction  RedactionConfig

	// Output defaults to stderr; stdout belongs to command output.
	Output zapcore.WriteSyncer
}

type SamplingConfig struct {
	Enabled bool
	Tick    config.Duration
	Levels  map[zapcore.Level]LevelSamplingConfig
}

// LevelSamplingConfig keeps the first Initial entries per tick, then every
// Thereafter-th. Thereafter 0 drops the rest.
type LevelSamplingConfig struct {
	Initial    int
	Thereafter int
}

type CallerConfig struct {
	Enabled bool
	Skip    int
}

type StacktraceConfig struct {
	Level zapcore.Level
}

// RedactionConfig lists field keys whose values are masked and patterns
// masked inside any string value.
type RedactionConfig struct {
	Enabled  bool
	Fields   []string
	Patterns []string
}

var (
	sensitiveKeys = []string{
		"api_key", "authorization", "bearer", "credential",
		"password", "private_key", "secret", "token",
	}
	sensitivePatterns = []string{
		`(?i)bearer\s+\S+`,
		`(?i)api[_-]?key[=:]\s*\S+`,
	}
)

// NewDefaultConfig returns the CLI defaults: warn and above, console format,
// written to stderr.
func NewDefaultConfig() *Config {
	return &Config{
		Level:  zapcore.WarnLevel,
		Format: "console",
		Output: zapcore.Lock(os.Stderr),
		Sampling: SamplingConfig{
			Enabled: true,
			Tick:    config.Duration(time.Second),
			Levels:  DefaultLevelSamplingConfig(),
		},
		Caller:     CallerConfig{Skip: 1},
		Stacktrace: StacktraceConfig{Level: zapcore.FatalLevel},
		Fields:     map[string]string{"service": "chatarchive"},
		Redaction: RedactionConfig{
			Enabled:  true,
			Fields:   append([]string(nil), sensitiveKeys...),
			Patterns: append([]string(nil), sensitivePatterns...),
		},
	}
}

// FromSettings applies the level and format from the application
// configuration on top of NewDefaultConfig. Debug and trace turn on caller
// annotation.
func FromSettings(s config.LoggingConfig) (*Config, error) {
	cfg := NewDefaultConfig()
	if s.Level != "" {
		level, err := LevelFromString(s.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", s.Level, err)
		}
		cfg.Level = level
	}
	if s.Format != "" {
		cfg.Format = s.Format
	}
	cfg.Caller.Enabled = cfg.Level <= zapcore.DebugLevel
	return cfg, cfg.Validate()
}

// DefaultLevelSamplingConfig samples trace and debug hardest. Error and
// above are never sampled.
func DefaultLevelSamplingConfig() map[zapcore.Level]LevelSamplingConfig {
	return map[zapcore.Level]LevelSamplingConfig{
		TraceLevel:         {Initial: 1},
		zapcore.DebugLevel: {Initial: 10},
		zapcore.InfoLevel:  {Initial: 100, Thereafter: 10},
		zapcore.WarnLevel:  {Initial: 100, Thereafter: 100},
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Format != "json" && c.Format != "console":
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	case c.Output == nil:
		return errors.New("output writer is required")
	case c.Sampling.Enabled && c.Sampling.Tick.Duration() <= 0:
		return errors.New("sampling tick must be > 0 when sampling enabled")
	case c.Caller.Enabled && c.Caller.Skip < 0:
		return fmt.Errorf("caller skip must be >= 0, got %d", c.Caller.Skip)
	}

	if c.Redaction.Enabled {
		for _, p := range c.Redaction.Patterns {
			if _, err := compilePattern(p); err != nil {
				return err
			}
		}
	}

	for k, v := range c.Fields {
		if k == "" || v == "" {
			return fmt.Errorf("static field %q: key and value are required", k)
		}
	}
	return nil
}
