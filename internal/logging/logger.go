package logging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap logger whose methods take a context. Export batch,
// provider, conversation and trace ids found in the context are added to
// every entry.
type Logger struct {
	zap    *zap.Logger
	config *Config
}

// NewLogger builds a Logger writing to cfg.Output.
func NewLogger(cfg *Config) (*Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	encoder, err := NewRedactingEncoder(newEncoder(cfg.Format), cfg.Redaction)
	if err != nil {
		return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
	}
	core := newSampledCore(zapcore.NewCore(encoder, cfg.Output, cfg.Level), cfg.Sampling)

	return &Logger{
		zap:    zap.New(core, cfg.options()...).With(staticFields(cfg.Fields)...),
		config: cfg,
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop(), config: NewDefaultConfig()}
}

func (c *Config) options() []zap.Option {
	var opts []zap.Option
	if c.Caller.Enabled {
		// +1 for Logger.log.
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(c.Caller.Skip+1))
	}
	if c.Stacktrace.Level != 0 {
		opts = append(opts, zap.AddStacktrace(c.Stacktrace.Level))
	}
	return opts
}

// staticFields returns cfg.Fields in key order so output is stable.
func staticFields(m map[string]string) []zap.Field {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, len(keys))
	for i, k := range keys {
		fields[i] = zap.String(k, m[k])
	}
	return fields
}

// newEncoder returns a console encoder for terminals or a JSON encoder.
func newEncoder(format string) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "ts"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		ec.EncodeLevel = encodeCapitalLevel
		return zapcore.NewConsoleEncoder(ec)
	}
	ec.EncodeLevel = encodeLevel
	return zapcore.NewJSONEncoder(ec)
}

// log checks the level first so context fields are only built for entries
// that will be written.
func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields []zap.Field) {
	if ce := l.zap.Check(level, msg); ce != nil {
		ce.Write(append(ContextFields(ctx), fields...)...)
	}
}

func (l *Logger) Trace(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, TraceLevel, msg, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields)
}

func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields)
}

// With returns a child logger carrying fields.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zap: l.zap.With(fields...), config: l.config}
}

// Named returns a child logger with name appended to the logger name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name), config: l.config}
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level zapcore.Level) bool {
	return l.zap.Core().Enabled(level)
}

// Sync flushes buffered entries. Errors from syncing a terminal are dropped.
func (l *Logger) Sync() error {
	if err := l.zap.Sync(); err != nil && !isTerminalSyncError(err) {
		return err
	}
	return nil
}

// Underlying returns the zap logger for packages that take one directly.
func (l *Logger) Underlying() *zap.Logger {
	return l.zap
}

// isTerminalSyncError matches the EINVAL/ENOTTY returned by fsync on a tty.
func isTerminalSyncError(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && (errno == syscall.EINVAL || errno == syscall.ENOTTY)
}
