package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/chatarchive/internal/config"
)

// maxPatternLen rejects redaction patterns long enough to be a ReDoS risk.
const maxPatternLen = 200

const (
	redactedKey     = "[REDACTED]"
	redactedPattern = "[REDACTED:pattern]"
)

// masked hides a value but keeps its length, which helps when debugging an
// empty or truncated API key.
func masked(n int) string {
	return "[REDACTED:" + strconv.Itoa(n) + "]"
}

// Secret logs a config.Secret as its masked length.
func Secret(key string, val config.Secret) zap.Field {
	return zap.String(key, masked(len(val.Value())))
}

// RedactedString logs val as its masked length.
func RedactedString(key, val string) zap.Field {
	return zap.String(key, masked(len(val)))
}

// redactionRules decide which fields are hidden: by key name, or for string
// values by pattern.
type redactionRules struct {
	keys     map[string]struct{}
	patterns []*regexp.Regexp
}

func compileRedaction(cfg RedactionConfig) (*redactionRules, error) {
	rules := &redactionRules{keys: make(map[string]struct{}, len(cfg.Fields))}
	if !cfg.Enabled {
		return rules, nil
	}
	for _, f := range cfg.Fields {
		rules.keys[strings.ToLower(f)] = struct{}{}
	}
	for _, p := range cfg.Patterns {
		re, err := compilePattern(p)
		if err != nil {
			return nil, err
		}
		rules.patterns = append(rules.patterns, re)
	}
	return rules, nil
}

func compilePattern(p string) (*regexp.Regexp, error) {
	if len(p) > maxPatternLen {
		return nil, fmt.Errorf("redaction pattern too long (max %d chars): %q", maxPatternLen, p)
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, fmt.Errorf("invalid redaction pattern %q: %w", p, err)
	}
	return re, nil
}

func (r *redactionRules) empty() bool {
	return len(r.keys) == 0 && len(r.patterns) == 0
}

func (r *redactionRules) hidesKey(key string) bool {
	_, ok := r.keys[strings.ToLower(key)]
	return ok
}

// stringValue returns the replacement for a string field, if any.
func (r *redactionRules) stringValue(key, val string) (string, bool) {
	if r.hidesKey(key) {
		return redactedKey, true
	}
	for _, re := range r.patterns {
		if re.MatchString(val) {
			return redactedPattern, true
		}
	}
	return "", false
}

func (r *redactionRules) field(f zapcore.Field) zapcore.Field {
	if f.Type == zapcore.StringType {
		if v, ok := r.stringValue(f.Key, f.String); ok {
			return zap.String(f.Key, v)
		}
		return f
	}
	if r.hidesKey(f.Key) {
		return zap.String(f.Key, redactedKey)
	}
	return f
}

// RedactingEncoder hides sensitive fields before they reach the wrapped
// encoder. Nested values are not inspected.
type RedactingEncoder struct {
	zapcore.Encoder
	rules *redactionRules
}

// NewRedactingEncoder wraps base with the rules in cfg.
func NewRedactingEncoder(base zapcore.Encoder, cfg RedactionConfig) (*RedactingEncoder, error) {
	rules, err := compileRedaction(cfg)
	if err != nil {
		return nil, err
	}
	return &RedactingEncoder{Encoder: base, rules: rules}, nil
}

// AddString covers fields attached with Logger.With.
func (e *RedactingEncoder) AddString(key, val string) {
	if v, ok := e.rules.stringValue(key, val); ok {
		val = v
	}
	e.Encoder.AddString(key, val)
}

func (e *RedactingEncoder) AddByteString(key string, val []byte) {
	if e.rules.hidesKey(key) {
		e.Encoder.AddString(key, redactedKey)
		return
	}
	e.Encoder.AddByteString(key, val)
}

func (e *RedactingEncoder) AddBinary(key string, val []byte) {
	if e.rules.hidesKey(key) {
		e.Encoder.AddString(key, redactedKey)
		return
	}
	e.Encoder.AddBinary(key, val)
}

func (e *RedactingEncoder) AddReflected(key string, val any) error {
	if e.rules.hidesKey(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddReflected(key, val)
}

func (e *RedactingEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error {
	if e.rules.hidesKey(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddArray(key, arr)
}

func (e *RedactingEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error {
	if e.rules.hidesKey(key) {
		e.Encoder.AddString(key, redactedKey)
		return nil
	}
	return e.Encoder.AddObject(key, obj)
}

// EncodeEntry covers fields passed with a single log call.
func (e *RedactingEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	if e.rules.empty() {
		return e.Encoder.EncodeEntry(ent, fields)
	}
	out := make([]zapcore.Field, len(fields))
	for i, f := range fields {
		out[i] = e.rules.field(f)
	}
	return e.Encoder.EncodeEntry(ent, out)
}

func (e *RedactingEncoder) Clone() zapcore.Encoder {
	return &RedactingEncoder{Encoder: e.Encoder.Clone(), rules: e.rules}
}
