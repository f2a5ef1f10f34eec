package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Duration is a time.Duration that reads and writes Go duration strings
// ("45s", "1m30s") so it works in YAML files and env vars. A bare integer
// is taken as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	parsed, err := time.ParseDuration(s)
	if err != nil {
		secs, convErr := strconv.Atoi(s)
		if convErr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		parsed = time.Duration(secs) * time.Second
	}
	if parsed < 0 {
		return fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Duration returns the value as a time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

const mask = "[REDACTED]"

// Secret holds a credential read from config or the environment. Every
// rendering (fmt, JSON, YAML, text) prints a mask; only Value exposes it.
type Secret string

func (s Secret) masked() string {
	if s == "" {
		return ""
	}
	return mask
}

// Value returns the unmasked credential.
func (s Secret) Value() string {
	return string(s)
}

func (s Secret) IsSet() bool {
	return s != ""
}

func (s Secret) String() string {
	return s.masked()
}

func (s Secret) GoString() string {
	return "Secret(" + mask + ")"
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.masked())
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(s.masked()), nil
}

func (s Secret) MarshalYAML() (any, error) {
	return s.masked(), nil
}

func (s *Secret) UnmarshalText(text []byte) error {
	*s = Secret(text)
	return nil
}
