package logging

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger is a Logger whose entries are kept in memory for assertions.
type TestLogger struct {
	*Logger
	observed *observer.ObservedLogs
}

// NewTestLogger records every entry down to TraceLevel. Context fields are
// recorded like any other field.
func NewTestLogger() *TestLogger {
	core, observed := observer.New(TraceLevel)
	return &TestLogger{
		Logger:   &Logger{zap: zap.New(core), config: NewDefaultConfig()},
		observed: observed,
	}
}

// All returns every recorded entry.
func (t *TestLogger) All() []observer.LoggedEntry {
	return t.observed.All()
}

// FilterMessage returns entries whose message equals msg.
func (t *TestLogger) FilterMessage(msg string) *observer.ObservedLogs {
	return t.observed.FilterMessage(msg)
}

// AtLevel returns entries logged at exactly level.
func (t *TestLogger) AtLevel(level zapcore.Level) []observer.LoggedEntry {
	return t.observed.FilterLevelExact(level).All()
}

// Reset drops recorded entries.
func (t *TestLogger) Reset() {
	_ = t.observed.TakeAll()
}

func (t *TestLogger) matching(level zapcore.Level, snippet string) []observer.LoggedEntry {
	return t.observed.FilterLevelExact(level).FilterMessageSnippet(snippet).All()
}

// AssertLogged fails tb unless an entry at level contains snippet.
func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if len(t.matching(level, snippet)) == 0 {
		tb.Errorf("no %v entry containing %q; got %d entries: %v", level, snippet, t.observed.Len(), t.messages())
	}
}

// AssertNotLogged fails tb if an entry at level contains snippet.
func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, snippet string) {
	tb.Helper()
	if n := len(t.matching(level, snippet)); n > 0 {
		tb.Errorf("found %d unexpected %v entries containing %q", n, level, snippet)
	}
}

// AssertField fails tb unless an entry with message msg has key=expected.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, expected any) {
	tb.Helper()
	entries := t.observed.FilterMessage(msg).All()
	for _, e := range entries {
		if got, ok := e.ContextMap()[key]; ok && reflect.DeepEqual(got, expected) {
			return
		}
	}
	tb.Errorf("%d entries %q, none with %s=%v", len(entries), msg, key, expected)
}

func (t *TestLogger) messages() []string {
	entries := t.observed.All()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}
