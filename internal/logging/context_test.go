package logging

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_Trace(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	fields := ContextFields(ctx)
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"trace_id", "span_id", "trace_sampled"}, keys)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields[0].String)
}

func TestWithString_EmptyIgnored(t *testing.T) {
	ctx := WithConversationID(context.Background(), "")
	assert.Equal(t, "", ConversationIDFromContext(ctx))
	assert.Empty(t, ContextFields(ctx))
}

func TestSanitizeID(t *testing.T) {
	long := strings.Repeat("é", 100) // 200 bytes
	got := sanitizeID(long)
	assert.LessOrEqual(t, len(got), maxIDLen)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "ab", sanitizeID("a\xffb"))
	assert.Equal(t, "plain-id", sanitizeID("plain-id"))
}
