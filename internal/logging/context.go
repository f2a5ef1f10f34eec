package logging

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ContextFields extracts correlation data from context.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 6)

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
		if sc.IsSampled() {
			fields = append(fields, zap.Bool("trace_sampled", true))
		}
	}

	if batchID := BatchIDFromContext(ctx); batchID != "" {
		fields = append(fields, zap.String("export.batch", batchID))
	}
	if provider := ProviderFromContext(ctx); provider != "" {
		fields = append(fields, zap.String("export.provider", provider))
	}
	if convID := ConversationIDFromContext(ctx); convID != "" {
		fields = append(fields, zap.String("conversation.id", convID))
	}

	return fields
}

type batchCtxKey struct{}
type providerCtxKey struct{}
type conversationCtxKey struct{}

// maxIDLen bounds identifiers copied into log fields; export files can carry
// arbitrary strings in id positions.
const maxIDLen = 128

// sanitizeID truncates to maxIDLen bytes on a rune boundary and drops
// invalid UTF-8.
func sanitizeID(id string) string {
	id = strings.ToValidUTF8(id, "")
	if len(id) <= maxIDLen {
		return id
	}
	cut := maxIDLen
	for cut > 0 && !utf8.RuneStart(id[cut]) {
		cut--
	}
	return id[:cut]
}

func withString(ctx context.Context, key any, value string) context.Context {
	value = sanitizeID(value)
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key any) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// WithBatchID tags every log line of one export run. Empty ids are ignored.
func WithBatchID(ctx context.Context, id string) context.Context {
	return withString(ctx, batchCtxKey{}, id)
}

// BatchIDFromContext extracts the export batch id.
func BatchIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, batchCtxKey{})
}

// WithProvider records the export provider ("claude", "chatgpt").
func WithProvider(ctx context.Context, provider string) context.Context {
	return withString(ctx, providerCtxKey{}, provider)
}

// ProviderFromContext extracts the export provider.
func ProviderFromContext(ctx context.Context) string {
	return stringFrom(ctx, providerCtxKey{})
}

// WithConversationID records the conversation being processed.
func WithConversationID(ctx context.Context, id string) context.Context {
	return withString(ctx, conversationCtxKey{}, id)
}

// ConversationIDFromContext extracts the conversation id.
func ConversationIDFromContext(ctx context.Context) string {
	return stringFrom(ctx, conversationCtxKey{})
}

type loggerCtxKey struct{}

// WithLogger stores logger in context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey{}, logger)
}

// FromContext retrieves logger from context.
// Returns a nop logger if not found.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*Logger); ok {
		return l
	}
	return NewNop()
}
