package export

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"

	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/provider"
	"github.com/fyrsmithlabs/chatarchive/internal/telemetry"
)

func TestPipeline_ConversationSpans(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	tt.Install(t)

	w := &fakeWriter{failOn: 2}
	p := newTestPipeline(w, nil, logging.NewTestLogger())

	_, err := p.ExportConversations(context.Background(), testConversations(3), Options{})
	require.Error(t, err)

	spans := tt.SpansByName(spanConversation)
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "write failed", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestManager_BatchSpan(t *testing.T) {
	tt := telemetry.NewTestTelemetry()
	tt.Install(t)

	results, err := NewManager().ExecuteExport(context.Background(), claudeData(), ExportContext{
		Provider:   provider.NewLinearProvider(),
		OutputPath: t.TempDir(),
		Logger:     logging.NewTestLogger().Logger,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	tt.AssertSpanExists(t, spanBatch)
	tt.AssertSpanAttribute(t, spanBatch, "export.provider", "claude")
	tt.AssertSpanAttribute(t, spanBatch, "export.written", int64(2))
	tt.AssertSpanAttribute(t, spanBatch, "export.tagging", false)

	batch := tt.SpanByName(spanBatch)
	for _, span := range tt.SpansByName(spanConversation) {
		assert.Equal(t, batch.SpanContext().SpanID(), span.Parent().SpanID())
		assert.Equal(t, batch.SpanContext().TraceID(), span.SpanContext().TraceID())
	}
	assert.Equal(t, int64(2), tt.CounterValue(t, "chatarchive.export.conversations_total"))
}
