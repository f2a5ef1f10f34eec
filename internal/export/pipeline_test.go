package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/chatarchive/internal/conversation"
	"github.com/fyrsmithlabs/chatarchive/internal/input"
	"github.com/fyrsmithlabs/chatarchive/internal/logging"
	"github.com/fyrsmithlabs/chatarchive/internal/provider"
	"github.com/fyrsmithlabs/chatarchive/internal/secrets"
)

var errBoom = errors.New("boom")

type fakeTagger struct {
	tags  map[string][]string
	fail  map[string]bool
	calls []string
}

func (f *fakeTagger) TagConversation(_ context.Context, conv *conversation.Conversation) ([]string, error) {
	f.calls = append(f.calls, conv.UUID)
	if f.fail[conv.UUID] {
		return nil, errBoom
	}
	return f.tags[conv.UUID], nil
}

type fakeWriter struct {
	failOn int
	writes []string
}

func (w *fakeWriter) Write(_ context.Context, path, _ string) error {
	if w.failOn > 0 && len(w.writes)+1 == w.failOn {
		return fmt.Errorf("disk full: %w", errBoom)
	}
	w.writes = append(w.writes, path)
	return nil
}

func testConversations(n int) []conversation.Conversation {
	base := time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)
	convs := make([]conversation.Conversation, n)
	for i := range convs {
		created := base.Add(time.Duration(i) * 24 * time.Hour)
		convs[i] = conversation.Conversation{
			UUID:      fmt.Sprintf("c%d", i+1),
			Title:     fmt.Sprintf("Chat %d", i+1),
			CreatedAt: created,
			UpdatedAt: created,
			Messages: []conversation.Message{
				{ID: "m", Sender: conversation.SenderHuman, Text: "hello", CreatedAt: created},
			},
		}
	}
	return convs
}

func newTestPipeline(w FileWriter, tagger ConversationTagger, logger *logging.TestLogger) *Pipeline {
	return NewPipeline(
		provider.NewLinearProvider(),
		NewMarkdownTransformer(),
		NewOrganizer("out"),
		w,
		tagger,
		logger.Logger,
	)
}

func TestPipeline_ExportsInOrder(t *testing.T) {
	w := &fakeWriter{}
	p := newTestPipeline(w, nil, logging.NewTestLogger())

	var progress [][2]int
	results, err := p.ExportConversations(context.Background(), testConversations(3), Options{
		OnProgress: func(done, total int) { progress = append(progress, [2]int{done, total}) },
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, fmt.Sprintf("c%d", i+1), r.Conversation.UUID)
		assert.Equal(t, w.writes[i], r.Path)
		assert.Nil(t, r.Tags)
	}
	assert.Equal(t, filepath.Join("out", "2024", "04-april", "01-chat-1.md"), results[0].Path)
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestPipeline_TaggingDisabledSkipsTagger(t *testing.T) {
	tagger := &fakeTagger{}
	p := newTestPipeline(&fakeWriter{}, tagger, logging.NewTestLogger())

	_, err := p.ExportConversations(context.Background(), testConversations(2), Options{EnableTagging: false})
	require.NoError(t, err)
	assert.Empty(t, tagger.calls)
}

func TestPipeline_TaggingFailureIsIsolated(t *testing.T) {
	tagger := &fakeTagger{
		tags: map[string][]string{"c1": {"Work"}, "c3": {"Coding", "Learning"}},
		fail: map[string]bool{"c2": true},
	}
	logger := logging.NewTestLogger()
	w := &fakeWriter{}
	p := newTestPipeline(w, tagger, logger)

	results, err := p.ExportConversations(context.Background(), testConversations(3), Options{EnableTagging: true})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"Work"}, results[0].Tags)
	assert.Empty(t, results[1].Tags)
	assert.Equal(t, []string{"Coding", "Learning"}, results[2].Tags)
	assert.Len(t, w.writes, 3)

	logger.AssertLogged(t, zapcore.WarnLevel, "tagging failed")
	logger.AssertField(t, "tagging failed, exporting without tags", "conversation.id", "c2")
}

func TestPipeline_WriteFailureAborts(t *testing.T) {
	tagger := &fakeTagger{}
	w := &fakeWriter{failOn: 2}
	logger := logging.NewTestLogger()
	p := newTestPipeline(w, tagger, logger)

	results, err := p.ExportConversations(context.Background(), testConversations(3), Options{EnableTagging: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "c2")
	assert.Contains(t, err.Error(), `"Chat 2"`)
	assert.Contains(t, err.Error(), filepath.Join("out", "2024", "04-april", "02-chat-2.md"))

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Conversation.UUID)
	assert.Equal(t, []string{"c1", "c2"}, tagger.calls, "no work after the failing conversation")
	logger.AssertLogged(t, zapcore.ErrorLevel, "write failed")
}

func TestPipeline_CancelledBetweenConversations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &fakeWriter{}
	p := newTestPipeline(w, nil, logging.NewTestLogger())

	results, err := p.ExportConversations(ctx, testConversations(3), Options{
		OnProgress: func(done, _ int) {
			if done == 2 {
				cancel()
			}
		},
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, results, 2)
	assert.Len(t, w.writes, 2)
}

func TestPipeline_Export(t *testing.T) {
	dir := t.TempDir()
	data := &input.Data{
		Source: "conversations.json",
		Conversations: json.RawMessage(`[
			{"uuid": "123", "name": "Test Chat", "created_at": "2023-01-01T10:00:00Z", "updated_at": "2023-01-01T11:00:00Z",
			 "chat_messages": [{"uuid": "m1", "text": "Hello", "sender": "human", "created_at": "2023-01-01T10:00:00Z"}]},
			42
		]`),
	}

	logger := logging.NewTestLogger()
	p := NewPipeline(provider.NewLinearProvider(), NewMarkdownTransformer(), NewOrganizer(dir), NewWriter(), nil, logger.Logger)

	results, err := p.Export(context.Background(), data, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)

	want := filepath.Join(dir, "2023", "01-january", "01-test-chat.md")
	assert.Equal(t, want, results[0].Path)

	content, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(content), "title: Test Chat")
	assert.Contains(t, string(content), "### HUMAN (2023-01-01T10:00:00.000Z)")

	logger.AssertLogged(t, zapcore.WarnLevel, "skipped undecodable records")
}

func TestPipeline_NilData(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(provider.NewLinearProvider(), NewMarkdownTransformer(), NewOrganizer(dir), NewWriter(), nil, logging.NewTestLogger().Logger)

	convs := p.Normalize(context.Background(), nil)
	assert.NotNil(t, convs)
	assert.Empty(t, convs)

	results, err := p.Export(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPipeline_Metrics(t *testing.T) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	tagger := &fakeTagger{fail: map[string]bool{"c1": true}}
	p := newTestPipeline(&fakeWriter{failOn: 3}, tagger, logging.NewTestLogger())
	p.metrics = &Metrics{meter: mp.Meter(exportInstrumentationName), logger: zap.NewNop()}
	p.metrics.init()

	_, err := p.ExportConversations(context.Background(), testConversations(3), Options{EnableTagging: true})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", m.Name)
			for _, dp := range sum.DataPoints {
				got[m.Name] += dp.Value
			}
		}
	}

	assert.Equal(t, map[string]int64{
		"chatarchive.export.conversations_total":    2,
		"chatarchive.export.tagging_failures_total": 1,
		"chatarchive.export.write_failures_total":   1,
	}, got)
}

type fakeRedactor struct {
	secret string
	order  *[]string
}

func (f *fakeRedactor) RedactConversation(conv *conversation.Conversation) *secrets.Result {
	if f.order != nil {
		*f.order = append(*f.order, "redact:"+conv.UUID)
	}
	res := &secrets.Result{ByRule: map[string]int{}}
	for i := range conv.Messages {
		if strings.Contains(conv.Messages[i].Text, f.secret) {
			conv.Messages[i].Text = strings.ReplaceAll(conv.Messages[i].Text, f.secret, "[REDACTED:test-rule]")
			res.Findings = append(res.Findings, secrets.Finding{RuleID: "test-rule"})
			res.ByRule["test-rule"]++
		}
	}
	return res
}

type orderTagger struct {
	order *[]string
	texts []string
}

func (o *orderTagger) TagConversation(_ context.Context, conv *conversation.Conversation) ([]string, error) {
	*o.order = append(*o.order, "tag:"+conv.UUID)
	o.texts = append(o.texts, conv.Messages[0].Text)
	return []string{}, nil
}

func TestPipeline_RedactsBeforeTagging(t *testing.T) {
	var order []string
	tagger := &orderTagger{order: &order}
	logger := logging.NewTestLogger()
	p := newTestPipeline(&fakeWriter{}, tagger, logger)
	p.redactor = &fakeRedactor{secret: "hunter2", order: &order}

	convs := testConversations(2)
	convs[0].Messages[0].Text = "my password is hunter2"

	results, err := p.ExportConversations(context.Background(), convs, Options{EnableTagging: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"redact:c1", "tag:c1", "redact:c2", "tag:c2"}, order)
	assert.Equal(t, "my password is [REDACTED:test-rule]", tagger.texts[0])
	assert.Equal(t, 1, results[0].Redacted)
	assert.Zero(t, results[1].Redacted)
	logger.AssertField(t, "redacted secrets", "conversation.id", "c1")
}

func TestNewPipeline_WithRedactor(t *testing.T) {
	r := &fakeRedactor{secret: "x"}
	p := NewPipeline(provider.NewLinearProvider(), NewMarkdownTransformer(), NewOrganizer("out"), &fakeWriter{}, nil, nil, WithRedactor(r))
	assert.Same(t, r, p.redactor)
}
