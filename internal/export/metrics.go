package export

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const exportInstrumentationName = "github.com/fyrsmithlabs/chatarchive/internal/export"

// Metrics holds export pipeline counters.
type Metrics struct {
	meter         metric.Meter
	logger        *zap.Logger
	conversations metric.Int64Counter
	tagFailures   metric.Int64Counter
	writeFailures metric.Int64Counter
	redacted      metric.Int64Counter
}

// NewMetrics creates export metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	m := &Metrics{
		meter:  otel.Meter(exportInstrumentationName),
		logger: logger,
	}
	m.init()
	return m
}

func (m *Metrics) init() {
	var err error

	m.conversations, err = m.meter.Int64Counter(
		"chatarchive.export.conversations_total",
		metric.WithDescription("Conversations written to the archive, labeled by provider"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		m.logger.Warn("failed to create conversations counter", zap.Error(err))
	}

	m.tagFailures, err = m.meter.Int64Counter(
		"chatarchive.export.tagging_failures_total",
		metric.WithDescription("Conversations exported without tags because classification failed"),
		metric.WithUnit("{conversation}"),
	)
	if err != nil {
		m.logger.Warn("failed to create tagging failures counter", zap.Error(err))
	}

	m.writeFailures, err = m.meter.Int64Counter(
		"chatarchive.export.write_failures_total",
		metric.WithDescription("Failed document writes. Each one aborts its batch."),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		m.logger.Warn("failed to create write failures counter", zap.Error(err))
	}

	m.redacted, err = m.meter.Int64Counter(
		"chatarchive.export.secrets_redacted_total",
		metric.WithDescription("Secrets replaced with redaction markers"),
		metric.WithUnit("{secret}"),
	)
	if err != nil {
		m.logger.Warn("failed to create redaction counter", zap.Error(err))
	}
}

func providerAttr(provider string) metric.AddOption {
	return metric.WithAttributes(attribute.String("provider", provider))
}

// RecordExported counts one written conversation.
func (m *Metrics) RecordExported(ctx context.Context, provider string) {
	if m.conversations != nil {
		m.conversations.Add(ctx, 1, providerAttr(provider))
	}
}

// RecordTaggingFailure counts one conversation whose tagging failed.
func (m *Metrics) RecordTaggingFailure(ctx context.Context, provider string) {
	if m.tagFailures != nil {
		m.tagFailures.Add(ctx, 1, providerAttr(provider))
	}
}

// RecordWriteFailure counts one failed write.
func (m *Metrics) RecordWriteFailure(ctx context.Context, provider string) {
	if m.writeFailures != nil {
		m.writeFailures.Add(ctx, 1, providerAttr(provider))
	}
}

// RecordRedacted counts secrets removed from one conversation.
func (m *Metrics) RecordRedacted(ctx context.Context, provider string, n int) {
	if m.redacted != nil {
		m.redacted.Add(ctx, int64(n), providerAttr(provider))
	}
}
