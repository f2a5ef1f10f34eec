package embeddings

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const embeddingsInstrumentationName = "github.com/fyrsmithlabs/chatarchive/internal/embeddings"

// Operations recorded by Metrics.
const (
	opDocuments = "documents"
	opQuery     = "query"
)

// Metrics tracks embedding requests made while tagging. Conversations are
// embedded whole, so input size is recorded in characters.
type Metrics struct {
	backend string
	logger  *zap.Logger

	latency    metric.Float64Histogram
	inputChars metric.Int64Histogram
	failures   metric.Int64Counter
}

// NewMetrics creates metrics for one backend ("fastembed" or "tei") on the
// global meter provider.
func NewMetrics(backend string, logger *zap.Logger) *Metrics {
	return newMetrics(otel.Meter(embeddingsInstrumentationName), backend, logger)
}

func newMetrics(meter metric.Meter, backend string, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Metrics{backend: backend, logger: logger}

	var err error
	m.latency, err = meter.Float64Histogram(
		"chatarchive.embeddings.request_duration_seconds",
		metric.WithDescription("Time to embed one request, by backend and operation"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		logger.Warn("embedding latency histogram unavailable", zap.Error(err))
	}

	m.inputChars, err = meter.Int64Histogram(
		"chatarchive.embeddings.input_chars",
		metric.WithDescription("Characters sent per request before model truncation"),
		metric.WithUnit("{char}"),
		metric.WithExplicitBucketBoundaries(64, 256, 1024, 4096, 16384, 65536, 262144),
	)
	if err != nil {
		logger.Warn("embedding input size histogram unavailable", zap.Error(err))
	}

	m.failures, err = meter.Int64Counter(
		"chatarchive.embeddings.failures_total",
		metric.WithDescription("Failed embedding requests, by backend and reason"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn("embedding failure counter unavailable", zap.Error(err))
	}

	return m
}

// Observe records one request of the given operation.
func (m *Metrics) Observe(ctx context.Context, operation string, texts []string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("backend", m.backend),
		attribute.String("operation", operation),
	)

	if m.latency != nil {
		m.latency.Record(ctx, elapsed.Seconds(), attrs)
	}
	if m.inputChars != nil {
		chars := 0
		for _, t := range texts {
			chars += len(t)
		}
		m.inputChars.Record(ctx, int64(chars), attrs)
	}
	if err != nil && m.failures != nil {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("backend", m.backend),
			attribute.String("reason", failureReason(err)),
		))
	}
}

// failureReason buckets errors into a small label set.
func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrProviderClosed):
		return "closed"
	default:
		return "backend"
	}
}
