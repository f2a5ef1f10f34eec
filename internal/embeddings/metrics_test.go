package embeddings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *metric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func newTestMetrics(backend string) (*Metrics, *metric.ManualReader) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return newMetrics(mp.Meter(embeddingsInstrumentationName), backend, nil), reader
}

func TestMetrics_Observe(t *testing.T) {
	m, reader := newTestMetrics(BackendTEI)
	ctx := context.Background()

	m.Observe(ctx, opDocuments, []string{"hello", "world!"}, 120*time.Millisecond, nil)
	m.Observe(ctx, opQuery, []string{"coding"}, 30*time.Millisecond, nil)
	m.Observe(ctx, opDocuments, []string{"x"}, time.Second, fmt.Errorf("wrapped: %w", context.DeadlineExceeded))

	data := collect(t, reader)

	latency, ok := data["chatarchive.embeddings.request_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range latency.DataPoints {
		count += dp.Count
		backend, _ := dp.Attributes.Value("backend")
		assert.Equal(t, BackendTEI, backend.AsString())
	}
	assert.Equal(t, uint64(3), count)
	assert.Len(t, latency.DataPoints, 2, "one series per operation")

	chars, ok := data["chatarchive.embeddings.input_chars"].(metricdata.Histogram[int64])
	require.True(t, ok)
	var sum int64
	for _, dp := range chars.DataPoints {
		sum += dp.Sum
	}
	assert.Equal(t, int64(len("hello")+len("world!")+len("coding")+len("x")), sum)

	failures, ok := data["chatarchive.embeddings.failures_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.Equal(t, int64(1), failures.DataPoints[0].Value)
	reason, _ := failures.DataPoints[0].Attributes.Value(attribute.Key("reason"))
	assert.Equal(t, "timeout", reason.AsString())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe(context.Background(), opQuery, nil, time.Millisecond, nil)
	})
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput), "empty_input"},
		{ErrProviderClosed, "closed"},
		{fmt.Errorf("%w: status 503", ErrEmbeddingFailed), "backend"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, failureReason(tt.err), tt.err.Error())
	}
}
