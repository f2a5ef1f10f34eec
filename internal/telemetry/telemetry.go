package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry owns the trace and metric providers of one chatarchive run.
// A nil *Telemetry is valid and behaves as disabled.
type Telemetry struct {
	config *Config

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	running atomic.Bool

	mu      sync.Mutex
	startup []error
}

// flusher is the part of both SDK providers that Shutdown and ForceFlush use.
type flusher interface {
	ForceFlush(context.Context) error
	Shutdown(context.Context) error
}

// New validates cfg, builds the providers and installs them as the otel
// globals. A disabled config yields an instance that records nothing.
//
// Exporter construction failures do not fail New: the instance is returned
// degraded and the export continues untraced.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg}
	t.running.Store(true)
	if !cfg.Enabled {
		return t, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	res := newResource(cfg)

	if tp, err := newTracerProvider(ctx, cfg, res, o); err != nil {
		t.degrade(fmt.Errorf("tracer provider: %w", err))
	} else {
		t.tp = tp
		otel.SetTracerProvider(tp)
	}

	if mp, err := newMeterProvider(ctx, cfg, res, o); err != nil {
		t.degrade(fmt.Errorf("meter provider: %w", err))
	} else {
		t.mp = mp
		otel.SetMeterProvider(mp)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

// Tracer falls back to the global provider when no SDK provider was built.
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if t == nil || t.tp == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tp.Tracer(name, opts...)
}

// Meter falls back to the global provider when no SDK provider was built.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.mp == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.mp.Meter(name, opts...)
}

// Shutdown flushes and stops both providers. Without a deadline on ctx it is
// bounded by Config.ShutdownTimeout. Only the first call does any work.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || !t.running.CompareAndSwap(true, false) {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.config != nil && t.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout)
		defer cancel()
	}

	err := t.each(func(kind string, f flusher) error {
		if err := f.Shutdown(ctx); err != nil {
			return fmt.Errorf("%s provider shutdown: %w", kind, err)
		}
		return nil
	})
	return err
}

// ForceFlush exports pending spans and metrics without stopping.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.each(func(kind string, f flusher) error {
		if err := f.ForceFlush(ctx); err != nil {
			return fmt.Errorf("%s flush: %w", kind, err)
		}
		return nil
	})
}

func (t *Telemetry) each(fn func(kind string, f flusher) error) error {
	var errs []error
	if t.tp != nil {
		errs = append(errs, fn("trace", t.tp))
	}
	if t.mp != nil {
		errs = append(errs, fn("meter", t.mp))
	}
	return errors.Join(errs...)
}

// HealthStatus is a snapshot of Telemetry state. Err joins every provider
// construction failure.
type HealthStatus struct {
	Healthy  bool
	Degraded bool
	Err      error
}

func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return HealthStatus{
		Healthy:  t.running.Load(),
		Degraded: len(t.startup) > 0,
		Err:      errors.Join(t.startup...),
	}
}

// IsEnabled reports whether telemetry was requested and is still running.
func (t *Telemetry) IsEnabled() bool {
	if t == nil || t.config == nil {
		return false
	}
	return t.config.Enabled && t.running.Load()
}

func (t *Telemetry) degrade(err error) {
	t.mu.Lock()
	t.startup = append(t.startup, err)
	t.mu.Unlock()
}
