// Package telemetry installs OpenTelemetry trace and metric providers that
// export over OTLP.
//
// Instrumented packages use the otel globals, so nothing is exported until
// New runs with telemetry enabled. Telemetry is off by default. Point it at a
// collector to enable it:
//
//	telemetry:
//	  enabled: true
//	  endpoint: "localhost:4317"
//	  protocol: grpc
//	  sample_rate: 1.0
//	  export_interval: "15s"
//
// Failures to build an exporter do not fail the command; the instance is
// marked degraded and the globals stay no-op.
//
// Use TestTelemetry in tests:
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	_, span := tracer.Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
