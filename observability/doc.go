// Package observability wires OpenTelemetry tracing and metrics for the engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("minispark"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTask)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("minispark"))
//	defer mp.Shutdown(ctx)
//
//	m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	m.RecordTask(ctx, "MAP", elapsed)
//
// Without InitTracer / InitMeter the global no-op providers are used, so
// spans and instruments cost nothing in tests and library use.
//
// Telemetry bundles both providers as a component.Component for the CLI.
package observability
