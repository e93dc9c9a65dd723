// Package observability wires OpenTelemetry tracing and metrics for the
// client stack.
//
// Nothing is exported unless InitTracer / InitMeter install providers;
// until then StartSpan returns no-op spans.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("hyperctl"))
//	defer tp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("hyperctl"))
package observability
