package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MeterConfig configures the OTLP metric exporter.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Insecure       bool
	// Interval is the export period.
	Interval time.Duration
}

// DefaultMeterConfig targets a local collector with a 15s export period.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName: serviceName,
		Endpoint:    "localhost:4318",
		Insecure:    true,
		Interval:    15 * time.Second,
	}
}

// InitMeter installs a periodic OTLP meter provider as the global one.
func InitMeter(ctx context.Context, cfg MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the client-side instruments: HTTP exchanges recorded by
// the transport and API operations recorded by the hypermedia client.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	retryTotal        metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.requestTotal, err = meter.Int64Counter("http.client.requests",
		metric.WithDescription("HTTP requests sent")); err != nil {
		return nil, fmt.Errorf("creating http.client.requests counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.client.duration",
		metric.WithDescription("HTTP exchange duration"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating http.client.duration histogram: %w", err)
	}
	if m.requestActive, err = meter.Int64UpDownCounter("http.client.active",
		metric.WithDescription("HTTP requests in flight")); err != nil {
		return nil, fmt.Errorf("creating http.client.active counter: %w", err)
	}
	if m.operationTotal, err = meter.Int64Counter("hyper.operations",
		metric.WithDescription("Hypermedia client operations")); err != nil {
		return nil, fmt.Errorf("creating hyper.operations counter: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("hyper.operation.duration",
		metric.WithDescription("Hypermedia client operation duration, retries included"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating hyper.operation.duration histogram: %w", err)
	}
	if m.retryTotal, err = meter.Int64Counter("hyper.conflict.retries",
		metric.WithDescription("Requests retried after a 409")); err != nil {
		return nil, fmt.Errorf("creating hyper.conflict.retries counter: %w", err)
	}
	return m, nil
}

// RecordRequestStart marks an HTTP exchange as in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd records a finished HTTP exchange.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, method, status string, d time.Duration) {
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("method", method),
		attribute.String("status", status),
	))
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("service", service),
		attribute.String("method", method),
	))
}

// RecordOperation records a client operation such as list or update.
func (m *Metrics) RecordOperation(ctx context.Context, operation, typeName, status string, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("type", typeName),
		attribute.String("status", status),
	)
	m.operationTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordRetry counts a conflict retry.
func (m *Metrics) RecordRetry(ctx context.Context, operation string) {
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
