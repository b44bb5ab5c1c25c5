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

	"github.com/kbukum/minispark/logger"
)

// InstrumentationName scopes every meter and tracer created by the engine.
const InstrumentationName = "github.com/kbukum/minispark"

// Instrument names.
const (
	MetricTaskTotal      = "minispark.task.total"
	MetricTaskDuration   = "minispark.task.duration"
	MetricActionTotal    = "minispark.action.total"
	MetricActionDuration = "minispark.action.duration"
	MetricErrorTotal     = "minispark.error.total"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns defaults for a local collector.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "dev",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter installs a meter provider exporting over OTLP HTTP as the global
// provider. The caller shuts it down on exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the engine's instruments.
type Metrics struct {
	taskTotal      metric.Int64Counter
	taskDuration   metric.Float64Histogram
	actionTotal    metric.Int64Counter
	actionDuration metric.Float64Histogram
	errorTotal     metric.Int64Counter
}

// NewMetrics creates the engine instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	taskTotal, err := meter.Int64Counter(MetricTaskTotal,
		metric.WithDescription("Partition tasks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricTaskTotal, err)
	}

	taskDuration, err := meter.Float64Histogram(MetricTaskDuration,
		metric.WithDescription("Partition task execution time"),
		metric.WithUnit("us"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricTaskDuration, err)
	}

	actionTotal, err := meter.Int64Counter(MetricActionTotal,
		metric.WithDescription("Actions (count, print, collect) completed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricActionTotal, err)
	}

	actionDuration, err := meter.Float64Histogram(MetricActionDuration,
		metric.WithDescription("Action latency from scheduling to result"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricActionDuration, err)
	}

	errorTotal, err := meter.Int64Counter(MetricErrorTotal,
		metric.WithDescription("Errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrorTotal, err)
	}

	return &Metrics{
		taskTotal:      taskTotal,
		taskDuration:   taskDuration,
		actionTotal:    actionTotal,
		actionDuration: actionDuration,
		errorTotal:     errorTotal,
	}, nil
}

// RecordTask records one executed partition task of the given transform kind.
func (m *Metrics) RecordTask(ctx context.Context, kind string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.taskTotal.Add(ctx, 1, attrs)
	m.taskDuration.Record(ctx, float64(elapsed.Microseconds()), attrs)
}

// RecordAction records a completed action and its outcome.
func (m *Metrics) RecordAction(ctx context.Context, action, status string, elapsed time.Duration) {
	m.actionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrAction, action),
		attribute.String(AttrStatus, status),
	))
	m.actionDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String(AttrAction, action),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
