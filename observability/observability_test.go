package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/minispark/component"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewMetrics(mp.Meter(InstrumentationName))
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	return m, reader
}

func TestDefaultConfigs(t *testing.T) {
	mc := DefaultMeterConfig("minispark")
	if mc.ServiceName != "minispark" || mc.Endpoint != "localhost:4318" || mc.Interval != 15*time.Second {
		t.Errorf("unexpected meter defaults %+v", mc)
	}
	tc := DefaultTracerConfig("minispark")
	if tc.SampleRate != 1.0 || !tc.Insecure {
		t.Errorf("unexpected tracer defaults %+v", tc)
	}
}

func TestRecordTask(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordTask(ctx, "MAP", 20*time.Microsecond)
	m.RecordTask(ctx, "MAP", 40*time.Microsecond)
	m.RecordTask(ctx, "JOIN", time.Millisecond)

	got := collect(t, reader)
	sum, ok := got[MetricTaskTotal].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum for %s, got %T", MetricTaskTotal, got[MetricTaskTotal].Data)
	}
	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		counts[kind.AsString()] = dp.Value
	}
	if counts["MAP"] != 2 || counts["JOIN"] != 1 {
		t.Fatalf("unexpected task counts %v", counts)
	}

	hist, ok := got[MetricTaskDuration].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected float64 histogram, got %T", got[MetricTaskDuration].Data)
	}
	for _, dp := range hist.DataPoints {
		kind, _ := dp.Attributes.Value(attribute.Key("kind"))
		if kind.AsString() == "MAP" && dp.Sum != 60 {
			t.Errorf("expected 60us total for MAP, got %v", dp.Sum)
		}
	}
}

func TestRecordActionAndError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordAction(ctx, "count", "ok", time.Second)
	m.RecordError(ctx, "TASK_FAILED", "engine")

	got := collect(t, reader)
	for _, name := range []string{MetricActionTotal, MetricActionDuration, MetricErrorTotal} {
		if _, ok := got[name]; !ok {
			t.Errorf("expected instrument %s to be recorded", name)
		}
	}
}

func withRecorder(t *testing.T) (context.Context, *tracetest.SpanRecorder, func()) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ctx, span := tp.Tracer("test").Start(context.Background(), SpanTask)
	return ctx, rec, func() { span.End() }
}

func TestSetSpanAttribute(t *testing.T) {
	ctx, rec, end := withRecorder(t)
	SetSpanAttribute(ctx, AttrRDDID, 3)
	SetSpanAttribute(ctx, AttrKind, "FILTER")
	SetSpanAttribute(ctx, "ratio", 0.5)
	SetSpanAttribute(ctx, "flag", true)
	SetSpanAttribute(ctx, "big", int64(7))
	SetSpanAttribute(ctx, "ignored", struct{}{})
	end()

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrRDDID].AsInt64() != 3 || attrs[AttrKind].AsString() != "FILTER" {
		t.Errorf("unexpected attributes %v", attrs)
	}
	if len(attrs) != 5 {
		t.Errorf("expected 5 attributes, got %d", len(attrs))
	}
}

func TestSetSpanError(t *testing.T) {
	ctx, rec, end := withRecorder(t)
	SetSpanError(ctx, nil)
	SetSpanError(ctx, errors.New("boom"))
	end()

	span := rec.Ended()[0]
	if span.Status().Code != codes.Error || span.Status().Description != "boom" {
		t.Errorf("unexpected status %+v", span.Status())
	}
	if len(span.Events()) != 1 {
		t.Errorf("expected one error event, got %d", len(span.Events()))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "k", "v")
	SetSpanError(ctx, errors.New("x"))
	if SpanFromContext(ctx).IsRecording() {
		t.Error("expected a non-recording span")
	}
	_, span := StartSpan(ctx, SpanAction)
	span.End()
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{0.5, "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		if got := sampler(tt.rate).Description(); got != tt.want {
			t.Errorf("rate %v: expected %s, got %s", tt.rate, tt.want, got)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("minispark", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource failed: %v", err)
	}
	v, ok := res.Set().Value(attribute.Key(AttrServiceName))
	if !ok || v.AsString() != "minispark" {
		t.Fatalf("expected service.name minispark, got %v", v)
	}
}

func TestInitProviders(t *testing.T) {
	ctx := context.Background()
	mp, err := InitMeter(ctx, DefaultMeterConfig("test"))
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	tp, err := InitTracer(ctx, DefaultTracerConfig("test"))
	if err != nil {
		t.Fatalf("InitTracer failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_ = tp.Shutdown(shutdownCtx)
	_ = mp.Shutdown(shutdownCtx)
}

func TestTelemetryDisabled(t *testing.T) {
	tel := NewTelemetry(Config{}, "minispark", "", "")
	ctx := context.Background()
	if err := tel.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	h := tel.Health(ctx)
	if h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("unexpected health %+v", h)
	}
	if err := tel.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestTelemetryNotStarted(t *testing.T) {
	tel := NewTelemetry(Config{Enabled: true}, "minispark", "1.0", "test")
	if h := tel.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before Start, got %+v", h)
	}
}
