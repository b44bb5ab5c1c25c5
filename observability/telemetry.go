package observability

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/minispark/component"
)

// Config is the telemetry section of the CLI configuration.
type Config struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// Telemetry owns the meter and tracer providers as a lifecycle component.
// When disabled, Start and Stop do nothing and the global no-op providers
// stay in place.
type Telemetry struct {
	cfg     Config
	service string
	version string
	env     string

	mu sync.Mutex
	mp *sdkmetric.MeterProvider
	tp *sdktrace.TracerProvider
}

var _ component.Component = (*Telemetry)(nil)

// NewTelemetry creates a telemetry component for the named service.
func NewTelemetry(cfg Config, service, version, environment string) *Telemetry {
	return &Telemetry{cfg: cfg, service: service, version: version, env: environment}
}

func (t *Telemetry) Name() string { return "telemetry" }

// Start initializes both providers.
func (t *Telemetry) Start(ctx context.Context) error {
	if !t.cfg.Enabled {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	mcfg := DefaultMeterConfig(t.service)
	tcfg := DefaultTracerConfig(t.service)
	if t.version != "" {
		mcfg.ServiceVersion, tcfg.ServiceVersion = t.version, t.version
	}
	if t.env != "" {
		mcfg.Environment, tcfg.Environment = t.env, t.env
	}
	if t.cfg.Endpoint != "" {
		mcfg.Endpoint, tcfg.Endpoint = t.cfg.Endpoint, t.cfg.Endpoint
	}
	mcfg.Insecure, tcfg.Insecure = t.cfg.Insecure, t.cfg.Insecure
	if t.cfg.Interval > 0 {
		mcfg.Interval = t.cfg.Interval
	}
	tcfg.SampleRate = t.cfg.SampleRate

	mp, err := InitMeter(ctx, mcfg)
	if err != nil {
		return err
	}
	tp, err := InitTracer(ctx, tcfg)
	if err != nil {
		_ = mp.Shutdown(ctx)
		return err
	}
	t.mp, t.tp = mp, tp
	return nil
}

// Stop flushes and shuts down both providers.
func (t *Telemetry) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
		t.tp = nil
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
		t.mp = nil
	}
	return stderrors.Join(errs...)
}

func (t *Telemetry) Health(ctx context.Context) component.Health {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := component.Health{Name: t.Name(), Status: component.StatusHealthy}
	switch {
	case !t.cfg.Enabled:
		h.Message = "disabled"
	case t.mp == nil:
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}
