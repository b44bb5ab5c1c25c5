package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kbukum/minispark/component"
	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/metrics"
	"github.com/kbukum/minispark/observability"
	"github.com/kbukum/minispark/pool"
)

type state int

const (
	stateCreated state = iota
	stateRunning
	stateStopped
)

// Engine owns the transform graph, the worker pool and the metrics
// collector. Several engines can run side by side.
type Engine struct {
	id          string
	cfg         Config
	log         *logger.Logger
	open        Opener
	metricsOut  io.Writer
	instruments *observability.Metrics

	nextID atomic.Int64

	// schedMu serializes action submission and lifecycle transitions, so one
	// action's tasks are queued contiguously and nothing is submitted once
	// TearDown has begun.
	schedMu   sync.Mutex
	state     state
	pool      *pool.Pool[*task]
	collector *metrics.Collector
}

var (
	_ component.Component   = (*Engine)(nil)
	_ component.Describable = (*Engine)(nil)
)

// New creates an engine. Call Run before issuing actions.
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		id:   uuid.NewString(),
		cfg:  cfg,
		open: OpenFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Get("engine")
	}
	e.log = e.log.WithFields(logger.Fields(logger.FieldEngineID, e.id))
	if e.instruments == nil {
		m, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, errors.Internal(err)
		}
		e.instruments = m
	}
	return e, nil
}

// ID returns the engine instance id.
func (e *Engine) ID() string { return e.id }

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) nextRDDID() int {
	return int(e.nextID.Add(1) - 1)
}

// Run starts the metrics collector and the worker pool.
func (e *Engine) Run() error {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	switch e.state {
	case stateRunning:
		return errors.EngineAlreadyRunning()
	case stateStopped:
		return errors.EngineStopped()
	}

	copts := []metrics.Option{metrics.WithInstruments(e.instruments)}
	if e.metricsOut != nil {
		copts = append(copts, metrics.WithWriter(e.metricsOut))
	}
	e.collector = metrics.NewCollector(metrics.Config{
		Path:          e.cfg.MetricsLog,
		QueueCapacity: e.cfg.MetricQueueCapacity,
	}, copts...)
	if err := e.collector.Start(); err != nil {
		return errors.FileOpen(e.cfg.MetricsLog, err)
	}

	e.pool = pool.New(pool.Config{
		Name:          "engine-" + e.id[:8],
		Workers:       e.cfg.Workers,
		QueueCapacity: e.cfg.QueueCapacity,
	}, e.execute)
	e.pool.Start()

	e.state = stateRunning
	e.log.Info("engine started", logger.Fields(
		logger.FieldWorkers, e.cfg.Workers,
		"queue_capacity", e.cfg.QueueCapacity,
		"metrics_log", e.cfg.MetricsLog,
	))
	return nil
}

// TearDown lets every submitted task finish, stops the pool, then flushes
// and closes the metrics log. It may be called once.
func (e *Engine) TearDown() error {
	e.schedMu.Lock()
	switch e.state {
	case stateCreated:
		e.schedMu.Unlock()
		return errors.EngineNotRunning()
	case stateStopped:
		e.schedMu.Unlock()
		return errors.EngineStopped()
	}
	e.state = stateStopped
	e.schedMu.Unlock()

	e.pool.Wait()
	processed := e.pool.Processed()
	e.pool.Destroy()

	if err := e.collector.Stop(); err != nil {
		e.log.Error("metrics log flush failed", logger.ErrorFields("teardown", err))
		return errors.Internal(err).WithDetail("metrics_log", e.cfg.MetricsLog)
	}
	e.log.Info("engine stopped", logger.Fields("tasks", processed))
	return nil
}

func (e *Engine) Name() string { return "engine" }

// Start implements component.Component.
func (e *Engine) Start(ctx context.Context) error { return e.Run() }

// Stop implements component.Component.
func (e *Engine) Stop(ctx context.Context) error { return e.TearDown() }

func (e *Engine) Health(ctx context.Context) component.Health {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	h := component.Health{Name: e.Name()}
	switch e.state {
	case stateRunning:
		h.Status = component.StatusHealthy
		h.Message = fmt.Sprintf("%d tasks processed", e.pool.Processed())
	case stateCreated:
		h.Status = component.StatusUnhealthy
		h.Message = "not running"
	default:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	}
	return h
}

func (e *Engine) Describe() component.Description {
	return component.Description{
		Type: "engine",
		Details: fmt.Sprintf("workers=%d queue=%d metrics_log=%s",
			e.cfg.Workers, e.cfg.QueueCapacity, e.cfg.MetricsLog),
	}
}
