// Package metrics records per-task execution metrics.
//
// A Collector owns one background goroutine that drains a bounded queue in
// FIFO order and appends one line per TaskMetric to a log file. Optionally it
// also feeds OpenTelemetry instruments. Stop pushes a sentinel behind any
// pending metrics, so everything pushed before Stop reaches the log.
package metrics

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
	"sync"

	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/observability"
	"github.com/kbukum/minispark/queue"
)

// ErrStopped is returned by Push after Stop.
var ErrStopped = stderrors.New("metrics: collector stopped")

// Config configures a Collector.
type Config struct {
	// Path of the log file. It is truncated when the collector starts.
	Path string
	// QueueCapacity bounds pending metrics. 0 means queue.DefaultCapacity.
	QueueCapacity int
}

// Option customizes a Collector.
type Option func(*Collector)

// WithWriter sends log lines to w instead of opening Config.Path.
// The collector never closes w.
func WithWriter(w io.Writer) Option {
	return func(c *Collector) { c.out = w }
}

// WithInstruments records every metric on the given instruments as well.
func WithInstruments(m *observability.Metrics) Option {
	return func(c *Collector) { c.instruments = m }
}

// Collector writes TaskMetrics asynchronously.
type Collector struct {
	cfg         Config
	queue       *queue.Bounded[*TaskMetric]
	out         io.Writer
	file        *os.File
	instruments *observability.Metrics
	log         *logger.Logger

	mu      sync.RWMutex
	started bool
	stopped bool
	done    chan struct{}
	err     error
	written int
}

// NewCollector creates a collector. Nothing is opened until Start.
func NewCollector(cfg Config, opts ...Option) *Collector {
	c := &Collector{
		cfg:   cfg,
		queue: queue.New[*TaskMetric](cfg.QueueCapacity),
		log:   logger.Get("metrics"),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start opens the log and launches the writer goroutine.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}
	if c.out == nil {
		f, err := os.OpenFile(c.cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		c.file = f
		c.out = f
	}
	c.started = true
	go c.run()
	c.log.Debug("collector started", logger.Fields("path", c.cfg.Path))
	return nil
}

// Push enqueues m, blocking while the queue is full.
func (c *Collector) Push(m *TaskMetric) error {
	if m == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return ErrStopped
	}
	c.queue.Push(m)
	return nil
}

// Stop enqueues the sentinel, waits for the writer to flush and close the
// log, and returns the first write error. Later calls return the same error.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		<-c.done
		return c.err
	}
	c.stopped = true
	started := c.started
	c.mu.Unlock()

	if !started {
		close(c.done)
		return nil
	}
	c.queue.Push(nil)
	<-c.done
	return c.err
}

// Written returns how many lines were written. Valid after Stop.
func (c *Collector) Written() int {
	<-c.done
	return c.written
}

func (c *Collector) run() {
	defer close(c.done)

	w := bufio.NewWriter(c.out)
	ctx := context.Background()
	for {
		m := c.queue.Pop()
		if m == nil {
			break
		}
		if c.err == nil {
			if _, err := w.WriteString(Format(m) + "\n"); err != nil {
				c.err = err
				c.log.Error("metric write failed", logger.ErrorFields("write", err))
			} else {
				c.written++
			}
		}
		if c.instruments != nil {
			c.instruments.RecordTask(ctx, m.KindName, m.Duration)
		}
	}

	if err := w.Flush(); err != nil && c.err == nil {
		c.err = err
	}
	if c.file != nil {
		if err := c.file.Close(); err != nil && c.err == nil {
			c.err = err
		}
	}
	c.log.Debug("collector stopped", logger.Fields("written", c.written))
}
