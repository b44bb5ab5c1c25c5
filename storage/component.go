package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/minispark/component"
	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/resilience"
	"github.com/kbukum/minispark/validation"
)

// Component owns one backend per enabled scheme and opens engine sources
// from URIs.
type Component struct {
	cfg Config
	log *logger.Logger

	// ctx bounds reads issued through Open; cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	backends  map[string]Storage
	bulkheads map[string]*resilience.Bulkhead
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a storage component.
func NewComponent(cfg Config) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: logger.Get("storage")}
}

func (c *Component) Name() string { return "storage" }

// Start creates every enabled backend that has a registered factory.
func (c *Component) Start(ctx context.Context) error {
	if err := validation.Validate(&c.cfg); err != nil {
		return err
	}
	backends := make(map[string]Storage)
	bulkheads := make(map[string]*resilience.Bulkhead)
	for _, scheme := range Schemes() {
		if !c.cfg.Enabled(scheme) {
			continue
		}
		s, err := New(scheme, c.cfg, c.log)
		if err != nil {
			for _, built := range backends {
				if closer, ok := built.(io.Closer); ok {
					_ = closer.Close()
				}
			}
			return fmt.Errorf("storage %s: %w", scheme, err)
		}
		backends[scheme] = s
		bulkheads[scheme] = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          scheme,
			MaxConcurrent: c.cfg.MaxConcurrentOpens,
			OnReject: func(name string, err error) {
				c.log.Warn("open gave up waiting for a slot", logger.Fields("scheme", name, "error", err.Error()))
			},
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.backends = backends
	c.bulkheads = bulkheads
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return nil
}

// Stop cancels in-flight reads and closes backends that hold connections.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	var errs []error
	for scheme, s := range c.backends {
		if closer, ok := s.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("storage %s: %w", scheme, err))
			}
		}
	}
	c.backends = nil
	c.bulkheads = nil
	return stderrors.Join(errs...)
}

func (c *Component) Health(ctx context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.backends == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	c.mu.RLock()
	defer c.mu.RUnlock()
	schemes := make([]string, 0, len(c.backends))
	for _, s := range Schemes() {
		if _, ok := c.backends[s]; ok {
			schemes = append(schemes, s)
		}
	}
	return component.Description{Type: "storage", Details: "schemes=" + strings.Join(schemes, ",")}
}

// Backend returns the started backend for scheme.
func (c *Component) Backend(scheme string) (Storage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.backends == nil {
		return nil, errors.New(errors.ErrCodeInternal, "storage is not started")
	}
	s, ok := c.backends[scheme]
	if !ok {
		return nil, errors.NotFound("storage backend", scheme)
	}
	return s, nil
}

// Open is an engine.Opener: it resolves uri to a backend and streams the
// object line by line. Transient failures are retried per cfg.Retry, and
// at most cfg.MaxConcurrentOpens opens run against one backend at a time.
func (c *Component) Open(uri string) (engine.Source, error) {
	scheme, path := SplitURI(uri)
	s, err := c.Backend(scheme)
	if err != nil {
		return nil, err
	}
	c.mu.RLock()
	ctx, bh := c.ctx, c.bulkheads[scheme]
	c.mu.RUnlock()

	retry := c.cfg.Retry
	retry.RetryIf = Transient
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		c.log.Warn("retrying open", logger.Fields(
			"uri", uri, "attempt", attempt, "backoff", backoff.String(), "error", err.Error(),
		))
	}
	rc, err := resilience.Retry(ctx, retry, func() (io.ReadCloser, error) {
		return resilience.Within(bh, ctx, func() (io.ReadCloser, error) {
			return s.Open(ctx, path)
		})
	})
	if err != nil {
		return nil, err
	}
	return engine.NewLineSource(rc), nil
}
