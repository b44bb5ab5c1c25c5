// Package pool runs a fixed set of worker goroutines draining a bounded queue.
//
// Shutdown is sentinel based: Wait enqueues one stop marker per live worker
// behind any queued work, so every task submitted before Wait is executed
// and no worker picks up work after consuming its marker.
package pool

import (
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/queue"
)

// ErrClosed is returned by Submit once Wait has begun.
var ErrClosed = stderrors.New("pool: closed")

// Config configures a Pool.
type Config struct {
	// Name tags the pool's log lines.
	Name string
	// Workers is the number of worker goroutines. 0 means runtime.NumCPU().
	Workers int
	// QueueCapacity bounds the number of queued tasks. 0 means queue.DefaultCapacity.
	QueueCapacity int
}

// Handler processes one task on a worker goroutine.
type Handler[T any] func(task T)

type item[T any] struct {
	task T
	stop bool
}

// Pool is a fixed-size worker pool over a bounded FIFO.
type Pool[T any] struct {
	cfg     Config
	handler Handler[T]
	queue   *queue.Bounded[item[T]]
	log     *logger.Logger

	// mu is held for reading by Submit and for writing while closing, so no
	// task can land behind the stop markers.
	mu        sync.RWMutex
	started   bool
	closed    bool
	destroyed bool
	live      int

	wg        sync.WaitGroup
	processed atomic.Int64
}

// New creates a pool. Workers do not run until Start.
func New[T any](cfg Config, handler Handler[T]) *Pool[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = queue.DefaultCapacity
	}
	if cfg.Name == "" {
		cfg.Name = "pool"
	}
	return &Pool[T]{
		cfg:     cfg,
		handler: handler,
		queue:   queue.New[item[T]](cfg.QueueCapacity),
		log:     logger.Get("pool").WithFields(logger.Fields("pool", cfg.Name)),
	}
}

// Workers returns the configured number of workers.
func (p *Pool[T]) Workers() int { return p.cfg.Workers }

// Processed returns how many tasks have completed.
func (p *Pool[T]) Processed() int64 { return p.processed.Load() }

// Start launches the workers. Calling it more than once has no effect.
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.closed {
		return
	}
	p.started = true
	p.live = p.cfg.Workers
	p.wg.Add(p.cfg.Workers)
	for i := 0; i < p.cfg.Workers; i++ {
		go p.worker()
	}
	p.log.Debug("pool started", logger.Fields(logger.FieldWorkers, p.cfg.Workers, "queue_capacity", p.cfg.QueueCapacity))
}

// Submit enqueues a task, blocking while the queue is full.
// It must not be called from a pool worker while the queue can fill up.
func (p *Pool[T]) Submit(task T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.queue.Push(item[T]{task: task})
	return nil
}

// Wait lets the workers finish all queued tasks, then blocks until every
// worker has exited. Later calls return immediately.
func (p *Pool[T]) Wait() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.wg.Wait()
		return
	}
	p.closed = true
	live := p.live
	p.mu.Unlock()

	for i := 0; i < live; i++ {
		p.queue.Push(item[T]{stop: true})
	}
	p.wg.Wait()
	p.log.Debug("pool drained", logger.Fields("processed", p.processed.Load()))
}

// Destroy releases the queue. It calls Wait first if needed and is idempotent.
func (p *Pool[T]) Destroy() {
	p.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.queue = nil
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for {
		it := p.queue.Pop()
		if it.stop {
			return
		}
		p.handler(it.task)
		p.processed.Add(1)
	}
}
