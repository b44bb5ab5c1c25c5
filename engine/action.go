package engine

import (
	"context"
	stderrors "errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/observability"
	"github.com/kbukum/minispark/pool"
)

// Action names, used for spans, instruments and log fields.
const (
	ActionCount   = "count"
	ActionPrint   = "print"
	ActionCollect = "collect"
)

// Count materializes rdd and returns the total number of elements.
func (e *Engine) Count(ctx context.Context, rdd *RDD) (int, error) {
	n := 0
	err := e.materialize(ctx, rdd, ActionCount, func(ctx context.Context) error {
		return e.traverse(ctx, rdd, func(any) { n++ })
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Print materializes rdd and calls fn on every element, in partition then
// element order.
func (e *Engine) Print(ctx context.Context, rdd *RDD, fn PrintFunc) error {
	return e.materialize(ctx, rdd, ActionPrint, func(ctx context.Context) error {
		return e.traverse(ctx, rdd, func(x any) { fn(x) })
	})
}

// Collect materializes rdd and returns its elements in partition then
// element order.
func (e *Engine) Collect(ctx context.Context, rdd *RDD) ([]any, error) {
	var out []any
	err := e.materialize(ctx, rdd, ActionCollect, func(ctx context.Context) error {
		out = out[:0]
		return e.traverse(ctx, rdd, func(x any) { out = append(out, x) })
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// materialize schedules rdd, waits for it and then runs read. Cancelling
// ctx abandons the wait; tasks already queued still run.
func (e *Engine) materialize(ctx context.Context, rdd *RDD, action string, read func(context.Context) error) (err error) {
	if rdd == nil {
		return errors.InvalidInput("rdd", "must not be nil")
	}
	if rdd.owner != e {
		return errors.InvalidInput("rdd", "belongs to another engine")
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanAction)
	span.SetAttributes(
		attribute.String(observability.AttrEngineID, e.id),
		attribute.String(observability.AttrAction, action),
		attribute.Int(observability.AttrRDDID, rdd.id),
	)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			observability.SetSpanError(ctx, err)
			e.log.Warn("action failed", logger.MergeWithError(logger.Fields(
				logger.FieldOperation, action,
				logger.FieldRDD, rdd.id,
			), err))
		}
		span.SetAttributes(attribute.String(observability.AttrStatus, status))
		span.End()
		e.instruments.RecordAction(ctx, action, status, time.Since(start))
	}()

	if err := e.schedule(rdd); err != nil {
		return err
	}

	select {
	case <-rdd.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := rdd.Err(); err != nil {
		return err
	}
	return read(ctx)
}

// schedule submits one task per partition of every RDD reachable from
// target that no earlier action has scheduled, ancestors first.
func (e *Engine) schedule(target *RDD) error {
	e.schedMu.Lock()
	defer e.schedMu.Unlock()

	switch e.state {
	case stateCreated:
		return errors.EngineNotRunning()
	case stateStopped:
		return errors.EngineStopped()
	}

	submitted := 0
	for _, level := range planLevels(target) {
		for _, r := range level {
			if !r.claim() {
				continue
			}
			for p := 0; p < r.numPartitions; p++ {
				if err := e.pool.Submit(newTask(r, p)); err != nil {
					if stderrors.Is(err, pool.ErrClosed) {
						return errors.EngineStopped()
					}
					return errors.Internal(err)
				}
				submitted++
			}
		}
	}
	e.log.Debug("action scheduled", logger.Fields(
		logger.FieldRDD, target.id,
		"tasks", submitted,
	))
	return nil
}

// traverse visits every element of a materialized rdd.
func (e *Engine) traverse(ctx context.Context, rdd *RDD, fn func(any)) error {
	for p := 0; p < rdd.numPartitions; p++ {
		if err := e.each(ctx, rdd, p, fn); err != nil {
			return err
		}
	}
	return nil
}
