package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
	"github.com/kbukum/minispark/metrics"
	"github.com/kbukum/minispark/observability"
)

// task computes one partition of one RDD.
type task struct {
	rdd       *RDD
	partition int
	metric    *metrics.TaskMetric
}

func newTask(r *RDD, p int) *task {
	return &task{
		rdd:       r,
		partition: p,
		metric: &metrics.TaskMetric{
			RDDID:     r.id,
			Partition: p,
			Kind:      int(r.kind),
			KindName:  r.kind.String(),
			Created:   time.Now(),
		},
	}
}

// execute is the pool handler. It waits for the dependencies, computes the
// partition, commits it and hands the metric to the collector.
func (e *Engine) execute(t *task) {
	r, p := t.rdd, t.partition
	t.metric.Scheduled = time.Now()

	ctx, span := observability.StartSpan(context.Background(), observability.SpanTask)
	span.SetAttributes(
		attribute.String(observability.AttrEngineID, e.id),
		attribute.Int(observability.AttrRDDID, r.id),
		attribute.String(observability.AttrKind, r.kind.String()),
		attribute.Int(observability.AttrPartition, p),
	)

	var data []any
	err := awaitDependencies(r)
	started := time.Now()
	if err == nil {
		data, err = e.compute(ctx, r, p)
		if err != nil {
			err = errors.TaskFailed(r.id, p, err)
			e.log.Error("task failed", logger.MergeWithError(logger.TaskFields(r.id, p), err))
			e.instruments.RecordError(ctx, string(errors.ErrCodeTaskFailed), "engine")
		}
	}
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	r.commit(p, data, err)

	t.metric.Duration = time.Since(started)
	span.End()
	if perr := e.collector.Push(t.metric); perr != nil {
		e.log.Warn("metric dropped", logger.MergeWithError(logger.TaskFields(r.id, p), perr))
	}
}

// awaitDependencies blocks until every dependency is materialized and
// returns the first dependency error.
func awaitDependencies(r *RDD) error {
	for _, d := range r.deps {
		<-d.done
	}
	for _, d := range r.deps {
		if err := d.Err(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) compute(ctx context.Context, r *RDD, p int) ([]any, error) {
	switch r.kind {
	case KindMap:
		var out []any
		if r.deps[0].kind == KindFileBacked {
			// A nil result ends the stream.
			err := e.scan(ctx, r.deps[0], p, func(x any) bool {
				y := r.mapFn(x)
				if y == nil {
					return false
				}
				out = append(out, y)
				return true
			})
			return out, err
		}
		err := e.each(ctx, r.deps[0], p, func(x any) {
			out = append(out, r.mapFn(x))
		})
		return out, err

	case KindFilter:
		var out []any
		err := e.each(ctx, r.deps[0], p, func(x any) {
			if r.filterFn(x, r.ctx) {
				out = append(out, x)
			}
		})
		return out, err

	case KindJoin:
		inner, err := e.elements(ctx, r.deps[1], p)
		if err != nil {
			return nil, err
		}
		var out []any
		err = e.each(ctx, r.deps[0], p, func(a any) {
			for _, b := range inner {
				if v, ok := r.joinFn(a, b, r.ctx); ok {
					out = append(out, v)
				}
			}
		})
		return out, err

	case KindPartitionBy:
		r.bucketsOnce.Do(func() {
			r.buckets, r.bucketsErr = e.bucketize(ctx, r)
		})
		if r.bucketsErr != nil {
			return nil, r.bucketsErr
		}
		return r.buckets[p], nil

	default:
		// FILE_BACKED partitions are streamed by whoever reads them.
		return nil, nil
	}
}

// bucketize routes every element of every dependency partition, in
// partition then element order, to its destination partition.
func (e *Engine) bucketize(ctx context.Context, r *RDD) ([][]any, error) {
	n := r.numPartitions
	buckets := make([][]any, n)
	for _, d := range r.deps {
		for p := 0; p < d.numPartitions; p++ {
			err := e.each(ctx, d, p, func(x any) {
				b := r.partitionFn(x, n, r.ctx) % uint64(n)
				buckets[b] = append(buckets[b], x)
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return buckets, nil
}

// each calls fn for every element of partition p of r.
func (e *Engine) each(ctx context.Context, r *RDD, p int, fn func(any)) error {
	return e.scan(ctx, r, p, func(x any) bool {
		fn(x)
		return true
	})
}

// scan calls fn for the elements of partition p of r until fn returns false.
// FILE_BACKED partitions are read from a fresh Source each time, so any
// number of consumers can share one.
func (e *Engine) scan(ctx context.Context, r *RDD, p int, fn func(any) bool) error {
	if r.kind != KindFileBacked {
		for _, x := range r.partition(p) {
			if !fn(x) {
				break
			}
		}
		return nil
	}
	if p >= len(r.files) {
		return nil
	}
	src, err := e.open(r.files[p])
	if err != nil {
		return errors.FileOpen(r.files[p], err)
	}
	return drain(ctx, src, fn)
}

// elements returns partition p of r as a slice.
func (e *Engine) elements(ctx context.Context, r *RDD, p int) ([]any, error) {
	if r.kind != KindFileBacked {
		return r.partition(p), nil
	}
	var out []any
	err := e.each(ctx, r, p, func(x any) { out = append(out, x) })
	return out, err
}
