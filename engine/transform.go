package engine

import (
	"github.com/kbukum/minispark/errors"
)

// Map applies fn to every element of dep, one to one and in order. When dep
// is FILE_BACKED, a nil result from fn ends the partition's stream and is not
// kept.
func (e *Engine) Map(dep *RDD, fn MapFunc) *RDD {
	r := newRDD(e, KindMap, maxPartitions(dep), dep)
	r.mapFn = fn
	return r
}

// Filter keeps the elements of dep for which fn returns true.
func (e *Engine) Filter(dep *RDD, fn FilterFunc, ctx any) *RDD {
	r := newRDD(e, KindFilter, maxPartitions(dep), dep)
	r.filterFn = fn
	r.ctx = ctx
	return r
}

// Join pairs the elements of same-index partitions of dep1 and dep2 and
// keeps every result fn accepts. A partition index one side lacks is empty.
func (e *Engine) Join(dep1, dep2 *RDD, fn JoinFunc, ctx any) *RDD {
	r := newRDD(e, KindJoin, maxPartitions(dep1, dep2), dep1, dep2)
	r.joinFn = fn
	r.ctx = ctx
	return r
}

// PartitionBy redistributes the elements of dep over numPartitions
// partitions; element x lands in fn(x, numPartitions, ctx) % numPartitions.
// It panics if numPartitions < 1.
func (e *Engine) PartitionBy(dep *RDD, fn PartitionFunc, numPartitions int, ctx any) *RDD {
	if numPartitions < 1 {
		panic("engine: PartitionBy needs at least one partition")
	}
	r := newRDD(e, KindPartitionBy, numPartitions, dep)
	r.partitionFn = fn
	r.ctx = ctx
	return r
}

// FromFiles creates a FILE_BACKED RDD with one partition per path. Every
// path is opened once up front so a missing file fails here rather than in
// a task.
func (e *Engine) FromFiles(paths ...string) (*RDD, error) {
	if len(paths) == 0 {
		return nil, errors.InvalidInput("paths", "at least one file is required")
	}
	for _, p := range paths {
		src, err := e.open(p)
		if err != nil {
			return nil, errors.FileOpen(p, err)
		}
		_ = src.Close()
	}
	r := newRDD(e, KindFileBacked, len(paths))
	r.files = append([]string(nil), paths...)
	return r, nil
}
