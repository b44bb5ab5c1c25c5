package engine

import (
	"sync"

	"github.com/kbukum/minispark/seq"
)

// Kind identifies the transform an RDD applies. The numeric value is what
// the metrics log prints.
type Kind int

const (
	KindMap Kind = iota
	KindFilter
	KindJoin
	KindPartitionBy
	KindFileBacked
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "MAP"
	case KindFilter:
		return "FILTER"
	case KindJoin:
		return "JOIN"
	case KindPartitionBy:
		return "PARTITIONBY"
	case KindFileBacked:
		return "FILE_BACKED"
	default:
		return "UNKNOWN"
	}
}

// User callables. The ctx argument is the opaque value passed when the RDD
// was constructed.
type (
	MapFunc       func(e any) any
	FilterFunc    func(e any, ctx any) bool
	JoinFunc      func(a, b any, ctx any) (any, bool)
	PartitionFunc func(e any, numPartitions int, ctx any) uint64
	PrintFunc     func(e any)
)

// RDD is a node of the transform graph. Everything except the computed
// partitions is fixed at construction.
type RDD struct {
	id            int
	kind          Kind
	owner         *Engine
	deps          []*RDD
	numPartitions int
	ctx           any

	mapFn       MapFunc
	filterFn    FilterFunc
	joinFn      JoinFunc
	partitionFn PartitionFunc
	files       []string

	// buckets holds the PartitionBy routing of every input element,
	// computed by the first task of this RDD and shared by the rest.
	bucketsOnce sync.Once
	buckets     [][]any
	bucketsErr  error

	mu          sync.Mutex
	partitions  *seq.Sequence[[]any]
	numComputed int
	scheduled   bool
	err         error
	done        chan struct{}
}

func newRDD(owner *Engine, kind Kind, numPartitions int, deps ...*RDD) *RDD {
	for _, d := range deps {
		if d == nil {
			panic("engine: nil dependency")
		}
		if d.owner != owner {
			panic("engine: dependency belongs to another engine")
		}
	}
	r := &RDD{
		id:            owner.nextRDDID(),
		kind:          kind,
		owner:         owner,
		deps:          deps,
		numPartitions: numPartitions,
		done:          make(chan struct{}),
	}
	if numPartitions == 0 {
		close(r.done)
	}
	return r
}

// maxPartitions returns the largest partition count among deps.
func maxPartitions(deps ...*RDD) int {
	n := 0
	for _, d := range deps {
		if d != nil && d.numPartitions > n {
			n = d.numPartitions
		}
	}
	return n
}

func (r *RDD) ID() int { return r.id }
func (r *RDD) Kind() Kind { return r.kind }
func (r *RDD) NumPartitions() int { return r.numPartitions }
func (r *RDD) Dependencies() []*RDD { return r.deps }

// Materialized reports whether every partition has been computed.
func (r *RDD) Materialized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.numComputed == r.numPartitions
}

// Done is closed once the RDD is materialized.
func (r *RDD) Done() <-chan struct{} { return r.done }

// Err returns the first task error recorded for this RDD or one of its
// dependencies.
func (r *RDD) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// claim marks the RDD as scheduled and reports whether the caller won.
func (r *RDD) claim() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduled {
		return false
	}
	r.scheduled = true
	return true
}

// commit stores the result of partition p. Empty results are not stored.
func (r *RDD) commit(p int, data []any, err error) {
	r.mu.Lock()
	if r.partitions == nil {
		r.partitions = seq.New[[]any](r.numPartitions)
	}
	if len(data) > 0 {
		r.partitions.InsertAt(p, data)
	}
	if err != nil && r.err == nil {
		r.err = err
	}
	r.numComputed++
	complete := r.numComputed == r.numPartitions
	r.mu.Unlock()

	if complete {
		close(r.done)
	}
}

// partition returns the committed data of partition p. Only valid once the
// RDD is materialized; reads then need no lock.
func (r *RDD) partition(p int) []any {
	if r.partitions == nil {
		return nil
	}
	data, _ := r.partitions.At(p)
	return data
}
