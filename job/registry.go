package job

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/errors"
)

// Registry resolves the function names used by job steps.
type Registry struct {
	mu         sync.RWMutex
	maps       map[string]engine.MapFunc
	filters    map[string]engine.FilterFunc
	joins      map[string]engine.JoinFunc
	partitions map[string]engine.PartitionFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		maps:       make(map[string]engine.MapFunc),
		filters:    make(map[string]engine.FilterFunc),
		joins:      make(map[string]engine.JoinFunc),
		partitions: make(map[string]engine.PartitionFunc),
	}
}

func (r *Registry) RegisterMap(name string, fn engine.MapFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps[name] = fn
}

func (r *Registry) RegisterFilter(name string, fn engine.FilterFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[name] = fn
}

func (r *Registry) RegisterJoin(name string, fn engine.JoinFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.joins[name] = fn
}

func (r *Registry) RegisterPartition(name string, fn engine.PartitionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partitions[name] = fn
}

func (r *Registry) Map(name string) (engine.MapFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.maps[name]; ok {
		return fn, nil
	}
	return nil, errors.NotFound("map function", name)
}

func (r *Registry) Filter(name string) (engine.FilterFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.filters[name]; ok {
		return fn, nil
	}
	return nil, errors.NotFound("filter function", name)
}

func (r *Registry) Join(name string) (engine.JoinFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.joins[name]; ok {
		return fn, nil
	}
	return nil, errors.NotFound("join function", name)
}

func (r *Registry) Partition(name string) (engine.PartitionFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fn, ok := r.partitions[name]; ok {
		return fn, nil
	}
	return nil, errors.NotFound("partition function", name)
}

// List returns the sorted names registered for op.
func (r *Registry) List(op string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	switch op {
	case OpMap:
		names = keys(r.maps)
	case OpFilter:
		names = keys(r.filters)
	case OpJoin:
		names = keys(r.joins)
	case OpPartitionBy:
		names = keys(r.partitions)
	}
	sort.Strings(names)
	return names
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Builtins returns a Registry holding the stock functions:
//
//	map:         identity, trim, upper, lower
//	filter:      nonempty, contains (arg is the substring)
//	join:        equal (keeps a when a == b), pair (yields []any{a, b})
//	partitionBy: hash (FNV-1a of the element text)
func Builtins() *Registry {
	r := NewRegistry()

	r.RegisterMap("identity", func(e any) any { return e })
	r.RegisterMap("trim", func(e any) any { return strings.TrimSpace(text(e)) })
	r.RegisterMap("upper", func(e any) any { return strings.ToUpper(text(e)) })
	r.RegisterMap("lower", func(e any) any { return strings.ToLower(text(e)) })

	r.RegisterFilter("nonempty", func(e any, _ any) bool { return text(e) != "" })
	r.RegisterFilter("contains", func(e any, ctx any) bool {
		return strings.Contains(text(e), text(ctx))
	})

	r.RegisterJoin("equal", func(a, b any, _ any) (any, bool) {
		if text(a) != text(b) {
			return nil, false
		}
		return a, true
	})
	r.RegisterJoin("pair", func(a, b any, _ any) (any, bool) {
		return []any{a, b}, true
	})

	r.RegisterPartition("hash", func(e any, n int, _ any) uint64 {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text(e)))
		return h.Sum64() % uint64(n)
	})
	return r
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}
