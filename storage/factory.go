package storage

import (
	"sort"
	"sync"

	"github.com/kbukum/minispark/errors"
	"github.com/kbukum/minispark/logger"
)

// Factory creates the backend for one scheme.
type Factory func(cfg Config, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory makes a backend available under scheme. Backend packages
// call it from init.
func RegisterFactory(scheme string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[scheme] = f
}

// Schemes returns the registered schemes, sorted.
func Schemes() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for s := range factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// New creates the backend registered for scheme.
func New(scheme string, cfg Config, log *logger.Logger) (Storage, error) {
	factoriesMu.RLock()
	f, ok := factories[scheme]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.NotFound("storage backend", scheme)
	}
	return f(cfg, log)
}
