package broker

import (
	"sort"
	"sync"
)

// AccountRef identifies a broker account to the registry without
// dragging in the persistence layer.
type AccountRef struct {
	Code     string
	Kind     string
	Currency string
	Metadata map[string]any
}

// Factory builds a connector for one account.
type Factory func(ref AccountRef) (Broker, error)

// Registry maps an account's declared broker kind to a connector
// factory. Kinds are registered at startup; Resolve is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register wires a connector factory for a broker kind, replacing any
// previous registration for that kind.
func (r *Registry) Register(kind string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = factory
}

// Resolve returns a connector for the given account. Unknown kinds
// fail with UnsupportedBrokerError; the failure is per-account, so
// batch callers continue with their remaining accounts.
func (r *Registry) Resolve(ref AccountRef) (Broker, error) {
	r.mu.RLock()
	factory, ok := r.factories[ref.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedBrokerError{AccountCode: ref.Code, Kind: ref.Kind}
	}
	return factory(ref)
}

// Kinds returns the registered broker kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
