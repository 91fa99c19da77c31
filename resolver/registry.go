package resolver

import (
	"context"
	"fmt"
	"sync"
)

// LateFunc is a resolver registered under a (namespace, name) pair. When
// invoked through a late-bound Resolver, extraArgs is whatever was
// supplied to Registry.LateBound, appended after keys — the Go rendering
// of spec.md §6's "late-bound triple (namespace, name, extra_args) whose
// invocation prepends keys to extra_args."
type LateFunc[K comparable, V any] func(ctx context.Context, keys []K, extraArgs ...any) ([]RawPair[K, V], error)

// Registry holds named resolvers addressable by (namespace, name), so a
// Resolver value can be constructed by reference instead of by closure —
// useful when the resolver identity needs to survive a process restart of
// the *caller* (the cache itself has no such requirement; see spec.md's
// Non-goals) or simply to decouple registration from use.
type Registry[K comparable, V any] struct {
	mu  sync.RWMutex
	fns map[string]map[string]LateFunc[K, V]
}

// NewRegistry constructs an empty registry.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{fns: make(map[string]map[string]LateFunc[K, V])}
}

// Register adds fn under (namespace, name), replacing any prior entry.
func (r *Registry[K, V]) Register(namespace, name string, fn LateFunc[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.fns[namespace]
	if !ok {
		byName = make(map[string]LateFunc[K, V])
		r.fns[namespace] = byName
	}
	byName[name] = fn
}

// Lookup returns the registered function for (namespace, name), if any.
func (r *Registry[K, V]) Lookup(namespace, name string) (LateFunc[K, V], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byName, ok := r.fns[namespace]
	if !ok {
		return nil, false
	}
	fn, ok := byName[name]
	return fn, ok
}

// LateBound returns a Resolver that, on every Resolve call, looks up
// (namespace, name) in the registry and invokes it with the requested
// keys and the extra arguments captured here. Resolution is late: the
// registry is consulted at call time, not at LateBound time, so a
// resolver may be registered or replaced after the Resolver value is
// constructed and handed to a cache.
func (r *Registry[K, V]) LateBound(namespace, name string, extraArgs ...any) Resolver[K, V] {
	return Func[K, V](func(ctx context.Context, keys []K) ([]RawPair[K, V], error) {
		fn, ok := r.Lookup(namespace, name)
		if !ok {
			return nil, fmt.Errorf("resolver: no function registered for %s/%s", namespace, name)
		}
		return fn(ctx, keys, extraArgs...)
	})
}
