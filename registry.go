package ringcache

import (
	"fmt"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]any)
)

// reserve claims name before construction, so two concurrent Open calls
// for the same name cannot both succeed.
func reserve(name string) error {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	registry[name] = nil
	return nil
}

func publish(name string, handle any) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = handle
}

func unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Lookup returns the cache previously opened under name. It returns
// ErrUnknownCache if no cache is registered under name, and
// ErrInvalidConfig if one is but was opened with different type
// parameters than K, V.
func Lookup[K comparable, V any](name string) (*Cache[K, V], error) {
	registryMu.RLock()
	v, ok := registry[name]
	registryMu.RUnlock()
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCache, name)
	}
	c, ok := v.(*Cache[K, V])
	if !ok {
		return nil, fmt.Errorf("%w: cache %q was opened with different type parameters", ErrInvalidConfig, name)
	}
	return c, nil
}

// Names returns the names of all currently open caches, in no particular
// order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name, v := range registry {
		if v != nil {
			out = append(out, name)
		}
	}
	return out
}
