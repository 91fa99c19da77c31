package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"ringcache/internal/singleflight"
	"ringcache/resolver"
	"ringcache/ring"
)

// Metrics is the subset of observability signals the coordinator reports.
// Declared locally so this package does not depend on the root ringcache
// package; ringcache.Metrics embeds the same methods.
type Metrics interface {
	Hit()
	Miss()
	Negative()
	Resolve(keys int)
	ResolverError()
}

// NoopMetrics discards every signal and is the coordinator's default.
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Negative()      {}
func (NoopMetrics) Resolve(int)    {}
func (NoopMetrics) ResolverError() {}

// Logger is the minimal structured logging surface the coordinator uses,
// declared locally for the same reason as Metrics.
type Logger interface {
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// NopLogger discards every message and is the coordinator's default.
type NopLogger struct{}

func (NopLogger) Warn(string, map[string]any)  {}
func (NopLogger) Error(string, map[string]any) {}

var (
	errNoResolver = errors.New("coordinator: no resolver configured")
	errOmitted    = errors.New("coordinator: resolver omitted the requested key")
)

// Tuple pairs a key with its resolved value. A nil Value means the
// resolver confirmed no value exists (a negative cache hit); a Tuple from
// GetTuple also has a nil Value when the resolver omitted the key.
type Tuple[K comparable, V any] struct {
	Key   K
	Value *V
}

// Config configures a Coordinator. Ring and Resolver are required;
// Coalesce, Metrics, and Logger have zero-value-safe defaults.
type Config[K comparable, V any] struct {
	Ring     *ring.Ring[K, V]
	Resolver resolver.Resolver[K, V]
	Coalesce bool
	Metrics  Metrics
	Logger   Logger
}

// Coordinator resolves cache misses against a Ring, delegating to a
// Resolver for the residual batch after the ring search. All methods are
// safe for concurrent use and never block on the cache's control actor.
type Coordinator[K comparable, V any] struct {
	ring     *ring.Ring[K, V]
	resolver atomic.Pointer[resolver.Resolver[K, V]]
	coalesce bool
	perKey   singleflight.Group[K, resolver.RawPair[K, V]]
	perBatch singleflight.Group[string, []resolver.RawPair[K, V]]
	metrics  Metrics
	log      Logger
}

// New constructs a Coordinator from cfg.
func New[K comparable, V any](cfg Config[K, V]) *Coordinator[K, V] {
	c := &Coordinator[K, V]{
		ring:     cfg.Ring,
		coalesce: cfg.Coalesce,
		metrics:  cfg.Metrics,
		log:      cfg.Logger,
	}
	if c.metrics == nil {
		c.metrics = NoopMetrics{}
	}
	if c.log == nil {
		c.log = NopLogger{}
	}
	if cfg.Resolver != nil {
		c.SetResolver(cfg.Resolver)
	}
	return c
}

// SetResolver replaces the resolver used for subsequent misses. Entries
// already resolved under a prior resolver remain cached until they age
// out of the ring; SetResolver never touches ring contents.
func (c *Coordinator[K, V]) SetResolver(r resolver.Resolver[K, V]) {
	c.resolver.Store(&r)
}

// GetResolver returns the currently configured resolver, or nil if none
// has been set. The read is a lock-free atomic load.
func (c *Coordinator[K, V]) GetResolver() resolver.Resolver[K, V] {
	p := c.resolver.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Get resolves a single key, returning ok == false for both a confirmed
// negative result and a cache miss the resolver could not (or chose not
// to) satisfy.
func (c *Coordinator[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V

	if e, ok := c.lookupOne(key); ok {
		c.metrics.Hit()
		if e.IsNegative() {
			c.metrics.Negative()
			return zero, false, nil
		}
		return e.Value, true, nil
	}
	c.metrics.Miss()

	resolveOne := func() (resolver.RawPair[K, V], error) {
		// Double-check: a concurrent caller may have installed this key
		// while we were becoming the in-flight leader.
		if e, ok := c.lookupOne(key); ok {
			if e.IsNegative() {
				return resolver.RawPair[K, V]{Key: key}, nil
			}
			v := e.Value
			return resolver.RawPair[K, V]{Key: key, Value: &v}, nil
		}

		r := c.GetResolver()
		if r == nil {
			return resolver.RawPair[K, V]{}, errNoResolver
		}
		pairs, err := r.Resolve(ctx, []K{key})
		c.metrics.Resolve(1)
		if err != nil {
			c.metrics.ResolverError()
			c.log.Error("resolver call failed", map[string]any{"key": key, "error": err.Error()})
			return resolver.RawPair[K, V]{}, err
		}
		c.installAll(pairs)
		for _, p := range pairs {
			if p.Key == key {
				return p, nil
			}
		}
		// Open question decided in spec.md §9: an omitted key is neither
		// cached nor included in the result; try again next time.
		return resolver.RawPair[K, V]{}, errOmitted
	}

	var (
		pair resolver.RawPair[K, V]
		err  error
	)
	if c.coalesce {
		pair, err = c.perKey.Do(ctx, key, resolveOne)
	} else {
		pair, err = resolveOne()
	}
	if err != nil {
		if errors.Is(err, errOmitted) {
			return zero, false, nil
		}
		return zero, false, err
	}
	if pair.Value == nil {
		c.metrics.Negative()
		return zero, false, nil
	}
	return *pair.Value, true, nil
}

// GetTuple is Get, with the key preserved in the result for callers that
// need identification (e.g. after fanning out over a heterogeneous set of
// keys).
func (c *Coordinator[K, V]) GetTuple(ctx context.Context, key K) (Tuple[K, V], error) {
	v, ok, err := c.Get(ctx, key)
	if err != nil {
		return Tuple[K, V]{Key: key}, err
	}
	if !ok {
		return Tuple[K, V]{Key: key}, nil
	}
	vv := v
	return Tuple[K, V]{Key: key, Value: &vv}, nil
}

// GetMany resolves a batch of keys in one pass: a single ring search
// followed by, at most, a single resolver call for the residual misses.
// A key absent from the returned map was either never requested or was
// omitted by the resolver (see spec.md §9); a key present with a nil
// Value is a negative cache hit.
func (c *Coordinator[K, V]) GetMany(ctx context.Context, keys []K) (map[K]*V, error) {
	out := make(map[K]*V, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	resolved, unresolved := c.searchRing(keys)
	for _, k := range keys {
		if e, ok := resolved[k]; ok {
			c.metrics.Hit()
			if e.IsNegative() {
				c.metrics.Negative()
				out[k] = nil
			} else {
				v := e.Value
				out[k] = &v
			}
		} else if contains(unresolved, k) {
			c.metrics.Miss()
		}
	}
	if len(unresolved) == 0 {
		return out, nil
	}

	resolveBatch := func() ([]resolver.RawPair[K, V], error) {
		r := c.GetResolver()
		if r == nil {
			return nil, errNoResolver
		}
		pairs, err := r.Resolve(ctx, unresolved)
		c.metrics.Resolve(len(unresolved))
		if err != nil {
			c.metrics.ResolverError()
			c.log.Error("resolver batch call failed", map[string]any{"keys": unresolved, "error": err.Error()})
			return nil, err
		}
		c.installAll(pairs)
		return pairs, nil
	}

	var (
		pairs []resolver.RawPair[K, V]
		err   error
	)
	if c.coalesce {
		pairs, err = c.perBatch.Do(ctx, batchSignature(unresolved), resolveBatch)
	} else {
		pairs, err = resolveBatch()
	}
	if err != nil {
		return nil, err
	}

	for _, p := range pairs {
		if p.Value == nil {
			c.metrics.Negative()
			out[p.Key] = nil
		} else {
			v := *p.Value
			out[p.Key] = &v
		}
	}
	return out, nil
}

// GetManyTuples is GetMany, returned as an ordered slice of Tuples
// (ordered by the input keys slice) for callers that need identification
// without a map.
func (c *Coordinator[K, V]) GetManyTuples(ctx context.Context, keys []K) ([]Tuple[K, V], error) {
	m, err := c.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]Tuple[K, V], 0, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out = append(out, Tuple[K, V]{Key: k, Value: v})
		}
	}
	return out, nil
}

func (c *Coordinator[K, V]) lookupOne(key K) (ring.Entry[V], bool) {
	var (
		found ring.Entry[V]
		ok    bool
	)
	c.ring.IterNewestToOldest(func(_ int, b *ring.Bucket[K, V]) bool {
		if e, hit := b.Lookup(key); hit {
			found, ok = e, true
			return false
		}
		return true
	})
	return found, ok
}

// searchRing implements spec.md §4.2's batch algorithm: walk the ring
// newest to oldest, moving keys into resolved as they're found, stopping
// as soon as nothing remains unresolved.
func (c *Coordinator[K, V]) searchRing(keys []K) (resolved map[K]ring.Entry[V], unresolved []K) {
	resolved = make(map[K]ring.Entry[V], len(keys))
	remaining := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		remaining[k] = struct{}{}
	}

	c.ring.IterNewestToOldest(func(_ int, b *ring.Bucket[K, V]) bool {
		if len(remaining) == 0 {
			return false
		}
		for k := range remaining {
			if e, ok := b.Lookup(k); ok {
				resolved[k] = e
				delete(remaining, k)
			}
		}
		return len(remaining) > 0
	})

	unresolved = make([]K, 0, len(remaining))
	for k := range remaining {
		unresolved = append(unresolved, k)
	}
	return resolved, unresolved
}

// installAll writes every resolved pair into the current newest bucket,
// normalizing a nil Value into the negative marker. This is the direct,
// actor-free install path spec.md §4.2 describes: concurrent installs
// race on a last-writer-wins basis, which is the coalescing weakness the
// spec explicitly accepts (narrowed, not eliminated, by the in-flight
// tables above).
func (c *Coordinator[K, V]) installAll(pairs []resolver.RawPair[K, V]) {
	newest := c.ring.Newest()
	for _, p := range pairs {
		if p.Value == nil {
			newest.Insert(p.Key, ring.Entry[V]{State: ring.Negative})
		} else {
			newest.Insert(p.Key, ring.Entry[V]{Value: *p.Value, State: ring.Present})
		}
	}
}

// Install writes pairs directly into the newest bucket, bypassing
// resolution entirely. It is exported for administrative inserts (the
// root ringcache package's control actor) that install caller-supplied
// values rather than resolver results.
func (c *Coordinator[K, V]) Install(pairs []resolver.RawPair[K, V]) {
	c.installAll(pairs)
}

func contains[K comparable](keys []K, k K) bool {
	for _, kk := range keys {
		if kk == k {
			return true
		}
	}
	return false
}

// batchSignature derives a stable, order-independent key for whole-batch
// coalescing from a key slice's %v representation. It is a best-effort
// canonicalization: distinct keys that happen to share a %v rendering
// collide, which only affects the in-flight de-duplication window, never
// correctness of the eventual result.
func batchSignature[K comparable](keys []K) string {
	strs := make([]string, len(keys))
	for i, k := range keys {
		strs[i] = fmt.Sprintf("%v", k)
	}
	sort.Strings(strs)
	return strings.Join(strs, "\x00")
}
