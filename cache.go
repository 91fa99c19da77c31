package ringcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"ringcache/coordinator"
	"ringcache/expiry"
	"ringcache/resolver"
	"ringcache/ring"
)

type cmdKind int

const (
	cmdInsert cmdKind = iota
	cmdDelete
	cmdClear
	cmdSetResolver
	cmdRotate
)

type command[K comparable, V any] struct {
	kind     cmdKind
	pairs    []resolver.RawPair[K, V]
	key      K
	resolver resolver.Resolver[K, V]
}

// Cache is a time-deterministic, ring-expiry key/value cache. Lookup
// methods (Get, GetMany, GetTuple, GetManyTuples) are lock-free against
// the ring; administrative methods (Insert, Delete, Clear, SetResolver)
// and rotation are serialized through a single control actor, per
// spec.md §5. All methods are safe for concurrent use.
type Cache[K comparable, V any] struct {
	name   string
	ring   *ring.Ring[K, V]
	coord  *coordinator.Coordinator[K, V]
	driver *expiry.Driver
	logger Logger
	metric Metrics

	mailbox   chan command[K, V]
	stop      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Open constructs and registers a cache under name, using r to resolve
// misses. name must be unique among currently open caches; reusing a name
// still in use returns ErrDuplicateName.
func Open[K comparable, V any](name string, r resolver.Resolver[K, V], opts Options[K, V]) (*Cache[K, V], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidConfig)
	}
	if opts.BucketCount <= 0 {
		return nil, fmt.Errorf("%w: bucket_count must be >= 1, got %d", ErrInvalidConfig, opts.BucketCount)
	}
	opts.setDefaults()

	if err := reserve(name); err != nil {
		return nil, err
	}

	rg := ring.New[K, V](opts.BucketCount, opts.ShardsPerBucket)
	coord := coordinator.New(coordinator.Config[K, V]{
		Ring:     rg,
		Resolver: r,
		Coalesce: !opts.DisableCoalescing,
		Metrics:  opts.Metrics,
		Logger:   coordinatorLogger{l: opts.Logger},
	})

	c := &Cache[K, V]{
		name:    name,
		ring:    rg,
		coord:   coord,
		logger:  opts.Logger,
		metric:  opts.Metrics,
		mailbox: make(chan command[K, V]),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.driver = expiry.New(opts.GenerationPeriod, c.triggerRotate)

	go c.run()
	c.driver.Start()

	publish(name, c)
	return c, nil
}

// Name returns the identifier this cache was opened with.
func (c *Cache[K, V]) Name() string { return c.name }

func (c *Cache[K, V]) run() {
	defer close(c.done)
	for {
		select {
		case cmd := <-c.mailbox:
			switch cmd.kind {
			case cmdInsert:
				c.coord.Install(cmd.pairs)
			case cmdDelete:
				c.ring.DeleteFromAll(cmd.key)
			case cmdClear:
				c.ring.ClearAll()
			case cmdSetResolver:
				c.coord.SetResolver(cmd.resolver)
			case cmdRotate:
				c.applyRotate()
			}
		case <-c.stop:
			return
		}
	}
}

func (c *Cache[K, V]) applyRotate() {
	res := c.ring.Rotate()
	c.metric.Rotate()
	c.logger.Info("ring rotated", Fields{
		"cache":             c.name,
		"expired_bucket":    res.ExpiredIndex,
		"size_before_clear": res.SizeBeforeClear,
		"newest_bucket":     res.NewNewestIndex,
		"oldest_bucket":     res.NewOldestIndex,
	})
}

// triggerRotate is the expiry.Driver's RotateFunc: it enqueues a rotate
// command rather than calling Rotate directly, so rotations stay totally
// ordered with respect to every other control-actor operation.
func (c *Cache[K, V]) triggerRotate() {
	_ = c.enqueue(command[K, V]{kind: cmdRotate})
}

func (c *Cache[K, V]) enqueue(cmd command[K, V]) error {
	select {
	case c.mailbox <- cmd:
		return nil
	case <-c.done:
		return ErrClosed
	}
}

// Insert installs pairs directly into the newest bucket, bypassing
// resolution. It is asynchronous: Insert enqueues the operation on the
// control actor and returns once it has been accepted, not applied.
func (c *Cache[K, V]) Insert(pairs []resolver.RawPair[K, V]) error {
	return c.enqueue(command[K, V]{kind: cmdInsert, pairs: pairs})
}

// Delete removes key from every bucket.
func (c *Cache[K, V]) Delete(key K) error {
	return c.enqueue(command[K, V]{kind: cmdDelete, key: key})
}

// Clear empties every bucket, leaving ring positions intact.
func (c *Cache[K, V]) Clear() error {
	return c.enqueue(command[K, V]{kind: cmdClear})
}

// SetResolver replaces the resolver used for subsequent misses. Entries
// already resolved remain cached until they age out of the ring.
func (c *Cache[K, V]) SetResolver(r resolver.Resolver[K, V]) error {
	return c.enqueue(command[K, V]{kind: cmdSetResolver, resolver: r})
}

// GetResolver returns the currently configured resolver.
func (c *Cache[K, V]) GetResolver() resolver.Resolver[K, V] {
	return c.coord.GetResolver()
}

// Get resolves a single key. See coordinator.Coordinator.Get.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	if c.closed.Load() {
		return zero, false, ErrClosed
	}
	return c.coord.Get(ctx, key)
}

// GetTuple is Get, with the key preserved in the result.
func (c *Cache[K, V]) GetTuple(ctx context.Context, key K) (coordinator.Tuple[K, V], error) {
	if c.closed.Load() {
		return coordinator.Tuple[K, V]{Key: key}, ErrClosed
	}
	return c.coord.GetTuple(ctx, key)
}

// GetMany resolves a batch of keys in one pass. See
// coordinator.Coordinator.GetMany.
func (c *Cache[K, V]) GetMany(ctx context.Context, keys []K) (map[K]*V, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.coord.GetMany(ctx, keys)
}

// GetManyTuples is GetMany, returned as an ordered slice of Tuples.
func (c *Cache[K, V]) GetManyTuples(ctx context.Context, keys []K) ([]coordinator.Tuple[K, V], error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	return c.coord.GetManyTuples(ctx, keys)
}

// BucketSnapshot is a read-only view of one ring position, returned by
// InspectContents. Index is the bucket's current position, not a stable
// identity across rotations (spec.md §9 treats bucket identity as an
// internal detail).
type BucketSnapshot[K comparable] struct {
	Index int
	Keys  []K
}

// InspectOrder returns the ring's current newest-to-oldest bucket
// position order. For tests and debugging only.
func (c *Cache[K, V]) InspectOrder() []int {
	order := make([]int, 0, c.ring.Len())
	c.ring.IterNewestToOldest(func(idx int, _ *ring.Bucket[K, V]) bool {
		order = append(order, idx)
		return true
	})
	return order
}

// InspectContents returns a per-bucket key listing in newest-to-oldest
// order. For tests and debugging only.
func (c *Cache[K, V]) InspectContents() []BucketSnapshot[K] {
	out := make([]BucketSnapshot[K], 0, c.ring.Len())
	c.ring.IterNewestToOldest(func(idx int, b *ring.Bucket[K, V]) bool {
		out = append(out, BucketSnapshot[K]{Index: idx, Keys: b.Keys()})
		return true
	})
	return out
}

// Close stops the expiry driver, drains the control actor, and
// unregisters the cache's name. It is idempotent.
func (c *Cache[K, V]) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.driver.Stop()
		close(c.stop)
		<-c.done
		unregister(c.name)
	})
	return nil
}
