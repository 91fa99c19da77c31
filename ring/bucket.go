package ring

import (
	"sync"
	"sync/atomic"

	"ringcache/internal/util"
)

// State tags what a bucket entry represents.
type State uint8

const (
	// Absent is never stored; it is the zero value returned when a key is
	// not present in a bucket at all.
	Absent State = iota
	// Present marks an entry holding a resolver-produced value.
	Present
	// Negative marks an entry confirming the resolver found nothing for
	// the key. It is a first-class cache hit, distinct from Absent.
	Negative
)

// Entry is what a Bucket stores for one key: either a present value or a
// negative marker. The zero Entry is not meaningful on its own; check
// State before reading Value.
type Entry[V any] struct {
	Value V
	State State
}

// IsNegative reports whether e represents a confirmed-absent resolver result.
func (e Entry[V]) IsNegative() bool { return e.State == Negative }

// bucketShard is one internally-sharded partition of a Bucket's key space.
type bucketShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]Entry[V]
}

// Bucket is a mutable mapping from key to Entry, sharded internally for
// concurrent access. Uniqueness of keys within a bucket is an invariant;
// Insert overwrites, it never creates a duplicate.
//
// Bucket carries no timestamp of its own — its age is implied entirely by
// its position in the owning Ring.
type Bucket[K comparable, V any] struct {
	shards []*bucketShard[K, V]
	size   atomic.Int64

	_    util.CacheLinePad
	hits util.PaddedAtomicInt64
	miss util.PaddedAtomicInt64
}

// NewBucket constructs an empty bucket with the given number of internal
// shards. shardCount <= 0 selects util.ReasonableShardCount().
func NewBucket[K comparable, V any](shardCount int) *Bucket[K, V] {
	if shardCount <= 0 {
		shardCount = util.ReasonableShardCount()
	}
	n := int(util.NextPow2(uint64(shardCount)))
	shards := make([]*bucketShard[K, V], n)
	for i := range shards {
		shards[i] = &bucketShard[K, V]{m: make(map[K]Entry[V])}
	}
	return &Bucket[K, V]{shards: shards}
}

func (b *Bucket[K, V]) shardFor(k K) *bucketShard[K, V] {
	h := util.Fnv64a(k)
	idx := util.ShardIndex(h, len(b.shards))
	return b.shards[idx]
}

// Lookup returns the entry stored for k and whether it was found. A
// negative entry is a "found" result with State == Negative, distinct
// from an absent key (found == false).
func (b *Bucket[K, V]) Lookup(k K) (Entry[V], bool) {
	s := b.shardFor(k)
	s.mu.RLock()
	e, ok := s.m[k]
	s.mu.RUnlock()
	if ok {
		b.hits.Add(1)
	} else {
		b.miss.Add(1)
	}
	return e, ok
}

// Insert stores e for k, overwriting any existing entry.
func (b *Bucket[K, V]) Insert(k K, e Entry[V]) {
	s := b.shardFor(k)
	s.mu.Lock()
	_, existed := s.m[k]
	s.m[k] = e
	s.mu.Unlock()
	if !existed {
		b.size.Add(1)
	}
}

// InsertMany stores every pair in one pass, grouping writes by shard is
// unnecessary at this scale; each pair still takes its own shard lock so
// InsertMany composes correctly with concurrent single Inserts.
func (b *Bucket[K, V]) InsertMany(keys []K, entries []Entry[V]) {
	n := len(keys)
	if len(entries) < n {
		n = len(entries)
	}
	for i := 0; i < n; i++ {
		b.Insert(keys[i], entries[i])
	}
}

// Delete removes k if present. Deleting an absent key is a no-op.
func (b *Bucket[K, V]) Delete(k K) {
	s := b.shardFor(k)
	s.mu.Lock()
	_, existed := s.m[k]
	if existed {
		delete(s.m, k)
	}
	s.mu.Unlock()
	if existed {
		b.size.Add(-1)
	}
}

// Clear empties every shard of the bucket.
func (b *Bucket[K, V]) Clear() {
	for _, s := range b.shards {
		s.mu.Lock()
		s.m = make(map[K]Entry[V])
		s.mu.Unlock()
	}
	b.size.Store(0)
}

// Len returns the approximate number of resident entries. It is exact
// under exclusive access and eventually-consistent under concurrent
// mutation, which matches the ring's own non-goal of strong consistency.
func (b *Bucket[K, V]) Len() int {
	n := b.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Keys returns a snapshot of every key currently resident in the bucket.
// For tests and debugging only; it takes every shard's read lock in turn.
func (b *Bucket[K, V]) Keys() []K {
	out := make([]K, 0, b.Len())
	for _, s := range b.shards {
		s.mu.RLock()
		for k := range s.m {
			out = append(out, k)
		}
		s.mu.RUnlock()
	}
	return out
}

// Stats returns the bucket's cumulative lookup hit/miss counts. Reset only
// by discarding the bucket (rotation replaces buckets logically, not
// physically — Clear does not reset these counters, since they describe
// lookup traffic, not resident size).
func (b *Bucket[K, V]) Stats() (hits, misses int64) {
	return b.hits.Load(), b.miss.Load()
}
