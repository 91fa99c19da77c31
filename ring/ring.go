package ring

import "sync/atomic"

// Ring holds exactly N generation buckets in a fixed circular arrangement.
// The newest slot is tracked by an atomic cursor so that read paths
// (Newest, IterNewestToOldest) never contend with a lock; Rotate is the
// only mutator of ring topology and must be called by a single owner at a
// time (the control actor in the root ringcache package enforces this).
type Ring[K comparable, V any] struct {
	buckets []*Bucket[K, V]
	cursor  atomic.Int32
}

// New constructs a ring of n buckets, each with shardsPerBucket internal
// shards (<=0 selects a reasonable default). n must be >= 1; callers are
// expected to validate n before calling New (see ringcache.Open).
func New[K comparable, V any](n, shardsPerBucket int) *Ring[K, V] {
	buckets := make([]*Bucket[K, V], n)
	for i := range buckets {
		buckets[i] = NewBucket[K, V](shardsPerBucket)
	}
	return &Ring[K, V]{buckets: buckets}
}

// Len returns N, the fixed number of generations in the ring.
func (r *Ring[K, V]) Len() int { return len(r.buckets) }

// NewestIndex returns the current newest slot's position.
func (r *Ring[K, V]) NewestIndex() int { return int(r.cursor.Load()) }

// OldestIndex returns the current oldest slot's position: the slot a
// rotation will clear and promote next.
func (r *Ring[K, V]) OldestIndex() int {
	n := int32(len(r.buckets))
	return int((r.cursor.Load() + 1) % n)
}

// Newest returns the current insert-target bucket.
func (r *Ring[K, V]) Newest() *Bucket[K, V] {
	return r.buckets[r.cursor.Load()]
}

// BucketAt returns the bucket at a logical ring position (0..Len()-1).
// Positions are stable slot indices, not generation identities: after a
// rotation the bucket found at a given index is a different generation.
func (r *Ring[K, V]) BucketAt(i int) *Bucket[K, V] { return r.buckets[i] }

// IterNewestToOldest calls fn once per bucket, starting at newest and
// working back to oldest, stopping early if fn returns false. This is the
// read path's search order: the freshest copy of a repeatedly-resolved
// key is always found first (see package doc and spec rationale).
func (r *Ring[K, V]) IterNewestToOldest(fn func(idx int, b *Bucket[K, V]) bool) {
	n := int32(len(r.buckets))
	cur := r.cursor.Load()
	for i := int32(0); i < n; i++ {
		idx := ((cur-i)%n + n) % n
		if !fn(int(idx), r.buckets[idx]) {
			return
		}
	}
}

// RotateResult describes the outcome of a single Rotate call, used to
// build the rotation log record spec.md §6 requires.
type RotateResult struct {
	ExpiredIndex    int
	SizeBeforeClear int
	NewNewestIndex  int
	NewOldestIndex  int
}

// Rotate clears the oldest bucket and promotes it to newest in O(1): only
// the cursor moves, no bucket is copied or reallocated. Rotate must be
// called only by the ring's single owner (the control actor); it is not
// safe to call concurrently with itself.
func (r *Ring[K, V]) Rotate() RotateResult {
	n := int32(len(r.buckets))
	oldest := (r.cursor.Load() + 1) % n
	before := r.buckets[oldest].Len()
	r.buckets[oldest].Clear()
	r.cursor.Store(oldest)
	return RotateResult{
		ExpiredIndex:    int(oldest),
		SizeBeforeClear: before,
		NewNewestIndex:  int(oldest),
		NewOldestIndex:  int((oldest + 1) % n),
	}
}

// ClearAll empties every bucket without changing ring positions.
func (r *Ring[K, V]) ClearAll() {
	for _, b := range r.buckets {
		b.Clear()
	}
}

// DeleteFromAll removes k from every bucket, used for explicit invalidation.
func (r *Ring[K, V]) DeleteFromAll(k K) {
	for _, b := range r.buckets {
		b.Delete(k)
	}
}
