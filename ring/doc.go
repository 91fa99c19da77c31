// Package ring implements the generation ring and its buckets: the data
// structure at the core of ringcache's expiry model.
//
// A Ring holds exactly N buckets arranged in a circle. One position is
// "newest" (the insert target) and the position immediately behind it is
// "oldest" (the next bucket a rotation will reclaim). Rotation is an O(1)
// pointer move: the oldest bucket is cleared and becomes the new newest.
// No per-entry timers exist; an entry's age is implied entirely by which
// bucket holds it and how many rotations have happened since.
//
// Buckets are internally sharded maps so that concurrent readers (cache
// lookups) and the resolver's writers (miss installs) do not serialize on
// a single lock; only Ring.Rotate, which the control actor in the root
// ringcache package calls exclusively, mutates ring topology.
package ring
