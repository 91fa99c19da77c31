package ringcache

import "time"

// Options configures a cache opened with Open. Most zero values are safe;
// sane defaults are applied in Open:
//   - GenerationPeriod <= 0 => 5 minutes
//   - nil Logger            => NopLogger
//   - nil Metrics           => NoopMetrics
//
// BucketCount is the exception: it has no zero-value default. Rotating a
// ring with zero generations is nonsensical, so Open rejects BucketCount
// <= 0 with ErrInvalidConfig instead of silently substituting a default.
type Options[K comparable, V any] struct {
	// BucketCount is N, the number of ring generations. Must be >= 1. An
	// entry is cleared by the BucketCount-th rotation after it is
	// installed, so its observable lifetime is bounded to
	// [(BucketCount-1)*GenerationPeriod, BucketCount*GenerationPeriod).
	// That is at least GenerationPeriod only for BucketCount >= 2; with
	// BucketCount 1 an entry lasts only until the next rotation.
	BucketCount int

	// GenerationPeriod is P, the period between ring rotations.
	GenerationPeriod time.Duration

	// ShardsPerBucket controls the internal concurrent-map sharding of
	// each bucket. 0 chooses a heuristic based on GOMAXPROCS.
	ShardsPerBucket int

	// DisableCoalescing turns off the per-key (and per-batch) in-flight
	// de-duplication that Get/GetMany otherwise apply on a miss. The
	// baseline spec this cache follows does not require coalescing —
	// concurrent misses for the same key may each invoke the resolver,
	// the last install winning — so disabling it is a valid, if
	// thundering-herd-prone, configuration.
	DisableCoalescing bool

	// Logger receives the rotation log record and an Error record for
	// each failed resolver call, malformed resolver results included. Nil
	// disables logging.
	Logger Logger

	// Metrics receives hit/miss/negative/resolve/rotate signals. Nil
	// disables metrics.
	Metrics Metrics
}

func (o *Options[K, V]) setDefaults() {
	if o.GenerationPeriod <= 0 {
		o.GenerationPeriod = 5 * time.Minute
	}
	if o.Logger == nil {
		o.Logger = NopLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
}
