// Package ringcache provides a time-deterministic, in-process key/value
// cache whose expiry is governed by a ring of generational buckets
// instead of per-entry TTL timers.
//
// Design
//
//   - Expiry: a fixed number of generations N (caller-specified; rotating
//     a ring with zero generations is rejected at construction) and a
//     fixed generation period P (default 5m) bound an entry's observable
//     lifetime to [(N-1)·P, N·P) with no per-entry timer allocation; for
//     N >= 2 that is at least P, while with N = 1 an entry lasts only
//     until the next rotation. See package ring.
//
//   - Misses: values absent from the cache are resolved in batch by a
//     user-supplied resolver.Resolver. A nil result becomes a negative
//     cache entry, a first-class hit distinct from "unknown, must
//     resolve." See package resolver and package coordinator.
//
//   - Expiry driver: a cancelable ticker rotates the ring every P,
//     clearing the oldest bucket and promoting it to newest. See package
//     expiry.
//
//   - Concurrency: a single control actor serializes every
//     ring-mutating administrative operation (Insert, Delete, Clear,
//     SetResolver, and rotation); Get/GetMany never contend with it and
//     read ring topology lock-free.
//
// Basic usage
//
//	r := resolver.Func[string, string](func(ctx context.Context, keys []string) ([]resolver.RawPair[string, string], error) {
//	    out := make([]resolver.RawPair[string, string], len(keys))
//	    for i, k := range keys {
//	        v := "v:" + k
//	        out[i] = resolver.RawPair[string, string]{Key: k, Value: &v}
//	    }
//	    return out, nil
//	})
//	c, err := ringcache.Open("users", r, ringcache.Options[string, string]{BucketCount: 3})
//	v, ok, err := c.Get(context.Background(), "a")
//
// Exporting metrics and logs (example adapters)
//
//	m := prom.New(nil, "ringcache", "users", nil) // implements ringcache.Metrics
//	zl, _ := zapstd.NewProduction()
//	c, err := ringcache.Open("users", r, ringcache.Options[string, string]{
//	    BucketCount: 3,
//	    Metrics:     m,
//	    Logger:      zap.Logger{L: zl},
//	})
package ringcache
