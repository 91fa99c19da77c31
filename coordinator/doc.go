// Package coordinator implements the Resolver Coordinator: the component
// that turns a batch of requested keys into a batch of results by walking
// the generation ring newest-to-oldest, handing the residual misses to a
// resolver, and installing every resolved pair into the newest bucket.
//
// Get and GetMany never contend with the cache's control actor — they
// read ring topology lock-free and write misses directly into whichever
// bucket is newest at the moment of install. Two concurrent misses for
// the same key may both invoke the resolver; the last install wins. An
// optional per-key (and per-batch) in-flight table, enabled via
// Config.Coalesce, narrows that window for the common case of many
// callers missing on the same hot key at once, as spec.md §4.2 explicitly
// permits but does not require.
package coordinator
