// Package resolver defines the resolver contract used to fill cache
// misses: a batch function from keys to present-or-negative results, plus
// the two accommodations spec.md calls for in a statically typed
// implementation — accepting heterogeneous pair shapes, and a late-bound
// (namespace, name, extra_args) resolver form.
package resolver
