package ringcache

// Metrics exposes cache-level observability hooks. A NoopMetrics
// implementation is used by default; plug a Prometheus adapter (see
// metrics/prom) to export these.
type Metrics interface {
	// Hit is called for every key found somewhere in the ring, whether
	// present or negative.
	Hit()
	// Miss is called for every key not found anywhere in the ring at
	// lookup time (it may still resolve to a cached value installed by a
	// racing concurrent caller before the resolver runs).
	Miss()
	// Negative is called whenever the final result for a key is the
	// negative marker, whether served from the ring or freshly resolved.
	Negative()
	// Resolve is called once per resolver invocation with the number of
	// keys in the batch handed to it.
	Resolve(keys int)
	// ResolverError is called whenever a resolver call returns an error.
	ResolverError()
	// Rotate is called once per ring rotation.
	Rotate()
}

// NoopMetrics is a drop-in Metrics implementation that does nothing. It
// is safe for concurrent use and is the default when no observability
// backend is configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Negative()      {}
func (NoopMetrics) Resolve(int)    {}
func (NoopMetrics) ResolverError() {}
func (NoopMetrics) Rotate()        {}

var _ Metrics = NoopMetrics{}
