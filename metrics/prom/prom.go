// Package prom adapts ringcache.Metrics to Prometheus counters.
package prom

import (
	"github.com/prometheus/client_golang/prometheus"

	"ringcache"
)

// Adapter implements ringcache.Metrics and exports Prometheus counters.
// Safe for concurrent use; all Prometheus metric types are goroutine-safe.
type Adapter struct {
	hits           prometheus.Counter
	misses         prometheus.Counter
	negatives      prometheus.Counter
	resolves       prometheus.Counter
	resolvedKeys   prometheus.Counter
	resolverErrors prometheus.Counter
	rotations      prometheus.Counter
}

// New constructs a Prometheus metrics adapter.
//   - reg:         registry to register metrics with (nil => prometheus.DefaultRegisterer)
//   - ns, sub:      Prometheus namespace and subsystem
//   - constLabels: static labels applied to all metrics (may be nil)
func New(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels) *Adapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &Adapter{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "hits_total",
			Help:        "Ring lookups found in some bucket, present or negative",
			ConstLabels: constLabels,
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "misses_total",
			Help:        "Ring lookups not found in any bucket at lookup time",
			ConstLabels: constLabels,
		}),
		negatives: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "negatives_total",
			Help:        "Results that resolved to the negative marker",
			ConstLabels: constLabels,
		}),
		resolves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "resolves_total",
			Help:        "Resolver invocations",
			ConstLabels: constLabels,
		}),
		resolvedKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "resolved_keys_total",
			Help:        "Keys handed to the resolver across all invocations",
			ConstLabels: constLabels,
		}),
		resolverErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "resolver_errors_total",
			Help:        "Resolver invocations that returned an error",
			ConstLabels: constLabels,
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "rotations_total",
			Help:        "Ring rotations performed",
			ConstLabels: constLabels,
		}),
	}
	reg.MustRegister(a.hits, a.misses, a.negatives, a.resolves, a.resolvedKeys, a.resolverErrors, a.rotations)
	return a
}

func (a *Adapter) Hit()      { a.hits.Inc() }
func (a *Adapter) Miss()     { a.misses.Inc() }
func (a *Adapter) Negative() { a.negatives.Inc() }

func (a *Adapter) Resolve(keys int) {
	a.resolves.Inc()
	a.resolvedKeys.Add(float64(keys))
}

func (a *Adapter) ResolverError() { a.resolverErrors.Inc() }
func (a *Adapter) Rotate()        { a.rotations.Inc() }

// Compile-time check: ensure Adapter implements ringcache.Metrics.
var _ ringcache.Metrics = (*Adapter)(nil)
