// Command ringcache-demo exercises a ring cache against a toy resolver,
// printing hits, misses, and negative results while exposing Prometheus
// metrics for inspection.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ringcache"
	zapadapter "ringcache/log/zap"
	"ringcache/metrics/prom"
	"ringcache/resolver"
)

func main() {
	var (
		buckets     = flag.Int("buckets", 4, "ring bucket count (N)")
		period      = flag.Duration("period", 2*time.Second, "rotation period (P)")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
		disableCoal = flag.Bool("disable-coalescing", false, "disable per-key/per-batch in-flight de-duplication")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zapadapter.Logger{L: zl}

	metrics := prom.New(nil, "ringcache", "demo", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// A resolver standing in for a slow backend: keys of even length
	// resolve to a value (so "odd1" does too), keys of odd length resolve
	// to confirmed-absent, and the key "missing"
	// is silently omitted to exercise the omitted-key-is-not-cached path.
	backend := resolver.Func[string, string](func(_ context.Context, keys []string) ([]resolver.RawPair[string, string], error) {
		time.Sleep(50 * time.Millisecond)
		out := make([]resolver.RawPair[string, string], 0, len(keys))
		for _, k := range keys {
			if k == "missing" {
				continue
			}
			if len(k)%2 == 0 {
				v := "value-for-" + k
				out = append(out, resolver.RawPair[string, string]{Key: k, Value: &v})
			} else {
				out = append(out, resolver.RawPair[string, string]{Key: k})
			}
		}
		return out, nil
	})

	c, err := ringcache.Open("demo", backend, ringcache.Options[string, string]{
		BucketCount:       *buckets,
		GenerationPeriod:  *period,
		DisableCoalescing: *disableCoal,
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		log.Fatalf("Open: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Printf("cache close: %v", err)
		}
	}()

	fmt.Println("ringcache-demo starting")
	fmt.Printf("config: buckets=%d period=%s coalescing=%v\n", *buckets, *period, !*disableCoal)

	keys := []string{"even", "odd1", "ab", "xyz", "missing"}
	for _, k := range keys {
		v, ok, err := c.Get(ctx, k)
		if err != nil {
			fmt.Printf("Get(%q) error: %v\n", k, err)
			continue
		}
		if !ok {
			fmt.Printf("Get(%q) -> miss\n", k)
			continue
		}
		fmt.Printf("Get(%q) -> %q\n", k, v)
	}

	// Second pass over the same keys should hit the ring, not the resolver,
	// for everything but "missing" (which was never cached).
	m, err := c.GetMany(ctx, keys)
	if err != nil {
		fmt.Printf("GetMany error: %v\n", err)
	} else {
		for _, k := range keys {
			v, present := m[k]
			switch {
			case !present:
				fmt.Printf("GetMany[%q] -> absent\n", k)
			case v == nil:
				fmt.Printf("GetMany[%q] -> negative\n", k)
			default:
				fmt.Printf("GetMany[%q] -> %q\n", k, *v)
			}
		}
	}

	fmt.Println("bucket order (newest to oldest):", c.InspectOrder())
	fmt.Println("waiting for a rotation or Ctrl+C...")

	select {
	case <-ctx.Done():
		fmt.Println("received shutdown signal")
	case <-time.After(*period + 500*time.Millisecond):
		fmt.Println("bucket order after one rotation:", c.InspectOrder())
	}
}
