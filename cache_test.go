package ringcache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ringcache/resolver"
)

func prefixResolver(prefix string, calls *int32) resolver.Resolver[string, string] {
	return resolver.Func[string, string](func(_ context.Context, keys []string) ([]resolver.RawPair[string, string], error) {
		atomic.AddInt32(calls, 1)
		out := make([]resolver.RawPair[string, string], len(keys))
		for i, k := range keys {
			v := prefix + k
			out[i] = resolver.RawPair[string, string]{Key: k, Value: &v}
		}
		return out, nil
	})
}

// S1 — Basic hit.
func TestOpen_BasicHit(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("s1", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	v, ok, err := c.Get(context.Background(), "a")
	if err != nil || !ok || v != "v:a" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}
	v, ok, err = c.Get(context.Background(), "a")
	if err != nil || !ok || v != "v:a" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("resolver must be called exactly once, got %d", calls)
	}
}

// S2 — Negative cache.
func TestOpen_NegativeCache(t *testing.T) {
	t.Parallel()

	var calls int32
	negResolver := resolver.Func[string, string](func(_ context.Context, keys []string) ([]resolver.RawPair[string, string], error) {
		atomic.AddInt32(&calls, 1)
		out := make([]resolver.RawPair[string, string], len(keys))
		for i, k := range keys {
			out[i] = resolver.RawPair[string, string]{Key: k, Value: nil}
		}
		return out, nil
	})
	c, err := Open("s2", negResolver, Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, ok, err := c.Get(context.Background(), "x"); err != nil || ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
	if _, ok, err := c.Get(context.Background(), "x"); err != nil || ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("resolver must be called exactly once, got %d", calls)
	}
}

// S3 — Generation rollover.
func TestOpen_GenerationRollover(t *testing.T) {
	var counter int32
	r := resolver.Func[string, string](func(_ context.Context, keys []string) ([]resolver.RawPair[string, string], error) {
		gen := atomic.AddInt32(&counter, 1) - 1
		out := make([]resolver.RawPair[string, string], len(keys))
		for i, k := range keys {
			v := "ans-" + string(rune('0'+gen))
			out[i] = resolver.RawPair[string, string]{Key: k, Value: &v}
		}
		return out, nil
	})
	c, err := Open("s3", r, Options[string, string]{
		BucketCount:      3,
		GenerationPeriod: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	v, ok, err := c.Get(context.Background(), "foo")
	if err != nil || !ok || v != "ans-0" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}

	time.Sleep(3100 * time.Millisecond)

	v, ok, err = c.Get(context.Background(), "foo")
	if err != nil || !ok || v != "ans-1" {
		t.Fatalf("after rollover got v=%q ok=%v err=%v", v, ok, err)
	}
}

// S4 — Batch partial hit.
func TestOpen_BatchPartialHit(t *testing.T) {
	t.Parallel()

	var calls int32
	r := resolver.Func[string, int](func(_ context.Context, keys []string) ([]resolver.RawPair[string, int], error) {
		atomic.AddInt32(&calls, 1)
		if len(keys) != 1 || keys[0] != "b" {
			t.Fatalf("resolver should only be called with [b], got %v", keys)
		}
		v := 2
		return []resolver.RawPair[string, int]{{Key: "b", Value: &v}}, nil
	})
	c, err := Open("s4", r, Options[string, int]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Insert([]resolver.RawPair[string, int]{{Key: "a", Value: intPtr(1)}}); err != nil {
		t.Fatal(err)
	}
	waitForInsert(t, c, "a")

	got, err := c.GetMany(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if v := got["a"]; v == nil || *v != 1 {
		t.Fatalf("a wrong: %v", v)
	}
	if v := got["b"]; v == nil || *v != 2 {
		t.Fatalf("b wrong: %v", v)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("want exactly 1 resolver call, got %d", calls)
	}
}

// S5 — Explicit delete.
func TestOpen_ExplicitDelete(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("s5", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := c.Insert([]resolver.RawPair[string, string]{{Key: "k", Value: strPtr("v")}}); err != nil {
		t.Fatal(err)
	}
	waitForInsert(t, c, "k")

	if err := c.Delete("k"); err != nil {
		t.Fatal(err)
	}
	waitForDelete(t, c, "k")

	if _, _, err := c.Get(context.Background(), "k"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("delete must force a resolver call, got %d", calls)
	}
}

// S6 — Resolver replacement.
func TestOpen_ResolverReplacement(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("s6", prefixResolver("v1:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if v, _, err := c.Get(context.Background(), "a"); err != nil || v != "v1:a" {
		t.Fatalf("got v=%q err=%v", v, err)
	}

	if err := c.SetResolver(prefixResolver("v2:", &calls)); err != nil {
		t.Fatal(err)
	}
	waitForResolver(t, c, "v2:")

	// Existing entry resolved by r1 is unaffected.
	if v, ok, err := c.Get(context.Background(), "a"); err != nil || !ok || v != "v1:a" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}
	// A fresh key is resolved by r2.
	if v, ok, err := c.Get(context.Background(), "new"); err != nil || !ok || v != "v2:new" {
		t.Fatalf("got v=%q ok=%v err=%v", v, ok, err)
	}
}

func TestOpen_DuplicateNameRejected(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("dup-name", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	_, err = Open("dup-name", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err == nil {
		t.Fatal("want error opening a cache under an in-use name")
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	var calls int32
	_, err := Open("", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err == nil {
		t.Fatal("want error for empty name")
	}
}

// spec.md §7: rotation of an empty ring (N=0) is rejected at construction,
// not silently defaulted.
func TestOpen_RejectsZeroBucketCount(t *testing.T) {
	t.Parallel()

	var calls int32
	_, err := Open("zero-buckets", prefixResolver("v:", &calls), Options[string, string]{})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig for BucketCount=0, got %v", err)
	}

	_, err = Open("negative-buckets", prefixResolver("v:", &calls), Options[string, string]{BucketCount: -1})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("want ErrInvalidConfig for negative BucketCount, got %v", err)
	}
}

func TestLookup_RoundTrip(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("lookup-me", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	found, err := Lookup[string, string]("lookup-me")
	if err != nil {
		t.Fatal(err)
	}
	if found != c {
		t.Fatal("Lookup returned a different handle")
	}

	if _, err := Lookup[string, string]("does-not-exist"); err == nil {
		t.Fatal("want error for unknown name")
	}
}

func TestClose_IsIdempotentAndUnregisters(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("closes-cleanly", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got %v", err)
	}
	if _, err := Lookup[string, string]("closes-cleanly"); err == nil {
		t.Fatal("name must be released after Close")
	}
	if _, _, err := c.Get(context.Background(), "a"); err != ErrClosed {
		t.Fatalf("want ErrClosed after Close, got %v", err)
	}
}

func TestInspectOrderAndContents(t *testing.T) {
	t.Parallel()

	var calls int32
	c, err := Open("inspect", prefixResolver("v:", &calls), Options[string, string]{BucketCount: 3})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, _, err := c.Get(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}

	order := c.InspectOrder()
	if len(order) != 3 {
		t.Fatalf("want 3 positions, got %d", len(order))
	}

	contents := c.InspectContents()
	if len(contents) != 3 {
		t.Fatalf("want 3 bucket snapshots, got %d", len(contents))
	}
	found := false
	for _, b := range contents {
		for _, k := range b.Keys {
			if k == "a" {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("inserted key not found in any bucket snapshot")
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func waitForInsert[K comparable, V any](t *testing.T, c *Cache[K, V], key K) {
	t.Helper()
	waitUntil(t, func() bool {
		for _, b := range c.InspectContents() {
			for _, k := range b.Keys {
				if k == key {
					return true
				}
			}
		}
		return false
	})
}

func waitForDelete[K comparable, V any](t *testing.T, c *Cache[K, V], key K) {
	t.Helper()
	waitUntil(t, func() bool {
		for _, b := range c.InspectContents() {
			for _, k := range b.Keys {
				if k == key {
					return false
				}
			}
		}
		return true
	})
}

// waitForResolver polls with a fresh, never-before-seen key on every
// attempt (so each attempt genuinely re-invokes whatever resolver is
// currently active, instead of hitting a value cached from an earlier
// attempt) until the active resolver's output carries wantPrefix.
func waitForResolver(t *testing.T, c *Cache[string, string], wantPrefix string) {
	t.Helper()
	ctx := context.Background()
	attempt := 0
	waitUntil(t, func() bool {
		attempt++
		probe := "__resolver_probe__" + string(rune('a'+attempt%26)) + string(rune('0'+attempt/26))
		v, _, err := c.Get(ctx, probe)
		return err == nil && len(v) >= len(wantPrefix) && v[:len(wantPrefix)] == wantPrefix
	})
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
