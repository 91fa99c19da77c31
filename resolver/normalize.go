package resolver

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// ErrMalformedResult is returned when a resolver's result cannot be
// normalized into RawPairs: an element that is neither a RawPair, nor a
// two-element array/slice of the form [key, value].
var ErrMalformedResult = errors.New("resolver: malformed result")

// AnyFunc is a resolver shape that returns loosely-typed pairs, the Go
// rendering of spec.md §9's "the resolver may return either two-element
// tuples or two-element sequences" — implementers in statically typed
// languages are told to "accept both via a small input-normalization step
// rather than force callers into one shape." Each element of the returned
// slice must be one of:
//
//	RawPair[K, V]
//	[2]any{key, value}
//	[]any{key, value}
//
// value == nil in any of these shapes means negative.
type AnyFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]any, error)

// Normalize wraps f, converting its loosely-typed results into RawPairs on
// every call. A malformed element fails the whole call with
// ErrMalformedResult, matching spec.md §7's policy for malformed resolver
// results ("fail the current get call").
func Normalize[K comparable, V any](f AnyFunc[K, V]) Resolver[K, V] {
	return Func[K, V](func(ctx context.Context, keys []K) ([]RawPair[K, V], error) {
		raw, err := f(ctx, keys)
		if err != nil {
			return nil, err
		}
		out := make([]RawPair[K, V], 0, len(raw))
		for _, item := range raw {
			p, err := normalizeOne[K, V](item)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		return out, nil
	})
}

func normalizeOne[K comparable, V any](item any) (RawPair[K, V], error) {
	switch v := item.(type) {
	case RawPair[K, V]:
		return v, nil
	case [2]any:
		return pairFromKV[K, V](v[0], v[1])
	case []any:
		if len(v) != 2 {
			return RawPair[K, V]{}, fmt.Errorf("%w: sequence of length %d, want 2", ErrMalformedResult, len(v))
		}
		return pairFromKV[K, V](v[0], v[1])
	default:
		// Fall back to reflection for other fixed-size array/slice shapes
		// callers might hand us (e.g. a named [2]any type).
		rv := reflect.ValueOf(item)
		switch rv.Kind() {
		case reflect.Array, reflect.Slice:
			if rv.Len() != 2 {
				return RawPair[K, V]{}, fmt.Errorf("%w: sequence of length %d, want 2", ErrMalformedResult, rv.Len())
			}
			return pairFromKV[K, V](rv.Index(0).Interface(), rv.Index(1).Interface())
		default:
			return RawPair[K, V]{}, fmt.Errorf("%w: element of type %T is neither a pair nor a 2-sequence", ErrMalformedResult, item)
		}
	}
}

func pairFromKV[K comparable, V any](rawKey, rawValue any) (RawPair[K, V], error) {
	key, ok := rawKey.(K)
	if !ok {
		return RawPair[K, V]{}, fmt.Errorf("%w: key %v is not of type %T", ErrMalformedResult, rawKey, key)
	}
	if rawValue == nil {
		return RawPair[K, V]{Key: key, Value: nil}, nil
	}
	val, ok := rawValue.(V)
	if !ok {
		return RawPair[K, V]{}, fmt.Errorf("%w: value %v is not of the expected type", ErrMalformedResult, rawValue)
	}
	return RawPair[K, V]{Key: key, Value: &val}, nil
}
