package ringcache

import (
	"errors"

	"ringcache/resolver"
)

// ErrMalformedResolverResult is returned (and logged) when a resolver's
// result cannot be normalized into present/negative pairs.
var ErrMalformedResolverResult = resolver.ErrMalformedResult

var (
	// ErrUnknownCache is returned by Lookup when no cache is registered
	// under the given name.
	ErrUnknownCache = errors.New("ringcache: unknown cache")
	// ErrDuplicateName is returned by Open when name is already in use by
	// an open cache.
	ErrDuplicateName = errors.New("ringcache: duplicate cache name")
	// ErrInvalidConfig is returned by Open for a rejected configuration
	// (an empty name, or bucket_count < 1) and by Lookup when a name
	// resolves to a cache opened with different type parameters.
	ErrInvalidConfig = errors.New("ringcache: invalid configuration")
	// ErrClosed is returned by operations on a cache after Close.
	ErrClosed = errors.New("ringcache: cache is closed")
)
