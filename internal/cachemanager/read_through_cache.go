package cachemanager

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// ReadThroughCache loads missing entries through fn. Concurrent misses for the
// same key share one call to fn.
type ReadThroughCache[K ~string, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
	group singleflight.Group
}

func NewReadThroughCache[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
) *ReadThroughCache[K, V, I] {
	return &ReadThroughCache[K, V, I]{
		cache: cache,
		fn:    fn,
	}
}

// Get returns the cached value for key, loading it with input on a miss.
// Errors are not cached.
func (r *ReadThroughCache[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if value, ok := r.cache.Get(ctx, key); ok {
		return value, nil
	}

	result, err, _ := r.group.Do(string(key), func() (any, error) {
		// A concurrent loader may have finished between the miss and Do.
		if value, ok := r.cache.Get(ctx, key); ok {
			return value, nil
		}
		value, err := r.fn(ctx, input)
		if err != nil {
			return value, err
		}
		r.cache.Set(ctx, key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	value, _ := result.(V)
	return value, nil
}
