package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type scopeKey string

type component struct {
	ID   int
	Name string
}

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

func TestInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[scopeKey, component]("singletons", DefaultExpiration, DefaultCleanupInterval)
	c := component{ID: 1, Name: "greeter"}
	cache.Set(context.Background(), "root|greeter", c, 0)

	got, ok := cache.Get(context.Background(), "root|greeter")
	require.True(t, ok)
	require.Equal(t, c, got)
}

func TestInMemoryCacheManager_GetMissing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("singletons", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_GetWithInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("singletons", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("key", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "key")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiration(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("singletons", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "short", "lived", time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "short")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	ctx := context.Background()
	cache := NewInMemoryCacheManager[string, int]("singletons", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(ctx, "a", 1, 0)
	cache.Set(ctx, "b", 2, 0)
	cache.Set(ctx, "c", 3, 0)
	require.Equal(t, 3, cache.Len())

	require.NoError(t, cache.Delete(ctx, "a", "b"))
	require.Equal(t, 1, cache.Len())

	require.NoError(t, cache.Flush(ctx))
	require.Equal(t, 0, cache.Len())
}
