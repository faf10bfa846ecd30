package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*VerifiedTokenCache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewVerifiedTokenCache(client), mr
}

func TestVerifiedTokenCache_StoreAndLookup(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	cache.Store(ctx, "raw-token", "user-42", time.Now().Add(time.Hour))
	assert.Equal(t, "user-42", cache.Lookup(ctx, "raw-token"))
	assert.Empty(t, cache.Lookup(ctx, "other-token"))
}

func TestVerifiedTokenCache_SkipsNearlyExpiredTokens(t *testing.T) {
	cache, _ := setupCache(t)
	ctx := context.Background()

	// Inside the expiry buffer: nothing is cached.
	cache.Store(ctx, "raw-token", "user-42", time.Now().Add(30*time.Second))
	assert.Empty(t, cache.Lookup(ctx, "raw-token"))
}

func TestVerifiedTokenCache_EntryExpiresBeforeToken(t *testing.T) {
	cache, mr := setupCache(t)
	ctx := context.Background()

	cache.Store(ctx, "raw-token", "user-42", time.Now().Add(90*time.Second))
	assert.Equal(t, "user-42", cache.Lookup(ctx, "raw-token"))

	// TTL is expiry minus the buffer, so ~30s here.
	mr.FastForward(time.Minute)
	assert.Empty(t, cache.Lookup(ctx, "raw-token"))
}

func TestVerifiedTokenCache_NilSafe(t *testing.T) {
	var cache *VerifiedTokenCache
	ctx := context.Background()

	assert.Empty(t, cache.Lookup(ctx, "raw-token"))
	cache.Store(ctx, "raw-token", "user-42", time.Now().Add(time.Hour)) // must not panic

	empty := &VerifiedTokenCache{}
	assert.Empty(t, empty.Lookup(ctx, "raw-token"))
}
