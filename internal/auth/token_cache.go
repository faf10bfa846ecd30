package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	verifiedTokenPrefix = "verified_token:"
	// expiryBuffer drops cached entries slightly before the token itself
	// expires so a cache hit never outlives the token.
	expiryBuffer = 60 * time.Second
)

// VerifiedTokenCache remembers tokens that already passed OIDC verification
// so repeated requests with the same bearer token skip the verifier.
// A nil cache is valid and caches nothing.
type VerifiedTokenCache struct {
	Client *redis.Client
}

func NewVerifiedTokenCache(client *redis.Client) *VerifiedTokenCache {
	return &VerifiedTokenCache{Client: client}
}

// Lookup returns the cached subject for the token, or "" on a miss.
// Cache errors count as misses so verification always has the last word.
func (c *VerifiedTokenCache) Lookup(ctx context.Context, rawToken string) string {
	if c == nil || c.Client == nil {
		return ""
	}
	sub, err := c.Client.Get(ctx, cacheKey(rawToken)).Result()
	if err != nil {
		return ""
	}
	return sub
}

// Store caches the verified subject until shortly before the token expires.
func (c *VerifiedTokenCache) Store(ctx context.Context, rawToken, sub string, expiry time.Time) {
	if c == nil || c.Client == nil || sub == "" {
		return
	}
	ttl := time.Until(expiry) - expiryBuffer
	if ttl <= 0 {
		return
	}
	// Best effort - a failed write only costs a re-verification later.
	c.Client.Set(ctx, cacheKey(rawToken), sub, ttl)
}

func cacheKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return verifiedTokenPrefix + hex.EncodeToString(sum[:])
}
