package menu

import (
	"context"
	"encoding/json"
	"time"

	"qrmenu/internal/models"

	"github.com/go-redis/redis/v8"
)

// Cache keeps assembled public menus in Redis so a wall of scanning
// customers does not hit Postgres for every page load.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{Client: client, TTL: ttl}
}

func cacheKey(restaurantID string) string {
	return "public_menu:" + restaurantID
}

// Get returns the cached menu or (nil, nil) on a miss.
func (c *Cache) Get(restaurantID string) (*models.PublicMenu, error) {
	raw, err := c.Client.Get(context.Background(), cacheKey(restaurantID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var m models.PublicMenu
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Cache) Set(restaurantID string, m *models.PublicMenu) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.Client.Set(context.Background(), cacheKey(restaurantID), raw, c.TTL).Err()
}

func (c *Cache) Invalidate(restaurantID string) error {
	return c.Client.Del(context.Background(), cacheKey(restaurantID)).Err()
}
