package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker serializes read-modify-write cycles on a single order. Status and
// payment status updates go through it so concurrent dashboard and webhook
// requests cannot interleave on the same row.
type Locker struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *log.Logger
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{
		Client: client,
		TTL:    ttl,
		Logger: log.Default(),
	}
}

func lockKey(orderID string) string {
	return "order_lock:" + orderID
}

// Acquire takes the mutation lock for an order. The token identifies the
// holder so an expired lock cannot be released by a stale request.
func (l *Locker) Acquire(orderID, token string) (bool, error) {
	ok, err := l.Client.SetNX(context.Background(), lockKey(orderID), token, l.TTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock error for order %s: %w", orderID, err)
	}
	return ok, nil
}

// Release drops the lock if this holder still owns it.
func (l *Locker) Release(orderID, token string) error {
	ctx := context.Background()
	key := lockKey(orderID)

	val, err := l.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := l.Client.Del(ctx, key).Result()
		return err
	}
	l.Logger.Printf("REDIS: order lock %s held by another token, not releasing", orderID)
	return nil
}
