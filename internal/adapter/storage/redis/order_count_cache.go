package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// OrderCountCache implements ports.OrderCountCache using Redis. It sits in
// front of the order service so refund scoring does not hit it on every
// refund; staleness is bounded by the TTL.
type OrderCountCache struct {
	client *goredis.Client
	prefix string
}

// NewOrderCountCache creates a new Redis-backed order count cache.
func NewOrderCountCache(client *goredis.Client) *OrderCountCache {
	return &OrderCountCache{
		client: client,
		prefix: "ordercount:",
	}
}

// Get retrieves a cached completed-order count.
// Returns found=false on a miss.
func (c *OrderCountCache) Get(ctx context.Context, customerID uuid.UUID) (int64, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+customerID.String()).Result()
	if err != nil {
		if err == goredis.Nil {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis order count get: %w", err)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("redis order count parse: %w", err)
	}
	return count, true, nil
}

// Set stores a completed-order count with TTL.
func (c *OrderCountCache) Set(ctx context.Context, customerID uuid.UUID, count int64, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+customerID.String(), count, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis order count set: %w", err)
	}
	return nil
}
