package cache

import (
	"context"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// UsageCounter tracks per-user daily message consumption in Redis. Keys roll
// over at UTC midnight and expire on their own, so a missed decrement never
// wedges a user permanently.
type UsageCounter struct {
	client *redisv9.Client
}

func NewUsageCounter(client *redisv9.Client) *UsageCounter {
	return &UsageCounter{client: client}
}

func (c *UsageCounter) Get(ctx context.Context, userID uint, day time.Time) (int64, error) {
	count, err := c.client.Get(ctx, c.key(userID, day)).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get usage failed: %w", err)
	}
	return count, nil
}

func (c *UsageCounter) Increment(ctx context.Context, userID uint, day time.Time) (int64, error) {
	key := c.key(userID, day)
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis increment usage failed: %w", err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return count, fmt.Errorf("redis expire usage key failed: %w", err)
		}
	}
	return count, nil
}

func (c *UsageCounter) key(userID uint, day time.Time) string {
	return fmt.Sprintf("usage:msgs:%d:%s", userID, day.UTC().Format("2006-01-02"))
}
