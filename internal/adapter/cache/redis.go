// Package cache holds the redis-backed availability counter cache. It is a
// load shedder for the hot available-count read; allocation never consults
// it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/teixeiranog/rifastatus/internal/adapter/config"
)

type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(ctx context.Context, cfg *config.Cache) (*AvailabilityCache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &AvailabilityCache{client: client, ttl: cfg.TTL}, nil
}

func availabilityKey(raffleID uint64) string {
	return fmt.Sprintf("raffle:%d:available", raffleID)
}

func (c *AvailabilityCache) GetAvailableCount(ctx context.Context, raffleID uint64) (int, bool, error) {
	count, err := c.client.Get(ctx, availabilityKey(raffleID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

func (c *AvailabilityCache) SetAvailableCount(ctx context.Context, raffleID uint64, count int) error {
	return c.client.Set(ctx, availabilityKey(raffleID), count, c.ttl).Err()
}

func (c *AvailabilityCache) InvalidateAvailableCount(ctx context.Context, raffleID uint64) error {
	return c.client.Del(ctx, availabilityKey(raffleID)).Err()
}

func (c *AvailabilityCache) Close() error {
	return c.client.Close()
}
