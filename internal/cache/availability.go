package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BusyInterval is one occupied range on a horse's calendar.
type BusyInterval struct {
	Kind  string    `json:"kind"` // "booking" or "blocked_slot"
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityCache is a read-through Redis cache for horse availability
// lookups. Writes to a horse's calendar invalidate its entry.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewAvailabilityCache creates the cache with the given entry TTL.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

// NewClient connects a Redis client and verifies it with a ping.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func availabilityKey(horseID uuid.UUID, from, to time.Time) string {
	return fmt.Sprintf("availability:%s:%d:%d", horseID, from.Unix(), to.Unix())
}

func horseSetKey(horseID uuid.UUID) string {
	return fmt.Sprintf("availability-keys:%s", horseID)
}

// Get returns the cached busy intervals for the query, or (nil, false) on a
// miss. Cache failures degrade to a miss; the caller falls through to the
// database.
func (c *AvailabilityCache) Get(ctx context.Context, horseID uuid.UUID, from, to time.Time) ([]BusyInterval, bool) {
	raw, err := c.client.Get(ctx, availabilityKey(horseID, from, to)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("availability cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var intervals []BusyInterval
	if err := json.Unmarshal(raw, &intervals); err != nil {
		c.logger.Warn("availability cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return intervals, true
}

// Set stores the busy intervals and tracks the key for invalidation.
func (c *AvailabilityCache) Set(ctx context.Context, horseID uuid.UUID, from, to time.Time, intervals []BusyInterval) {
	raw, err := json.Marshal(intervals)
	if err != nil {
		return
	}

	key := availabilityKey(horseID, from, to)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, raw, c.ttl)
	pipe.SAdd(ctx, horseSetKey(horseID), key)
	pipe.Expire(ctx, horseSetKey(horseID), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("availability cache write failed", zap.Error(err))
	}
}

// Invalidate drops every cached availability entry for the horse.
func (c *AvailabilityCache) Invalidate(ctx context.Context, horseID uuid.UUID) {
	setKey := horseSetKey(horseID)
	keys, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		c.logger.Warn("availability cache invalidation failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
	c.client.Del(ctx, setKey)
}
