package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists quota state in Redis so that concurrent exports
// running against the same Canvas token share one view of the bucket.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{
		redis: redisClient,
	}
}

// Load fetches all state fields from Redis. Returns found=false when no
// state has been stored yet.
func (r *RedisStore) Load(ctx context.Context) (*RateLimitState, bool, error) {
	remaining, err := r.redis.Get(ctx, RedisKeyRemaining).Float64()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get remaining: %w", err)
	}

	lastCost, err := r.redis.Get(ctx, RedisKeyLastCost).Float64()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("get last cost: %w", err)
	}

	lastUpdateStr, err := r.redis.Get(ctx, RedisKeyLastUpdate).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("get last update: %w", err)
	}

	var lastUpdate time.Time
	if lastUpdateStr != "" {
		if err := json.Unmarshal([]byte(lastUpdateStr), &lastUpdate); err != nil {
			return nil, false, fmt.Errorf("parse last update: %w", err)
		}
	}

	state := &RateLimitState{
		Remaining:  remaining,
		LastCost:   lastCost,
		LastUpdate: lastUpdate,
	}
	state.UpdateHealth()

	return state, true, nil
}

// Save stores all state fields atomically via a pipeline.
func (r *RedisStore) Save(ctx context.Context, state *RateLimitState) error {
	lastUpdateJSON, err := json.Marshal(state.LastUpdate)
	if err != nil {
		return fmt.Errorf("marshal last update: %w", err)
	}

	pipe := r.redis.Pipeline()
	pipe.Set(ctx, RedisKeyRemaining, state.Remaining, 0)
	pipe.Set(ctx, RedisKeyLastCost, state.LastCost, 0)
	pipe.Set(ctx, RedisKeyLastUpdate, lastUpdateJSON, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	return nil
}
