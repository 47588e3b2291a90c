package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupeKeyPrefix = "runs:sync:last_enqueue:"

// syncDedupe records the last enqueue time per user in Redis so the nightly
// fan-out stays idempotent when the scheduler fires twice inside the window.
type syncDedupe struct {
	rdb *redis.Client
	ttl time.Duration
}

func newSyncDedupe(redisURL string, ttl time.Duration) (*syncDedupe, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &syncDedupe{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

// MarkIfStale records an enqueue for the user unless one is already recorded
// inside the TTL window. Returns true when the caller should enqueue.
func (d *syncDedupe) MarkIfStale(ctx context.Context, userID uint) (bool, error) {
	key := fmt.Sprintf("%s%d", dedupeKeyPrefix, userID)
	ok, err := d.rdb.SetNX(ctx, key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe setnx: %w", err)
	}
	return ok, nil
}

// Close closes the Redis client connection
func (d *syncDedupe) Close() error {
	return d.rdb.Close()
}
