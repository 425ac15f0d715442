// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/patience/internal/config"
	"github.com/jason-s-yu/patience/internal/models"
	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and checks it answers a ping within five seconds.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// SessionQueue is the Redis list that carries finished sessions to the historian.
type SessionQueue struct {
	rdb  *redis.Client
	name string
}

func NewSessionQueue(rdb *redis.Client, name string) *SessionQueue {
	return &SessionQueue{rdb: rdb, name: name}
}

// Archive serializes rec to JSON and pushes it onto the queue.
func (q *SessionQueue) Archive(ctx context.Context, rec models.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionRecord: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", q.name, err)
	}
	return nil
}

// Pop waits up to timeout for the next record. ok is false when the wait timed out.
func (q *SessionQueue) Pop(ctx context.Context, timeout time.Duration) (rec models.SessionRecord, ok bool, err error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.name).Result()
	if errors.Is(err, redis.Nil) {
		return models.SessionRecord{}, false, nil
	}
	if err != nil {
		return models.SessionRecord{}, false, fmt.Errorf("BLPop %s: %w", q.name, err)
	}
	// res[0] is the queue name and res[1] the payload.
	if len(res) < 2 {
		return models.SessionRecord{}, false, nil
	}
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return models.SessionRecord{}, false, fmt.Errorf("invalid session record: %w", err)
	}
	return rec, true, nil
}

// Len returns the number of queued records.
func (q *SessionQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.name).Result()
}
