package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is the envelope stored in redis
type Entry struct {
	Payload   json.RawMessage `json:"payload"`
	CachedAt  int64           `json:"cached_at"`
	ExpiresAt int64           `json:"expires_at"`
}

// Redis caches results in redis with a fixed TTL
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	counters
}

// Connect parses a redis URL and verifies the server responds
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// NewRedis wraps a client; ttl 0 means no expiry
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		r.miss()
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return false, fmt.Errorf("failed to parse cache entry: %w", err)
	}
	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		return false, fmt.Errorf("failed to parse cached payload: %w", err)
	}
	r.hit()
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	now := time.Now().Unix()
	entry := Entry{Payload: payload, CachedAt: now}
	if r.ttl > 0 {
		entry.ExpiresAt = now + int64(r.ttl.Seconds())
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate: %w", err)
	}
	return nil
}

func (r *Redis) Stats() Stats {
	return r.stats()
}

// Close releases the underlying client
func (r *Redis) Close() error {
	return r.rdb.Close()
}
