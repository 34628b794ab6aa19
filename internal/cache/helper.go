package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"kolboard/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result with ttl. Redis failures never fail the read.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	family := keyFamily(key)
	found, err := GetJSON(ctx, key, dest)
	switch {
	case err != nil:
		observability.CacheLookups.WithLabelValues(family, "error").Inc()
	case found:
		observability.CacheLookups.WithLabelValues(family, "hit").Inc()
		return nil
	default:
		observability.CacheLookups.WithLabelValues(family, "miss").Inc()
	}

	if err := fetch(); err != nil {
		return err
	}

	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// GetInt64 reads an integer counter. ok is false on miss or when Redis is unavailable.
func GetInt64(ctx context.Context, key string) (value int64, ok bool) {
	if client == nil {
		return 0, false
	}
	v, err := client.Get(ctx, key).Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// SetInt64 stores an integer counter with ttl (best-effort).
func SetInt64(ctx context.Context, key string, v int64, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, v, ttl)
}

// Invalidate deletes the given keys.
func Invalidate(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
