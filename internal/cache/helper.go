package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"editorial/internal/middleware"
	"editorial/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
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

// Aside reads key into dest, falling back to fetch on a miss and storing the
// fetched value with ttl. fetch must populate dest. Redis failures are logged
// and treated as misses so the source of truth always answers.
func Aside(ctx context.Context, name, key string, dest any, ttl time.Duration, fetch func(ctx context.Context) error) error {
	rctx, span := observability.StartRedisSpan(ctx, "aside."+name)
	found, err := GetJSON(rctx, key, dest)
	span.End()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed",
			slog.String("cache", name),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	observability.RecordCacheLookup(name, found)
	if found {
		return nil
	}

	if err := fetch(ctx); err != nil {
		return err
	}

	if err := SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("cache", name),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return nil
}
