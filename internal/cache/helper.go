package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"interhub/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Aside implements the cache-aside pattern: on hit, dest is filled from the
// cached JSON value; on miss, loader runs and its result (already written into
// dest by the caller's closure) is stored under key with the given TTL.
// A nil/unreachable Redis client degrades to calling loader directly.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, loader func() error) error {
	if client == nil {
		return loader()
	}

	val, err := client.Get(ctx, key).Result()
	if err == nil {
		if unmarshalErr := json.Unmarshal([]byte(val), dest); unmarshalErr == nil {
			return nil
		}
		// Corrupt entry: drop it and fall through to the loader.
		client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed, falling back to loader",
			slog.String("key", key), slog.String("error", err.Error()))
	}

	if err := loader(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		// Never fail the request over a cache serialization problem.
		middleware.Logger.WarnContext(ctx, "cache marshal failed",
			slog.String("key", key), slog.String("error", err.Error()))
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// SetString stores a plain string value under key with the given TTL.
// No-op without a Redis client.
func SetString(ctx context.Context, key, value string, ttl time.Duration) {
	if client == nil {
		return
	}
	if err := client.Set(ctx, key, value, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}

// GetString fetches a plain string value. The second return is false on miss
// or when no Redis client is configured.
func GetString(ctx context.Context, key string) (string, bool) {
	if client == nil {
		return "", false
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}
