package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"memoria/internal/middleware"
	"memoria/internal/observability"

	"github.com/redis/go-redis/v9"
)

// GetJSON decodes key into dest. It reports false when Redis is off or the
// key is absent.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	raw, err := client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, json.Unmarshal(raw, dest)
}

// SetJSON stores v under key for ttl. A nil client is a no-op.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, ttl).Err()
}

// Remember returns the cached value of key, or calls load and caches its
// result for ttl. Redis errors are logged and never fail the read; a load
// error is returned and nothing is cached.
func Remember[T any](ctx context.Context, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	family := keyFamily(key)

	var cached T
	hit, err := GetJSON(ctx, key, &cached)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit && err == nil {
		observability.CacheLookups.WithLabelValues(family, "hit").Inc()
		return cached, nil
	}
	observability.CacheLookups.WithLabelValues(family, "miss").Inc()

	fresh, err := load(ctx)
	if err != nil {
		return fresh, err
	}
	if err := SetJSON(ctx, key, fresh, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return fresh, nil
}

// keyFamily drops the id from "group:7:badges" so metrics stay low-cardinality.
func keyFamily(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) >= 3 {
		return parts[0] + ":" + parts[2]
	}
	return parts[0]
}
