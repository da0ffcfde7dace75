// Package cache provides Redis caching utilities for the application.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"memoria/internal/middleware"
	"memoria/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var client *redis.Client

// instrumentHook traces every command and counts failures other than redis.Nil.
type instrumentHook struct{}

func (instrumentHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (instrumentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		ctx, span := observability.RedisSpan(ctx, cmd.Name())
		defer span.End()
		err := next(ctx, cmd)
		recordRedisError(span, cmd.Name(), err)
		return err
	}
}

func (instrumentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		ctx, span := observability.RedisSpan(ctx, "pipeline")
		defer span.End()
		span.SetAttributes(attribute.Int("redis.pipeline.length", len(cmds)))
		err := next(ctx, cmds)
		recordRedisError(span, "pipeline", err)
		return err
	}
}

func recordRedisError(span trace.Span, name string, err error) {
	if err == nil || errors.Is(err, redis.Nil) {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	observability.RedisErrorRate.WithLabelValues(name).Inc()
}

// NewClient parses addr (host:port or redis:// URL) and returns an instrumented client.
func NewClient(addr string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	c := redis.NewClient(opts)
	c.AddHook(instrumentHook{})
	return c, nil
}

// InitRedis initializes the Redis client with the given address.
// The API keeps working without Redis, so failures only disable the cache.
func InitRedis(addr string) {
	c, err := NewClient(addr)
	if err != nil {
		middleware.Logger.Warn("Redis disabled: invalid REDIS_URL", slog.String("error", err.Error()))
		client = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		middleware.Logger.Warn("Redis unavailable, continuing without cache", slog.String("error", err.Error()))
		_ = c.Close()
		client = nil
		return
	}
	middleware.Logger.Info("Redis connected successfully")
	client = c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the client; tests use it to point at miniredis.
func SetClient(c *redis.Client) {
	client = c
}
