// Package middleware provides the HTTP middleware chain: logging, tracing, metrics and rate limiting.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Quota caps how often one client may perform a write such as creating a post.
type Quota struct {
	// Name prefixes the Redis key, e.g. "create_post".
	Name   string
	Limit  int
	Window time.Duration
	// PerResource scopes the counter to the :id route param as well as the client IP.
	PerResource bool
	// FailClosed answers 503 when Redis cannot be reached instead of letting the request through.
	FailClosed bool
}

var errNoRedis = errors.New("rate limit store not configured")

// Verdict is the outcome of counting one hit against a Quota.
type Verdict struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func quotasEnforced() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV"))) {
	case "", "test", "development":
		return false
	}
	return true
}

// Hit counts one request by subject against q. Outside production-like
// environments every hit is allowed without touching Redis.
func Hit(ctx context.Context, rdb *redis.Client, q Quota, subject string) (Verdict, error) {
	if !quotasEnforced() {
		return Verdict{Allowed: true, Remaining: q.Limit}, nil
	}
	if rdb == nil {
		return Verdict{}, errNoRedis
	}

	key := "rl:" + q.Name + ":" + subject
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Verdict{}, fmt.Errorf("count %s: %w", key, err)
	}

	count := incr.Val()
	wait := ttl.Val()
	if wait < 0 {
		// First hit in the window, or a key that lost its expiry.
		if err := rdb.Expire(ctx, key, q.Window).Err(); err != nil {
			return Verdict{}, fmt.Errorf("expire %s: %w", key, err)
		}
		wait = q.Window
	}

	v := Verdict{
		Allowed:   count <= int64(q.Limit),
		Remaining: max(0, q.Limit-int(count)),
	}
	if !v.Allowed {
		v.RetryAfter = wait
	}
	return v, nil
}

// RateLimit enforces q per client IP, optionally per target resource too.
func RateLimit(rdb *redis.Client, q Quota) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := "ip:" + c.IP()
		if q.PerResource {
			subject += ":id:" + c.Params("id")
		}

		v, err := Hit(c.UserContext(), rdb, q, subject)
		if err != nil {
			if !q.FailClosed {
				return c.Next()
			}
			Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
				slog.String("quota", q.Name),
				slog.String("error", err.Error()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "rate limit unavailable",
			})
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(v.Remaining))
		if !v.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(v.RetryAfter.Seconds()))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": fmt.Sprintf("%s limit reached, try again later", strings.ReplaceAll(q.Name, "_", " ")),
			})
		}
		return c.Next()
	}
}
