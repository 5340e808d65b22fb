package middleware

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// limiter enforces a fixed window of at most max hits per caller on one
// named resource. Counters live in Redis as rl:<resource>:<caller> with the
// window as TTL.
type limiter struct {
	rdb      *redis.Client
	max      int
	window   time.Duration
	resource string
}

// RateLimit returns a middleware allowing `limit` requests per `window` for
// the named resource. Callers are keyed by user ID when authenticated and by
// remote IP otherwise. When Redis is unreachable the request is let through;
// throttling is protection, not a dependency.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	l := &limiter{rdb: rdb, max: limit, window: window}
	if len(name) > 0 {
		l.resource = name[0]
	}

	return func(c *fiber.Ctx) error {
		if rateLimitingDisabled() {
			return c.Next()
		}

		resource := l.resource
		if resource == "" {
			resource = c.Path()
		}

		ok, err := l.allow(c, resource, callerKey(c))
		if err != nil {
			Logger.WarnContext(c.UserContext(), "Rate limit check failed, letting request through",
				slog.String("resource", resource), slog.String("error", err.Error()))
			return c.Next()
		}
		if !ok {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, slow down",
				"code":  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}

func (l *limiter) allow(c *fiber.Ctx, resource, caller string) (bool, error) {
	if l.rdb == nil {
		return false, fmt.Errorf("no redis client")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, caller)
	ctx := c.UserContext()

	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		l.rdb.Expire(ctx, key, l.window)
	}
	return count <= int64(l.max), nil
}

// callerKey identifies who is being throttled.
func callerKey(c *fiber.Ctx) string {
	if uid := c.Locals("userID"); uid != nil {
		return fmt.Sprintf("user:%v", uid)
	}
	return "ip:" + c.IP()
}

// rateLimitingDisabled reports whether limits should be skipped entirely.
// Test and development runs are never throttled.
func rateLimitingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}
