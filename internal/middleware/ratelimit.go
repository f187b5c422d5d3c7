package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimitMiddleware is a fixed-window counter per route and client IP.
// Without redis, or when redis errors, requests pass.
func RateLimitMiddleware(rdb *redis.Client, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rdb == nil {
			return c.Next()
		}
		key := fmt.Sprintf("fellas:rl:%s:%s", c.Route().Path, c.IP())

		ctx := c.UserContext()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return c.Next() // fail open
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(window.Seconds())))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
				"code":  "RATE_LIMITED",
			})
		}

		return c.Next()
	}
}
