package middleware

import (
	"strconv"
	"time"

	"github.com/fellas-token/backend/internal/metrics"
	"github.com/gofiber/fiber/v2"
)

// MetricsMiddleware records request counts and latency per route pattern.
func MetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = "unmatched"
		}
		method := c.Method()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}

		metrics.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}
