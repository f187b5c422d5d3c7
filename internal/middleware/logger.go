package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func LoggerMiddleware(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		level := zapcore.InfoLevel
		if status >= fiber.StatusInternalServerError {
			level = zapcore.WarnLevel
		}

		fields := []zap.Field{
			zap.String("request_id", GetRequestID(c)),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if op := GetOperator(c); op != "" {
			fields = append(fields, zap.String("operator", op))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		log.Check(level, "request").Write(fields...)

		return err
	}
}
