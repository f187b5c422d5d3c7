package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	CtxRequestID    = "request_id"
	HeaderRequestID = "X-Request-ID"
)

// RequestIDMiddleware keeps a caller supplied request id or assigns one.
func RequestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		c.Locals(CtxRequestID, reqID)
		c.Set(HeaderRequestID, reqID)
		return c.Next()
	}
}

func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(CtxRequestID).(string)
	return id
}
