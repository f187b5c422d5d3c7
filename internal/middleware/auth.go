package middleware

import (
	"strings"

	"github.com/fellas-token/backend/internal/auth"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/rbac"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	CtxOperator = "operator"
	CtxRole     = "role"
)

// AuthMiddleware guards the endpoints that spend from the session wallet.
func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxOperator, claims.Operator)
		c.Locals(CtxRole, claims.Role)
		return c.Next()
	}
}

// RequirePermission rejects operators whose role lacks perm. Must run after
// AuthMiddleware.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(CtxRole).(string)
		if !rbac.HasPermission(role, perm) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "permission": perm})
		}
		return c.Next()
	}
}

func GetOperator(c *fiber.Ctx) string {
	op, _ := c.Locals(CtxOperator).(string)
	return op
}
