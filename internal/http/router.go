package http

import (
	"errors"
	"time"

	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/http/handlers"
	"github.com/fellas-token/backend/internal/middleware"
	"github.com/fellas-token/backend/internal/rbac"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrorHandler renders errors that escape handlers in the API error shape.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(dto.ErrorResponse{
			Error:     err.Error(),
			RequestID: middleware.GetRequestID(c),
		})
	}
}

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	collectionHandler *handlers.CollectionHandler,
	tokenHandler *handlers.TokenHandler,
	walletHandler *handlers.WalletHandler,
	txHandler *handlers.TransactionHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))
	app.Use(middleware.MetricsMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(rdb, 120, time.Minute))

	metaHandler := handlers.NewMetaHandler(cfg)
	api.Get("/meta", metaHandler.GetMeta)

	// Collection view
	api.Get("/collection", collectionHandler.GetCollection)
	api.Post("/collection/refresh", collectionHandler.Refresh)

	// Tokens
	api.Get("/tokens/:id", tokenHandler.GetToken)
	api.Get("/tokens/:id/uri", tokenHandler.GetURI)
	api.Get("/tokens/:id/metadata", tokenHandler.GetMetadata)

	// Wallet
	api.Get("/wallet", walletHandler.GetWallet)
	api.Post("/wallet/connect", walletHandler.ConnectWallet)
	api.Get("/wallet/balance/:address", walletHandler.GetBalance)

	// Writes spend from the session wallet
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))
	canMint := middleware.RequirePermission(rbac.PermMint)
	protected.Post("/tokens/mint-multi", canMint, tokenHandler.MintMulti)
	protected.Post("/tokens/:id/mint", canMint, tokenHandler.Mint)
	protected.Post("/withdraw", middleware.RequirePermission(rbac.PermWithdraw), collectionHandler.Withdraw)
	if txHandler != nil {
		canRead := middleware.RequirePermission(rbac.PermReadTransactions)
		protected.Get("/transactions", canRead, txHandler.ListTransactions)
		protected.Get("/transactions/:id", canRead, txHandler.GetTransaction)
	}

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
