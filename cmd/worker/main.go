package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/db"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/repositories"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const settleInterval = time.Minute

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, "fellas-worker", log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	client, err := eth.Dial(ctx, cfg.RPCURL, log)
	if err != nil {
		log.Fatal("failed to connect to ethereum node", zap.Error(err))
	}
	defer client.Close()

	// Repos
	tokenRepo := repositories.NewTokenRepo(pool)
	txRepo := repositories.NewTransactionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	wallet := eth.NewWallet(client, eth.WalletConfig{
		PrivateKey: cfg.SignerPrivateKey,
		Keystore:   cfg.SignerKeystore,
		Passphrase: cfg.SignerPassphrase,
		ChainID:    cfg.ChainID,
	}, log)
	address := common.HexToAddress(cfg.ContractAddress)
	fellas := eth.NewFellas(address, client, wallet)
	resolver := content.NewResolver(cfg.ContentID, cfg.IPFSGateway)

	reconciler := services.NewReconciler(fellas, wallet, tokenRepo, resolver, services.ReconcilerConfig{
		SlotsAhead:  cfg.SlotsAhead,
		Concurrency: cfg.ReconcileConcurrency,
	}, log)
	collectionService := services.NewCollectionService(fellas, wallet, reconciler, txRepo, auditRepo, publisher, log)
	settler := services.NewTxSettler(eth.NewReader(address, client), txRepo, publisher, services.NewRedisLocker(rdb), cfg.PendingTxStaleAfter, log)

	if cfg.HasSigner() {
		if err := wallet.Connect(ctx); err != nil {
			log.Warn("wallet not connected, collection refresh disabled", zap.Error(err))
		}
	}

	go serveMetrics(cfg.WorkerPort, log)

	log.Info("worker started",
		zap.Duration("refresh_interval", cfg.RefreshInterval),
		zap.Duration("stale_after", cfg.PendingTxStaleAfter),
	)

	// Run jobs on tickers
	settleTicker := time.NewTicker(settleInterval)
	refreshTicker := time.NewTicker(cfg.RefreshInterval)
	defer settleTicker.Stop()
	defer refreshTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-settleTicker.C:
			runSettle(ctx, settler, log)
		case <-refreshTicker.C:
			runRefresh(ctx, collectionService, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

func runSettle(ctx context.Context, settler *services.TxSettler, log *zap.Logger) {
	stats, err := settler.Run(ctx)
	if err != nil {
		log.Error("failed to settle pending transactions", zap.Error(err))
		return
	}
	if stats.Skipped {
		return
	}
	if stats.Confirmed+stats.Failed+stats.Stale > 0 {
		log.Info("pending transactions settled",
			zap.Int("confirmed", stats.Confirmed),
			zap.Int("failed", stats.Failed),
			zap.Int("stale", stats.Stale),
		)
	}
}

func runRefresh(ctx context.Context, collection *services.CollectionService, log *zap.Logger) {
	snap, err := collection.Refresh(ctx)
	if err != nil {
		log.Error("collection refresh failed", zap.Error(err))
		return
	}
	if !snap.Connected {
		log.Debug("collection refresh skipped, wallet not connected")
	}
}

func serveMetrics(port string, log *zap.Logger) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	addr := fmt.Sprintf(":%s", port)
	if err := app.Listen(addr); err != nil {
		log.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
	}
}
