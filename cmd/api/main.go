package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/db"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	apphttp "github.com/fellas-token/backend/internal/http"
	"github.com/fellas-token/backend/internal/http/handlers"
	"github.com/fellas-token/backend/internal/repositories"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, "fellas-api", log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Chain
	client, err := eth.Dial(ctx, cfg.RPCURL, log)
	if err != nil {
		log.Fatal("failed to connect to ethereum node", zap.Error(err))
	}
	defer client.Close()

	wallet := eth.NewWallet(client, eth.WalletConfig{
		PrivateKey: cfg.SignerPrivateKey,
		Keystore:   cfg.SignerKeystore,
		Passphrase: cfg.SignerPassphrase,
		ChainID:    cfg.ChainID,
	}, log)
	fellas := eth.NewFellas(common.HexToAddress(cfg.ContractAddress), client, wallet)
	resolver := content.NewResolver(cfg.ContentID, cfg.IPFSGateway)

	// Repositories
	tokenRepo := repositories.NewTokenRepo(pool)
	txRepo := repositories.NewTransactionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	walletService := services.NewWalletService(wallet, log)
	reconciler := services.NewReconciler(fellas, wallet, tokenRepo, resolver, services.ReconcilerConfig{
		SlotsAhead:  cfg.SlotsAhead,
		Concurrency: cfg.ReconcileConcurrency,
	}, log)
	mintService := services.NewMintService(fellas, wallet, reconciler, resolver, txRepo, auditRepo, publisher, services.MintConfig{
		DefaultOffer: cfg.DefaultOfferETH,
		MaxBatch:     cfg.MaxMultiMint,
	}, log)
	collectionService := services.NewCollectionService(fellas, wallet, reconciler, txRepo, auditRepo, publisher, log)

	// Connect at startup when a signer is configured, otherwise wait for POST /wallet/connect
	if cfg.HasSigner() {
		if _, err := walletService.Connect(ctx); err != nil {
			log.Warn("wallet not connected at startup", zap.Error(err))
		} else if _, err := collectionService.Refresh(ctx); err != nil {
			log.Warn("initial reconcile failed", zap.Error(err))
		}
	}

	// Handlers
	collectionHandler := handlers.NewCollectionHandler(collectionService, log)
	tokenHandler := handlers.NewTokenHandler(mintService, resolver, content.NewClient(resolver, log), log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	txHandler := handlers.NewTransactionHandler(txRepo, auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	if err := wsHub.Start(ctx); err != nil {
		log.Fatal("failed to start ws hub", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: apphttp.ErrorHandler(log),
	})

	apphttp.SetupRouter(app, cfg, log, rdb, collectionHandler, tokenHandler, walletHandler, txHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server",
		zap.String("addr", addr),
		zap.String("contract", cfg.ContractAddress),
	)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
