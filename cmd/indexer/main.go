package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/db"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/indexer"
	"github.com/fellas-token/backend/internal/repositories"
	"go.uber.org/zap"
)

// Mint indexer: follows Transfer logs from the zero address and
// keeps the tokens table in step with the chain, whoever minted.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !common.IsHexAddress(cfg.ContractAddress) {
		log.Fatal("CONTRACT_ADDRESS is required", zap.String("addr", cfg.ContractAddress))
	}

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, "fellas-indexer", log)
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

	reader := eth.NewReader(common.HexToAddress(cfg.ContractAddress), client)
	ix := indexer.New(
		reader,
		repositories.NewTokenRepo(pool),
		indexer.NewRedisCursor(rdb),
		events.NewRedisPublisher(rdb, log),
		indexer.Config{
			StartBlock:    cfg.IndexerStartBlock,
			Confirmations: cfg.IndexerConfirmations,
			BlockBatch:    cfg.IndexerBlockBatch,
		},
		log,
	)

	if err := ix.Init(ctx); err != nil {
		log.Fatal("failed to initialize cursor", zap.Error(err))
	}

	log.Info("mint indexer started",
		zap.String("contract", cfg.ContractAddress),
		zap.Duration("interval", cfg.IndexerPollInterval),
	)

	ticker := time.NewTicker(cfg.IndexerPollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			n, err := ix.Poll(ctx)
			if err != nil {
				log.Error("poll cycle failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("mints indexed", zap.Int("count", n))
			}
		case <-sigCh:
			log.Info("shutting down mint indexer")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}
