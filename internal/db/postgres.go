package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// NewPostgresPool opens the read-model pool. The indexer and the API share
// the same tables, so the pool is tagged with the process name.
func NewPostgresPool(ctx context.Context, dsn, appName string, log *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	if appName != "" {
		cfg.ConnConfig.RuntimeParams["application_name"] = appName
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(pingCtx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("postgres pool created",
		zap.String("app", appName),
		zap.String("host", cfg.ConnConfig.Host),
		zap.Int32("max_conns", cfg.MaxConns),
	)
	return pool, nil
}
