package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
)

type PendingTxStore interface {
	TxStore
	ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.ChainTransaction, error)
}

type ReceiptSource interface {
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

const settleLockKey = "fellas:settle"

// TxSettler finishes transaction rows whose submitter stopped waiting.
// Nothing is resent or replaced; a transaction the node does not know yet
// stays pending and is reported as stale. With a lock, one worker replica
// sweeps at a time.
type TxSettler struct {
	receipts   ReceiptSource
	txs        PendingTxStore
	publisher  events.Publisher
	lock       Locker
	staleAfter time.Duration
	log        *zap.Logger
}

func NewTxSettler(receipts ReceiptSource, txs PendingTxStore, publisher events.Publisher, lock Locker, staleAfter time.Duration, log *zap.Logger) *TxSettler {
	return &TxSettler{receipts: receipts, txs: txs, publisher: publisher, lock: lock, staleAfter: staleAfter, log: log}
}

type SettleStats struct {
	Confirmed int
	Failed    int
	Stale     int
	// Skipped is set when another replica holds the sweep.
	Skipped bool
}

func (s *TxSettler) Run(ctx context.Context) (SettleStats, error) {
	var stats SettleStats

	if s.lock != nil {
		release, ok, err := s.lock.TryLock(ctx, settleLockKey, 5*time.Minute)
		if err != nil {
			return stats, fmt.Errorf("settle lock: %w", err)
		}
		if !ok {
			s.log.Debug("settle sweep held by another worker")
			stats.Skipped = true
			return stats, nil
		}
		defer release()
	}

	pending, err := s.txs.ListPending(ctx, s.staleAfter, 100)
	if err != nil {
		return stats, err
	}

	for _, t := range pending {
		if t.TxHash == nil {
			code, msg := eth.CodeUnknown, "no transaction hash recorded"
			if err := s.txs.Finish(ctx, t.ID, models.TxStatusFailed, nil, &code, &msg); err != nil {
				s.log.Error("failed to finish transaction", zap.String("id", t.ID.String()), zap.Error(err))
				continue
			}
			stats.Failed++
			continue
		}

		receipt, err := s.receipts.Receipt(ctx, common.HexToHash(*t.TxHash))
		if eth.IsNotFound(err) {
			stats.Stale++
			s.log.Warn("transaction still pending",
				zap.String("id", t.ID.String()),
				zap.String("tx_hash", *t.TxHash),
				zap.Time("created_at", t.CreatedAt),
			)
			if s.publisher != nil {
				_ = s.publisher.Publish(ctx, events.StreamNotify, events.Event{
					Type: events.EventTxStale,
					Payload: map[string]any{
						"id":      t.ID.String(),
						"kind":    t.Kind,
						"tx_hash": *t.TxHash,
					},
				})
			}
			continue
		}
		if err != nil {
			s.log.Error("receipt lookup failed", zap.String("tx_hash", *t.TxHash), zap.Error(err))
			continue
		}

		var block *int64
		if receipt.BlockNumber != nil {
			b := receipt.BlockNumber.Int64()
			block = &b
		}

		if receipt.Status == types.ReceiptStatusSuccessful {
			err = s.txs.Finish(ctx, t.ID, models.TxStatusConfirmed, block, nil, nil)
			if err == nil {
				stats.Confirmed++
			}
		} else {
			code, msg := eth.CodeCallException, "transaction reverted"
			err = s.txs.Finish(ctx, t.ID, models.TxStatusFailed, block, &code, &msg)
			if err == nil {
				stats.Failed++
			}
		}
		if err != nil {
			s.log.Error("failed to finish transaction", zap.String("id", t.ID.String()), zap.Error(err))
			continue
		}
		s.log.Info("transaction settled",
			zap.String("id", t.ID.String()),
			zap.String("kind", t.Kind),
			zap.String("tx_hash", *t.TxHash),
			zap.Uint64("status", receipt.Status),
		)
	}
	return stats, nil
}
