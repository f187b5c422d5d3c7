package services

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/metrics"
	"github.com/fellas-token/backend/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// txRunner submits a contract write, keeps its chain_transactions row in
// step and reports the outcome as a TxResult.
type txRunner struct {
	gw        eth.Gateway
	txs       TxStore
	audit     AuditLogger
	publisher events.Publisher
	log       *zap.Logger
}

func (r *txRunner) run(
	ctx context.Context,
	rec *models.ChainTransaction,
	value *big.Int,
	send func(ctx context.Context) (*types.Transaction, error),
) eth.TxResult {
	if value != nil {
		rec.ValueWei = value.String()
	} else {
		rec.ValueWei = "0"
	}

	stored := false
	if r.txs != nil {
		if err := r.txs.Create(ctx, rec); err != nil {
			r.log.Warn("failed to record transaction", zap.String("kind", rec.Kind), zap.Error(err))
		} else {
			stored = true
		}
	}

	res := eth.Execute(ctx, r.gw, send, func(tx *types.Transaction) {
		hash := tx.Hash().Hex()
		rec.TxHash = &hash
		r.log.Info("transaction sent", zap.String("kind", rec.Kind), zap.String("tx_hash", hash))
		if stored {
			if err := r.txs.SetHash(ctx, rec.ID, hash); err != nil {
				r.log.Warn("failed to store tx hash", zap.String("tx_hash", hash), zap.Error(err))
			}
		}
	})

	code := res.Code
	if res.OK {
		code = "OK"
	}
	metrics.ChainTx.WithLabelValues(rec.Kind, code).Inc()
	if res.OK {
		metrics.ChainTxDuration.WithLabelValues(rec.Kind).Observe(res.Duration.Seconds())
	}

	// Waiting was abandoned; the worker settles the row from the receipt.
	if !res.OK && res.Code == eth.CodeTimeout && res.TxHash != "" {
		r.log.Warn("stopped waiting for transaction", zap.String("kind", rec.Kind), zap.String("tx_hash", res.TxHash))
		return res
	}

	if res.OK {
		rec.Status = models.TxStatusConfirmed
		block := int64(res.Block)
		rec.BlockNumber = &block
	} else {
		rec.Status = models.TxStatusFailed
		code, reason := res.Code, res.Reason
		rec.ErrorCode, rec.ErrorMessage = &code, &reason
	}

	if stored {
		// The caller's context may already be done; the row still needs settling.
		fctx := context.WithoutCancel(ctx)
		if err := r.txs.Finish(fctx, rec.ID, rec.Status, rec.BlockNumber, rec.ErrorCode, rec.ErrorMessage); err != nil {
			r.log.Warn("failed to finish transaction record", zap.String("id", rec.ID.String()), zap.Error(err))
		}
	}

	if !res.OK {
		r.log.Warn("transaction failed",
			zap.String("kind", rec.Kind),
			zap.String("code", res.Code),
			zap.String("reason", res.Reason),
			zap.String("tx_hash", res.TxHash),
		)
	}
	return res
}

func (r *txRunner) auditLog(ctx context.Context, entry models.AuditLog) {
	if r.audit == nil {
		return
	}
	if err := r.audit.Log(ctx, entry); err != nil {
		r.log.Warn("audit log failed", zap.String("action", entry.Action), zap.Error(err))
	}
}

func (r *txRunner) publish(ctx context.Context, eventType string, payload map[string]any) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, events.StreamCollection, events.Event{Type: eventType, Payload: payload}); err != nil {
		r.log.Warn("failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// recordID is the stored row id, or nil when the row was never persisted.
func recordID(rec *models.ChainTransaction) *uuid.UUID {
	if rec.ID == uuid.Nil {
		return nil
	}
	id := rec.ID
	return &id
}
