package services

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/metrics"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
)

type WithdrawResult struct {
	eth.TxResult
	BalanceWei string `json:"balance_wei"`
	BalanceETH string `json:"balance_eth"`
}

// CollectionService serves the collection view and the owner withdrawal.
type CollectionService struct {
	gw         eth.Gateway
	wallet     eth.Connector
	reconciler *Reconciler
	runner     *txRunner
	log        *zap.Logger
}

func NewCollectionService(
	gw eth.Gateway,
	wallet eth.Connector,
	reconciler *Reconciler,
	txs TxStore,
	audit AuditLogger,
	publisher events.Publisher,
	log *zap.Logger,
) *CollectionService {
	return &CollectionService{
		gw:         gw,
		wallet:     wallet,
		reconciler: reconciler,
		runner:     &txRunner{gw: gw, txs: txs, audit: audit, publisher: publisher, log: log},
		log:        log,
	}
}

// Snapshot reads count and balance and reconciles every visible slot.
func (s *CollectionService) Snapshot(ctx context.Context) (Snapshot, error) {
	return s.reconciler.Refresh(ctx)
}

// Cached returns the last reconciled view without touching the chain.
func (s *CollectionService) Cached() Snapshot {
	return s.reconciler.Snapshot()
}

// Refresh reconciles and announces the result.
func (s *CollectionService) Refresh(ctx context.Context) (Snapshot, error) {
	snap, err := s.reconciler.Refresh(ctx)
	if err != nil {
		return snap, err
	}
	if snap.Connected {
		s.runner.publish(ctx, events.EventCollectionRefreshed, map[string]any{
			"count":       snap.Count,
			"balance_wei": snap.BalanceWei,
			"slots":       len(snap.Slots),
		})
	}
	return snap, nil
}

// Withdraw asks the contract to pay its balance to the owner. Whether the
// caller is the owner is left to the contract.
func (s *CollectionService) Withdraw(ctx context.Context, actor string) (*WithdrawResult, error) {
	if !s.wallet.Connected() {
		return nil, eth.ErrWalletUnavailable
	}

	before := s.reconciler.Snapshot().BalanceWei
	rec := &models.ChainTransaction{
		Kind:        models.TxKindWithdraw,
		FromAddress: s.wallet.Address().Hex(),
	}
	res := s.runner.run(ctx, rec, nil, func(ctx context.Context) (*types.Transaction, error) {
		return s.gw.Withdraw(ctx)
	})

	balance, err := s.gw.ContractBalance(ctx)
	metrics.ChainCalls.WithLabelValues("getBalance", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("balance refresh after withdraw failed", zap.Error(err))
	} else {
		s.reconciler.SetBalance(balance)
	}

	snap := s.reconciler.Snapshot()
	out := &WithdrawResult{TxResult: res, BalanceWei: snap.BalanceWei, BalanceETH: snap.BalanceETH}

	if res.OK {
		s.runner.auditLog(ctx, models.AuditLog{
			Actor:      actorOr(actor, rec.FromAddress),
			ActorType:  "operator",
			Action:     "withdraw",
			EntityType: models.EntityChainTransaction,
			EntityID:   recordID(rec),
			Meta:       map[string]any{"tx_hash": res.TxHash, "balance_before_wei": before},
		})
		s.runner.publish(ctx, events.EventWithdrawConfirmed, map[string]any{
			"tx_hash":     res.TxHash,
			"balance_wei": snap.BalanceWei,
		})
		s.log.Info("withdraw confirmed", zap.String("tx_hash", res.TxHash))
	}
	return out, nil
}
