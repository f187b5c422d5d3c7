package services

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
)

type MintRequest struct {
	TokenID uint64
	Mode    string
	Offer   string // decimal ether; empty means the default offer
	To      string // recipient; empty means the session wallet
	Actor   string
}

type MintMultiRequest struct {
	From     uint64
	Quantity int
	Offer    string // total for the batch; empty means default offer x quantity
	To       string
	Actor    string
}

type MintResult struct {
	eth.TxResult
	Slot  *models.TokenSlot  `json:"slot,omitempty"`
	Slots []models.TokenSlot `json:"slots,omitempty"`
	Count uint64             `json:"count"`
}

type MintConfig struct {
	DefaultOffer string // decimal ether per slot
	MaxBatch     int    // largest quantity MintMulti accepts
}

// MintService drives a slot from unminted to minted.
type MintService struct {
	gw         eth.Gateway
	wallet     eth.Connector
	reconciler *Reconciler
	resolver   *content.Resolver
	runner     *txRunner
	cfg        MintConfig
	log        *zap.Logger
}

func NewMintService(
	gw eth.Gateway,
	wallet eth.Connector,
	reconciler *Reconciler,
	resolver *content.Resolver,
	txs TxStore,
	audit AuditLogger,
	publisher events.Publisher,
	cfg MintConfig,
	log *zap.Logger,
) *MintService {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 1
	}
	return &MintService{
		gw:         gw,
		wallet:     wallet,
		reconciler: reconciler,
		resolver:   resolver,
		runner:     &txRunner{gw: gw, txs: txs, audit: audit, publisher: publisher, log: log},
		cfg:        cfg,
		log:        log,
	}
}

// Mint submits a single-slot mint and waits for it. Chain rejections come
// back in the result, not as an error.
func (s *MintService) Mint(ctx context.Context, req MintRequest) (*MintResult, error) {
	if req.TokenID == 0 {
		return nil, ErrInvalidToken
	}
	if !models.IsValidMintMode(req.Mode) {
		return nil, fmt.Errorf("%w %q, must be one of: mint, whitelist, free", ErrInvalidMode, req.Mode)
	}
	if !s.wallet.Connected() {
		return nil, eth.ErrWalletUnavailable
	}
	if s.reconciler.Slot(req.TokenID).Minted {
		return nil, ErrAlreadyMinted
	}

	value, err := s.offer(req.Offer, 1)
	if err != nil {
		return nil, err
	}
	to, err := s.recipient(req.To)
	if err != nil {
		return nil, err
	}

	uri := s.resolver.MetadataURI(req.TokenID)
	tokenID := int64(req.TokenID)
	rec := &models.ChainTransaction{
		Kind:        models.TxKindForMode(req.Mode),
		TokenID:     &tokenID,
		Quantity:    1,
		MetadataURI: &uri,
		FromAddress: s.wallet.Address().Hex(),
	}

	send := func(ctx context.Context) (*types.Transaction, error) {
		switch req.Mode {
		case models.MintModeWhitelist:
			return s.gw.WhitelistMint(ctx, value, to, uri)
		case models.MintModeFree:
			return s.gw.FreeMint(ctx, value, to, uri)
		default:
			return s.gw.MintSingleFellas(ctx, value, to, uri)
		}
	}

	res := s.runner.run(ctx, rec, value, send)
	out := &MintResult{TxResult: res}

	if res.OK {
		s.reconciler.MarkMinted(req.TokenID, to.Hex(), res.TxHash)
	}
	if res.Code != eth.CodeTimeout {
		if _, err := s.reconciler.RefreshSlot(ctx, req.TokenID); err != nil {
			s.log.Warn("post-mint refresh failed", zap.Uint64("token_id", req.TokenID), zap.Error(err))
		}
	}

	if res.OK {
		s.runner.auditLog(ctx, models.AuditLog{
			Actor:      actorOr(req.Actor, rec.FromAddress),
			ActorType:  "operator",
			Action:     "token_minted",
			EntityType: models.EntityChainTransaction,
			EntityID:   recordID(rec),
			Meta:       map[string]any{"token_id": req.TokenID, "mode": req.Mode, "tx_hash": res.TxHash, "value_wei": rec.ValueWei},
		})
		s.runner.publish(ctx, events.EventTokenMinted, map[string]any{
			"token_id":     req.TokenID,
			"metadata_uri": uri,
			"owner":        to.Hex(),
			"tx_hash":      res.TxHash,
			"mode":         req.Mode,
		})
		s.log.Info("token minted",
			zap.Uint64("token_id", req.TokenID),
			zap.String("mode", req.Mode),
			zap.String("tx_hash", res.TxHash),
		)
	} else if res.Code != eth.CodeTimeout {
		s.runner.publish(ctx, events.EventMintFailed, map[string]any{
			"token_id": req.TokenID,
			"mode":     req.Mode,
			"code":     res.Code,
			"reason":   res.Reason,
		})
	}

	slot := s.reconciler.Slot(req.TokenID)
	out.Slot = &slot
	out.Count = s.reconciler.Snapshot().Count
	return out, nil
}

// MintMulti mints the contiguous slots [From, From+Quantity) in one
// transaction.
func (s *MintService) MintMulti(ctx context.Context, req MintMultiRequest) (*MintResult, error) {
	if req.From == 0 {
		return nil, ErrInvalidToken
	}
	if req.Quantity <= 0 || req.Quantity > s.cfg.MaxBatch {
		return nil, fmt.Errorf("%w: %d, must be 1..%d", ErrInvalidQuantity, req.Quantity, s.cfg.MaxBatch)
	}
	if req.From > math.MaxUint64-uint64(req.Quantity) {
		return nil, ErrInvalidToken
	}
	if !s.wallet.Connected() {
		return nil, eth.ErrWalletUnavailable
	}

	ids := make([]uint64, req.Quantity)
	uris := make([]string, req.Quantity)
	for i := range ids {
		ids[i] = req.From + uint64(i)
		if s.reconciler.Slot(ids[i]).Minted {
			return nil, fmt.Errorf("%w: %d", ErrAlreadyMinted, ids[i])
		}
		uris[i] = s.resolver.MetadataURI(ids[i])
	}

	value, err := s.offer(req.Offer, req.Quantity)
	if err != nil {
		return nil, err
	}
	to, err := s.recipient(req.To)
	if err != nil {
		return nil, err
	}

	from := int64(req.From)
	rec := &models.ChainTransaction{
		Kind:        models.TxKindMintMulti,
		TokenID:     &from,
		Quantity:    req.Quantity,
		FromAddress: s.wallet.Address().Hex(),
	}

	res := s.runner.run(ctx, rec, value, func(ctx context.Context) (*types.Transaction, error) {
		return s.gw.MintMultiFellas(ctx, value, to, uris)
	})
	out := &MintResult{TxResult: res}

	if !res.OK && res.Code != eth.CodeTimeout {
		for _, id := range ids {
			if _, err := s.reconciler.RefreshSlot(ctx, id); err != nil {
				s.log.Warn("post-mint refresh failed", zap.Uint64("token_id", id), zap.Error(err))
				break
			}
		}
		s.runner.publish(ctx, events.EventMintFailed, map[string]any{
			"from":     req.From,
			"quantity": req.Quantity,
			"mode":     models.MintModeMulti,
			"code":     res.Code,
			"reason":   res.Reason,
		})
	}

	if res.OK {
		for _, id := range ids {
			s.reconciler.MarkMinted(id, to.Hex(), res.TxHash)
		}
		if _, err := s.reconciler.Refresh(ctx); err != nil {
			s.log.Warn("post-mint refresh failed", zap.Error(err))
		}

		s.runner.auditLog(ctx, models.AuditLog{
			Actor:      actorOr(req.Actor, rec.FromAddress),
			ActorType:  "operator",
			Action:     "tokens_minted",
			EntityType: models.EntityChainTransaction,
			EntityID:   recordID(rec),
			Meta:       map[string]any{"from": req.From, "quantity": req.Quantity, "tx_hash": res.TxHash, "value_wei": rec.ValueWei},
		})
		for i, id := range ids {
			s.runner.publish(ctx, events.EventTokenMinted, map[string]any{
				"token_id":     id,
				"metadata_uri": uris[i],
				"owner":        to.Hex(),
				"tx_hash":      res.TxHash,
				"mode":         models.MintModeMulti,
			})
		}
	}

	for _, id := range ids {
		out.Slots = append(out.Slots, s.reconciler.Slot(id))
	}
	out.Count = s.reconciler.Snapshot().Count
	return out, nil
}

// TokenURI reads the URI recorded on chain for a minted token.
func (s *MintService) TokenURI(ctx context.Context, id uint64) (string, error) {
	if id == 0 {
		return "", ErrInvalidToken
	}
	if !s.wallet.Connected() {
		return "", eth.ErrWalletUnavailable
	}
	uri, err := s.gw.TokenURI(ctx, new(big.Int).SetUint64(id))
	if err != nil {
		return "", err
	}
	return uri, nil
}

// Slot returns one slot, querying its ownership if it was never checked.
func (s *MintService) Slot(ctx context.Context, id uint64) (models.TokenSlot, error) {
	if id == 0 {
		return models.TokenSlot{}, ErrInvalidToken
	}
	slot := s.reconciler.Slot(id)
	if slot.State != models.SlotStateUnknown || !s.wallet.Connected() {
		return slot, nil
	}
	return s.reconciler.RefreshSlot(ctx, id)
}

func (s *MintService) offer(raw string, quantity int) (*big.Int, error) {
	if strings.TrimSpace(raw) != "" {
		return eth.ParseEther(raw)
	}
	unit, err := eth.ParseEther(s.cfg.DefaultOffer)
	if err != nil {
		return nil, fmt.Errorf("default offer: %w", err)
	}
	return unit.Mul(unit, big.NewInt(int64(quantity))), nil
}

func (s *MintService) recipient(raw string) (common.Address, error) {
	if raw == "" {
		return s.wallet.Address(), nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw), nil
}

func actorOr(actor, fallback string) string {
	if actor != "" {
		return actor
	}
	return fallback
}
