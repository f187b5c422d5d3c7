// Package indexer follows mint events of the collection contract and keeps
// the minted-token table in step with the chain.
package indexer

import (
	"context"
	"fmt"
	"math/big"

	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/metrics"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
)

// Source is the part of the contract the indexer reads.
type Source interface {
	Head(ctx context.Context) (uint64, error)
	FilterMints(ctx context.Context, from, to uint64) ([]eth.MintLog, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
}

type Store interface {
	UpsertMinted(ctx context.Context, t models.MintedToken) (bool, error)
}

type Config struct {
	StartBlock    uint64
	Confirmations uint64
	BlockBatch    uint64
}

type Indexer struct {
	source    Source
	store     Store
	cursor    Cursor
	publisher events.Publisher
	cfg       Config
	log       *zap.Logger
}

func New(source Source, store Store, cursor Cursor, publisher events.Publisher, cfg Config, log *zap.Logger) *Indexer {
	if cfg.BlockBatch == 0 {
		cfg.BlockBatch = 2000
	}
	return &Indexer{
		source:    source,
		store:     store,
		cursor:    cursor,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// Init places the cursor on first run. With no start block configured only
// mints after startup are followed.
func (ix *Indexer) Init(ctx context.Context) error {
	block, ok, err := ix.cursor.Load(ctx)
	if err != nil {
		return fmt.Errorf("load cursor: %w", err)
	}
	if ok {
		ix.log.Info("resuming from saved cursor", zap.Uint64("block", block))
		return nil
	}

	if ix.cfg.StartBlock > 0 {
		start := ix.cfg.StartBlock - 1
		ix.log.Info("cursor initialized at configured start block", zap.Uint64("block", ix.cfg.StartBlock))
		return ix.cursor.Save(ctx, start)
	}

	safe, ok, err := ix.safeHead(ctx)
	if err != nil {
		return err
	}
	if !ok {
		safe = 0
	}
	ix.log.Info("cursor initialized at current head (skipping historical mints)", zap.Uint64("block", safe))
	return ix.cursor.Save(ctx, safe)
}

// Poll processes every confirmed block after the cursor, one batch at a
// time. The cursor only moves past a batch once all of its logs are stored.
func (ix *Indexer) Poll(ctx context.Context) (int, error) {
	cursor, _, err := ix.cursor.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load cursor: %w", err)
	}

	safe, ok, err := ix.safeHead(ctx)
	if err != nil || !ok || safe <= cursor {
		return 0, err
	}

	recorded := 0
	for from := cursor + 1; from <= safe; {
		to := from + ix.cfg.BlockBatch - 1
		if to > safe {
			to = safe
		}

		mints, err := ix.source.FilterMints(ctx, from, to)
		if err != nil {
			return recorded, err
		}
		if len(mints) > 0 {
			ix.log.Info("found mint events", zap.Int("count", len(mints)), zap.Uint64("from", from), zap.Uint64("to", to))
		}

		for _, m := range mints {
			n, err := ix.process(ctx, m)
			if err != nil {
				return recorded, err
			}
			recorded += n
		}

		if err := ix.cursor.Save(ctx, to); err != nil {
			return recorded, fmt.Errorf("save cursor: %w", err)
		}
		metrics.IndexerHead.Set(float64(to))
		from = to + 1
	}
	return recorded, nil
}

func (ix *Indexer) safeHead(ctx context.Context) (uint64, bool, error) {
	head, err := ix.source.Head(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("head: %w", err)
	}
	if head < ix.cfg.Confirmations {
		return 0, false, nil
	}
	return head - ix.cfg.Confirmations, true, nil
}

func (ix *Indexer) process(ctx context.Context, m eth.MintLog) (int, error) {
	key := fmt.Sprintf("%s:%d", m.TxHash.Hex(), m.LogIndex)
	seen, err := ix.cursor.Seen(ctx, key)
	if err != nil {
		return 0, err
	}
	if seen {
		return 0, nil
	}

	uri, err := ix.source.TokenURI(ctx, m.TokenID)
	if err != nil {
		return 0, fmt.Errorf("tokenURI(%s): %w", m.TokenID, err)
	}

	token := models.MintedToken{
		TokenID:     m.TokenID.Uint64(),
		MetadataURI: uri,
		Owner:       m.To.Hex(),
		TxHash:      m.TxHash.Hex(),
		BlockNumber: m.BlockNumber,
	}
	inserted, err := ix.store.UpsertMinted(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("store token %d: %w", token.TokenID, err)
	}

	if inserted {
		metrics.IndexedMints.Inc()
		if ix.publisher != nil {
			_ = ix.publisher.Publish(ctx, events.StreamCollection, events.Event{
				Type: events.EventTokenMinted,
				Payload: map[string]any{
					"token_id":     token.TokenID,
					"metadata_uri": token.MetadataURI,
					"owner":        token.Owner,
					"tx_hash":      token.TxHash,
					"block":        token.BlockNumber,
					"source":       "indexer",
				},
			})
		}
		ix.log.Info("mint indexed",
			zap.Uint64("token_id", token.TokenID),
			zap.String("owner", token.Owner),
			zap.String("tx_hash", token.TxHash),
		)
	}

	if err := ix.cursor.MarkSeen(ctx, key, fmt.Sprintf("token:%d", token.TokenID)); err != nil {
		ix.log.Warn("failed to mark log processed", zap.String("key", key), zap.Error(err))
	}
	if inserted {
		return 1, nil
	}
	return 0, nil
}
