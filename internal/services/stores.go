package services

import (
	"context"

	"github.com/fellas-token/backend/internal/models"
	"github.com/google/uuid"
)

// TokenStore is the persisted minted-token read model.
type TokenStore interface {
	UpsertMinted(ctx context.Context, t models.MintedToken) (bool, error)
	MintedURIs(ctx context.Context) (map[string]models.MintedToken, error)
}

// TxStore records contract writes.
type TxStore interface {
	Create(ctx context.Context, t *models.ChainTransaction) error
	SetHash(ctx context.Context, id uuid.UUID, hash string) error
	Finish(ctx context.Context, id uuid.UUID, status string, block *int64, code, message *string) error
}

type AuditLogger interface {
	Log(ctx context.Context, entry models.AuditLog) error
}
