package models

import (
	"time"

	"github.com/google/uuid"
)

const EntityChainTransaction = "chain_transaction"

type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	Actor      string     `json:"actor"`      // signer address or "system"
	ActorType  string     `json:"actor_type"` // operator/system/indexer
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"`
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
