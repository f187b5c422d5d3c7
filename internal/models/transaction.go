package models

import (
	"time"

	"github.com/google/uuid"
)

// Chain transaction kinds
const (
	TxKindMintSingle = "mint_single"
	TxKindWhitelist  = "whitelist_mint"
	TxKindFreeMint   = "free_mint"
	TxKindMintMulti  = "mint_multi"
	TxKindWithdraw   = "withdraw"
	TxKindDeploy     = "deploy"
)

// Chain transaction statuses
const (
	TxStatusPending   = "pending"
	TxStatusConfirmed = "confirmed"
	TxStatusFailed    = "failed"
)

var mintKinds = map[string]string{
	MintModeSingle:    TxKindMintSingle,
	MintModeWhitelist: TxKindWhitelist,
	MintModeFree:      TxKindFreeMint,
	MintModeMulti:     TxKindMintMulti,
}

// TxKindForMode returns the transaction kind recorded for a mint mode.
func TxKindForMode(mode string) string {
	return mintKinds[mode]
}

type ChainTransaction struct {
	ID           uuid.UUID  `json:"id"`
	Kind         string     `json:"kind"`
	TokenID      *int64     `json:"token_id,omitempty"`
	Quantity     int        `json:"quantity"`
	MetadataURI  *string    `json:"metadata_uri,omitempty"`
	FromAddress  string     `json:"from_address"`
	ValueWei     string     `json:"value_wei"` // numeric as string
	TxHash       *string    `json:"tx_hash,omitempty"`
	Status       string     `json:"status"`
	ErrorCode    *string    `json:"error_code,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	BlockNumber  *int64     `json:"block_number,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ConfirmedAt  *time.Time `json:"confirmed_at,omitempty"`
}
