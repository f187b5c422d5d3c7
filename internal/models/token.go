package models

import (
	"time"
)

// Slot states
const (
	SlotStateUnknown  = "unknown"
	SlotStateUnminted = "unminted"
	SlotStateMinted   = "minted"
)

// Mint modes map onto the contract's payable mint entry points.
const (
	MintModeSingle    = "mint"
	MintModeWhitelist = "whitelist"
	MintModeFree      = "free"
	MintModeMulti     = "multi"
)

// PlaceholderImage is shown for slots that are not minted yet.
const PlaceholderImage = "img/placeholder.png"

// Valid slot transitions: from -> []to. Minted is terminal; tokens are never
// burned in this collection.
var ValidSlotTransitions = map[string][]string{
	SlotStateUnknown:  {SlotStateUnminted, SlotStateMinted},
	SlotStateUnminted: {SlotStateMinted},
	SlotStateMinted:   {},
}

func IsValidSlotTransition(from, to string) bool {
	allowed, ok := ValidSlotTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// NextSlotState folds an ownership observation into the current state.
// A minted slot stays minted whatever a later (possibly stale) read says.
func NextSlotState(current string, owned bool) string {
	target := SlotStateUnminted
	if owned {
		target = SlotStateMinted
	}
	if current == target || IsValidSlotTransition(current, target) {
		return target
	}
	return current
}

func IsValidMintMode(mode string) bool {
	switch mode {
	case MintModeSingle, MintModeWhitelist, MintModeFree:
		return true
	}
	return false
}

// TokenSlot is one position of the collection as shown to users.
type TokenSlot struct {
	TokenID     uint64     `json:"token_id"`
	State       string     `json:"state"`
	Minted      bool       `json:"minted"`
	MetadataURI string     `json:"metadata_uri"`
	ImageURI    string     `json:"image_uri"`
	DisplayURI  string     `json:"display_uri"`
	Owner       *string    `json:"owner,omitempty"`
	MintTxHash  *string    `json:"mint_tx_hash,omitempty"`
	CheckedAt   *time.Time `json:"checked_at,omitempty"`
}

// MintedToken is a row of the minted-token read model.
type MintedToken struct {
	TokenID     uint64    `json:"token_id"`
	MetadataURI string    `json:"metadata_uri"`
	Owner       string    `json:"owner"`
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	MintedAt    time.Time `json:"minted_at"`
}
