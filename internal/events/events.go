package events

import (
	"context"
	"time"
)

// Streams
const (
	StreamCollection = "events:collection"
	StreamNotify     = "events:notify"
)

// Event types
const (
	EventTokenMinted         = "token_minted"
	EventMintFailed          = "mint_failed"
	EventWithdrawConfirmed   = "withdraw_confirmed"
	EventCollectionRefreshed = "collection_refreshed"
	EventTxStale             = "tx_stale"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

// Notifiable reports whether an event is worth pushing to the operator
// webhook. Refreshes are too chatty.
func Notifiable(eventType string) bool {
	switch eventType {
	case EventTokenMinted, EventMintFailed, EventWithdrawConfirmed, EventTxStale:
		return true
	}
	return false
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
