package dto

import "github.com/fellas-token/backend/internal/models"

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
	TxHash    string `json:"tx_hash,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type TokenURIResponse struct {
	TokenID    uint64 `json:"token_id"`
	URI        string `json:"uri"`
	GatewayURL string `json:"gateway_url"`
}

type MetaResponse struct {
	Contract     string   `json:"contract"`
	ContentID    string   `json:"content_id"`
	IPFSGateway  string   `json:"ipfs_gateway"`
	MintModes    []string `json:"mint_modes"`
	DefaultOffer string   `json:"default_offer_eth"`
	SlotsAhead   int      `json:"slots_ahead"`
	Placeholder  string   `json:"placeholder_image"`
}

type TransactionResponse struct {
	Transaction *models.ChainTransaction `json:"transaction"`
	Audit       []models.AuditLog        `json:"audit,omitempty"`
}
