package dto

type MintRequest struct {
	Mode  string `json:"mode"`            // mint / whitelist / free
	Offer string `json:"offer,omitempty"` // ether; empty means DEFAULT_OFFER_ETH
	To    string `json:"to,omitempty"`
}

type MintMultiRequest struct {
	From     uint64 `json:"from"`
	Quantity int    `json:"quantity"`
	Offer    string `json:"offer,omitempty"` // total for the batch
	To       string `json:"to,omitempty"`
}
