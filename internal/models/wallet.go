package models

// WalletState is the session wallet as last read. It is refreshed on demand
// and does not follow external balance changes on its own.
type WalletState struct {
	Connected  bool   `json:"connected"`
	Address    string `json:"address,omitempty"`
	BalanceWei string `json:"balance_wei,omitempty"`
	BalanceETH string `json:"balance_eth,omitempty"`
	ChainID    string `json:"chain_id,omitempty"`
}
