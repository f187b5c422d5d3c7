package ethtest

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fellas-token/backend/internal/eth"
)

// Wallet is a Connector whose transactions are sent from addr on chain.
type Wallet struct {
	chain *Chain
	addr  common.Address

	// FailConnect makes Connect report an unavailable provider.
	FailConnect bool
}

var _ eth.Connector = (*Wallet)(nil)

func (c *Chain) Wallet(addr common.Address) *Wallet {
	return &Wallet{chain: c, addr: addr}
}

func (w *Wallet) Connect(ctx context.Context) error {
	if w.FailConnect {
		return eth.ErrWalletUnavailable
	}
	w.chain.mu.Lock()
	defer w.chain.mu.Unlock()
	w.chain.connected = true
	w.chain.sender = w.addr
	return nil
}

func (w *Wallet) Connected() bool {
	w.chain.mu.Lock()
	defer w.chain.mu.Unlock()
	return w.chain.connected && w.chain.sender == w.addr
}

func (w *Wallet) Address() common.Address {
	if !w.Connected() {
		return common.Address{}
	}
	return w.addr
}

func (w *Wallet) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return w.chain.NativeBalance(addr), nil
}
