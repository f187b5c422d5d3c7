package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Fellas is the on-chain Gateway backed by a node and the session wallet.
type Fellas struct {
	address  common.Address
	backend  Backend
	wallet   *Wallet
	contract *bind.BoundContract
}

var _ Gateway = (*Fellas)(nil)

func NewFellas(address common.Address, backend Backend, wallet *Wallet) *Fellas {
	return &Fellas{
		address:  address,
		backend:  backend,
		wallet:   wallet,
		contract: bind.NewBoundContract(address, fellasABI, backend, backend, backend),
	}
}

// NewReader returns a Fellas without a signer. Reads do not need a
// connected wallet; writes fail with ErrNotConnected.
func NewReader(address common.Address, backend Backend) *Fellas {
	return &Fellas{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, fellasABI, backend, backend, backend),
	}
}

func (f *Fellas) Address() common.Address {
	return f.address
}

func (f *Fellas) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	opts := &bind.CallOpts{Context: ctx}
	if f.wallet != nil {
		if !f.wallet.Connected() {
			return nil, ErrNotConnected
		}
		opts = f.wallet.CallOpts(ctx)
	}
	var out []interface{}
	if err := f.contract.Call(opts, &out, method, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty result", method)
	}
	return out, nil
}

func (f *Fellas) callUint(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := f.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (f *Fellas) Count(ctx context.Context) (*big.Int, error) {
	return f.callUint(ctx, "count")
}

func (f *Fellas) ContractBalance(ctx context.Context) (*big.Int, error) {
	return f.callUint(ctx, "getBalance")
}

func (f *Fellas) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return f.callUint(ctx, "balanceOf", owner)
}

func (f *Fellas) Owner(ctx context.Context) (common.Address, error) {
	out, err := f.call(ctx, "owner")
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (f *Fellas) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := f.call(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (f *Fellas) IsContentOwned(ctx context.Context, uri string) (bool, error) {
	out, err := f.call(ctx, "isContentOwned", uri)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (f *Fellas) transact(ctx context.Context, value *big.Int, method string, args ...interface{}) (*types.Transaction, error) {
	if f.wallet == nil {
		return nil, ErrNotConnected
	}
	opts, err := f.wallet.TransactOpts(ctx, value)
	if err != nil {
		return nil, err
	}
	tx, err := f.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return tx, nil
}

func (f *Fellas) MintSingleFellas(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return f.transact(ctx, value, "mintSingleFellas", to, uri)
}

func (f *Fellas) WhitelistMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return f.transact(ctx, value, "whitelistMint", to, uri)
}

func (f *Fellas) FreeMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return f.transact(ctx, value, "freeMint", to, uri)
}

func (f *Fellas) MintMultiFellas(ctx context.Context, value *big.Int, to common.Address, uris []string) (*types.Transaction, error) {
	return f.transact(ctx, value, "mintMultiFellas", to, uris, big.NewInt(int64(len(uris))))
}

func (f *Fellas) Withdraw(ctx context.Context) (*types.Transaction, error) {
	return f.transact(ctx, nil, "withdraw")
}

// WaitMined blocks until tx has a receipt. A reverted receipt is returned
// together with ErrTxReverted.
func (f *Fellas) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, f.backend, tx)
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ErrTxReverted
	}
	return receipt, nil
}

// Receipt looks a transaction up without waiting. ethereum.NotFound means
// it is still pending or unknown to the node.
func (f *Fellas) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return f.backend.TransactionReceipt(ctx, hash)
}

// IsNotFound reports whether err means a receipt is not available yet.
func IsNotFound(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}
