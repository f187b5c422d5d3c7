// Package ethtest provides an in-memory FellasToken double for tests.
//
// It mirrors the externally observable rules of the deployed contract
// (prices, whitelist quota, VIP free mint, owner-only withdraw) closely
// enough to drive the services end to end without a node.
package ethtest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fellas-token/backend/internal/eth"
)

var (
	MintPrice      = mustEther("0.0005")
	WhitelistPrice = mustEther("0.0001")
	WhitelistSlots = 20
)

type token struct {
	owner common.Address
	uri   string
}

type pending struct {
	receipt *types.Receipt
	revert  bool
}

// Chain is a single FellasToken contract plus native balances.
type Chain struct {
	mu sync.Mutex

	owner     common.Address
	sender    common.Address
	connected bool

	vip      map[common.Address]bool
	tokens   map[uint64]token
	owned    map[string]bool
	holdings map[common.Address]uint64
	native   map[common.Address]*big.Int
	contract *big.Int
	count    uint64

	block    uint64
	nonce    uint64
	receipts map[common.Hash]pending

	// RevertOnMine makes the next submitted transaction mine with status 0.
	RevertOnMine bool
	// Calls counts read calls per method.
	Calls map[string]int
}

var _ eth.Gateway = (*Chain)(nil)

// New deploys a fresh contract owned by owner.
func New(owner common.Address) *Chain {
	return &Chain{
		owner:    owner,
		vip:      make(map[common.Address]bool),
		tokens:   make(map[uint64]token),
		owned:    make(map[string]bool),
		holdings: make(map[common.Address]uint64),
		native:   make(map[common.Address]*big.Int),
		contract: new(big.Int),
		receipts: make(map[common.Hash]pending),
		Calls:    make(map[string]int),
		block:    1,
	}
}

// Fund credits addr with wei.
func (c *Chain) Fund(addr common.Address, wei *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nativeOf(addr).Add(c.nativeOf(addr), wei)
}

// SetVIP flags addr as eligible for free mint.
func (c *Chain) SetVIP(addr common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vip[addr] = true
}

// NativeBalance returns the native balance of addr.
func (c *Chain) NativeBalance(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.nativeOf(addr))
}

// MintExternally records a mint made by someone else, bypassing the wallet.
func (c *Chain) MintExternally(to common.Address, uri string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mint(to, uri)
}

func (c *Chain) nativeOf(addr common.Address) *big.Int {
	b, ok := c.native[addr]
	if !ok {
		b = new(big.Int)
		c.native[addr] = b
	}
	return b
}

func (c *Chain) read(method string) error {
	c.Calls[method]++
	if !c.connected {
		return eth.ErrNotConnected
	}
	return nil
}

func (c *Chain) Count(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("count"); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(c.count), nil
}

func (c *Chain) ContractBalance(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("getBalance"); err != nil {
		return nil, err
	}
	return new(big.Int).Set(c.contract), nil
}

func (c *Chain) Owner(ctx context.Context) (common.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("owner"); err != nil {
		return common.Address{}, err
	}
	return c.owner, nil
}

func (c *Chain) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("balanceOf"); err != nil {
		return nil, err
	}
	return new(big.Int).SetUint64(c.holdings[owner]), nil
}

func (c *Chain) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("tokenURI"); err != nil {
		return "", err
	}
	t, ok := c.tokens[tokenID.Uint64()]
	if !ok {
		return "", revert("URI query for nonexistent token")
	}
	return t.uri, nil
}

func (c *Chain) IsContentOwned(ctx context.Context, uri string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.read("isContentOwned"); err != nil {
		return false, err
	}
	return c.owned[uri], nil
}

func (c *Chain) MintSingleFellas(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return c.submit(value, func() error {
		if value == nil || value.Cmp(MintPrice) < 0 {
			return revert("Need to pay up!")
		}
		return c.mintChecked(to, uri)
	})
}

func (c *Chain) WhitelistMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return c.submit(value, func() error {
		if c.count >= uint64(WhitelistSlots) {
			return revert("Whitelist minting is over")
		}
		if value == nil || value.Cmp(WhitelistPrice) < 0 {
			return revert("Need to pay up!")
		}
		return c.mintChecked(to, uri)
	})
}

func (c *Chain) FreeMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error) {
	return c.submit(value, func() error {
		if !c.vip[to] {
			return revert("Only VIP can free mint")
		}
		return c.mintChecked(to, uri)
	})
}

func (c *Chain) MintMultiFellas(ctx context.Context, value *big.Int, to common.Address, uris []string) (*types.Transaction, error) {
	return c.submit(value, func() error {
		if len(uris) == 0 {
			return revert("Nothing to mint")
		}
		total := new(big.Int).Mul(MintPrice, big.NewInt(int64(len(uris))))
		if value == nil || value.Cmp(total) < 0 {
			return revert("Need to pay up!")
		}
		for _, uri := range uris {
			if c.owned[uri] {
				return revert("NFT already minted!")
			}
		}
		for _, uri := range uris {
			c.mint(to, uri)
		}
		return nil
	})
}

func (c *Chain) Withdraw(ctx context.Context) (*types.Transaction, error) {
	return c.submit(nil, func() error {
		if c.sender != c.owner {
			return revert("Ownable: caller is not the owner")
		}
		c.nativeOf(c.owner).Add(c.nativeOf(c.owner), c.contract)
		c.contract = new(big.Int)
		return nil
	})
}

func (c *Chain) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	c.mu.Lock()
	p, ok := c.receipts[tx.Hash()]
	c.mu.Unlock()
	if !ok {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.revert {
		return p.receipt, eth.ErrTxReverted
	}
	return p.receipt, nil
}

func (c *Chain) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.receipts[hash]
	if !ok {
		return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), ethereum.NotFound)
	}
	return p.receipt, nil
}

// submit applies a state change atomically. Reverts surface at submission,
// the way gas estimation fails against a real node.
func (c *Chain) submit(value *big.Int, apply func() error) (*types.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, eth.ErrNotConnected
	}
	if value == nil {
		value = new(big.Int)
	}
	if c.nativeOf(c.sender).Cmp(value) < 0 {
		return nil, &eth.ChainError{Code: eth.CodeInsufficientFunds, Reason: "insufficient funds for gas * price + value"}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    c.nonce,
		To:       &c.owner,
		Value:    new(big.Int).Set(value),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
	c.nonce++

	if c.RevertOnMine {
		c.RevertOnMine = false
		c.block++
		c.receipts[tx.Hash()] = pending{
			receipt: &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: tx.Hash(), BlockNumber: new(big.Int).SetUint64(c.block)},
			revert:  true,
		}
		return tx, nil
	}

	if err := apply(); err != nil {
		return nil, err
	}

	c.nativeOf(c.sender).Sub(c.nativeOf(c.sender), value)
	c.contract.Add(c.contract, value)

	c.block++
	c.receipts[tx.Hash()] = pending{
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			TxHash:      tx.Hash(),
			BlockNumber: new(big.Int).SetUint64(c.block),
			GasUsed:     21000,
		},
	}
	return tx, nil
}

func (c *Chain) mintChecked(to common.Address, uri string) error {
	if c.owned[uri] {
		return revert("NFT already minted!")
	}
	c.mint(to, uri)
	return nil
}

func (c *Chain) mint(to common.Address, uri string) uint64 {
	c.count++
	c.tokens[c.count] = token{owner: to, uri: uri}
	c.owned[uri] = true
	c.holdings[to]++
	return c.count
}

func revert(reason string) error {
	return &eth.ChainError{
		Code:   eth.CodeUnpredictableGasLimit,
		Reason: reason,
		Err:    fmt.Errorf("execution reverted: %s", reason),
	}
}

func mustEther(s string) *big.Int {
	v, err := eth.ParseEther(s)
	if err != nil {
		panic(err)
	}
	return v
}
