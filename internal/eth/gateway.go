package eth

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Gateway is the typed surface of the FellasToken contract.
//
// Reads require a connected wallet and fail with ErrNotConnected otherwise;
// callers are expected to check first and skip. Writes return the submitted
// transaction; WaitMined blocks until it is included.
type Gateway interface {
	Count(ctx context.Context) (*big.Int, error)
	ContractBalance(ctx context.Context) (*big.Int, error)
	Owner(ctx context.Context) (common.Address, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	TokenURI(ctx context.Context, tokenID *big.Int) (string, error)
	IsContentOwned(ctx context.Context, uri string) (bool, error)

	MintSingleFellas(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error)
	WhitelistMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error)
	FreeMint(ctx context.Context, value *big.Int, to common.Address, uri string) (*types.Transaction, error)
	MintMultiFellas(ctx context.Context, value *big.Int, to common.Address, uris []string) (*types.Transaction, error)
	Withdraw(ctx context.Context) (*types.Transaction, error)

	WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TxResult is the outcome of a write, handed to the presentation layer
// instead of being surfaced as a side effect.
type TxResult struct {
	OK       bool          `json:"ok"`
	TxHash   string        `json:"tx_hash,omitempty"`
	Block    uint64        `json:"block,omitempty"`
	GasUsed  uint64        `json:"gas_used,omitempty"`
	Code     string        `json:"code,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"-"`
}

// Err returns the failure as an error, or nil on success.
func (r TxResult) Err() error {
	if r.OK {
		return nil
	}
	return &ChainError{Code: r.Code, Reason: r.Reason}
}

// Execute submits a transaction through send, reports it to onSent once it
// has a hash, and waits for it to be mined. There is no timeout beyond ctx.
func Execute(
	ctx context.Context,
	gw Gateway,
	send func(ctx context.Context) (*types.Transaction, error),
	onSent func(tx *types.Transaction),
) TxResult {
	start := time.Now()

	tx, err := send(ctx)
	if err != nil {
		return failed(err, "", start)
	}
	if onSent != nil {
		onSent(tx)
	}

	receipt, err := gw.WaitMined(ctx, tx)
	if err != nil {
		return failed(err, tx.Hash().Hex(), start)
	}

	res := TxResult{
		OK:       true,
		TxHash:   tx.Hash().Hex(),
		GasUsed:  receipt.GasUsed,
		Duration: time.Since(start),
	}
	if receipt.BlockNumber != nil {
		res.Block = receipt.BlockNumber.Uint64()
	}
	return res
}

func failed(err error, hash string, start time.Time) TxResult {
	ce := ClassifyError(err)
	reason := ce.Reason
	if reason == "" && ce.Err != nil {
		reason = ce.Err.Error()
	}
	return TxResult{
		OK:       false,
		TxHash:   hash,
		Code:     ce.Code,
		Reason:   reason,
		Duration: time.Since(start),
	}
}
