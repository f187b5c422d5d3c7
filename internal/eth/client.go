package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// Backend is what the gateway needs from a node. Both *ethclient.Client and
// the simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Dial connects to a JSON-RPC endpoint and verifies it answers.
func Dial(ctx context.Context, rpcURL string, log *zap.Logger) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}

	head, err := client.BlockNumber(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: node at %s: %v", ErrWalletUnavailable, rpcURL, err)
	}

	log.Info("ethereum node connected", zap.String("rpc", rpcURL), zap.Uint64("head", head))
	return client, nil
}
