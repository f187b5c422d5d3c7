package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// MintLog is a Transfer event from the zero address.
type MintLog struct {
	TokenID     *big.Int
	To          common.Address
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
}

// MintQuery builds the log filter for mints of contract in [from, to].
func MintQuery(contract common.Address, from, to uint64) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{contract},
		Topics: [][]common.Hash{
			{TransferEventID},
			{common.Hash{}},
		},
	}
}

// ParseMintLog decodes a Transfer(from=0) log. All three arguments are
// indexed, so everything lives in the topics.
func ParseMintLog(l types.Log) (MintLog, error) {
	if len(l.Topics) != 4 || l.Topics[0] != TransferEventID {
		return MintLog{}, fmt.Errorf("not a Transfer log: %d topics", len(l.Topics))
	}
	if l.Topics[1] != (common.Hash{}) {
		return MintLog{}, fmt.Errorf("transfer from %s is not a mint", common.BytesToAddress(l.Topics[1].Bytes()).Hex())
	}
	return MintLog{
		TokenID:     l.Topics[3].Big(),
		To:          common.BytesToAddress(l.Topics[2].Bytes()),
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		LogIndex:    l.Index,
	}, nil
}

// FilterMints returns the mints recorded in [from, to], oldest first.
func (f *Fellas) FilterMints(ctx context.Context, from, to uint64) ([]MintLog, error) {
	logs, err := f.backend.FilterLogs(ctx, MintQuery(f.address, from, to))
	if err != nil {
		return nil, fmt.Errorf("filter logs %d-%d: %w", from, to, err)
	}

	mints := make([]MintLog, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		m, err := ParseMintLog(l)
		if err != nil {
			continue
		}
		mints = append(mints, m)
	}
	return mints, nil
}

// Head returns the latest block number.
func (f *Fellas) Head(ctx context.Context) (uint64, error) {
	return f.backend.BlockNumber(ctx)
}
