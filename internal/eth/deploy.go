package eth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Artifact is a compiled contract as emitted by Hardhat or Foundry.
type Artifact struct {
	ContractName string
	ABI          abi.ABI
	Bytecode     []byte
}

type rawArtifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

// LoadArtifact reads a Hardhat ({"bytecode":"0x..."}) or Foundry
// ({"bytecode":{"object":"0x..."}}) artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return ParseArtifact(data)
}

func ParseArtifact(data []byte) (*Artifact, error) {
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact has no abi")
	}

	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}

	var code string
	if err := json.Unmarshal(raw.Bytecode, &code); err != nil {
		var foundry struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw.Bytecode, &foundry); err != nil {
			return nil, fmt.Errorf("artifact bytecode: unsupported format")
		}
		code = foundry.Object
	}
	if !strings.HasPrefix(code, "0x") {
		code = "0x" + code
	}
	bytecode, err := hexutil.Decode(code)
	if err != nil {
		return nil, fmt.Errorf("artifact bytecode: %w", err)
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("artifact bytecode is empty (abstract contract or interface?)")
	}

	return &Artifact{ContractName: raw.ContractName, ABI: parsed, Bytecode: bytecode}, nil
}

// Deploy sends the creation transaction and waits until the contract code
// is on chain.
func Deploy(ctx context.Context, backend Backend, wallet *Wallet, art *Artifact, params ...interface{}) (common.Address, *types.Transaction, error) {
	opts, err := wallet.TransactOpts(ctx, nil)
	if err != nil {
		return common.Address{}, nil, err
	}

	addr, tx, _, err := bind.DeployContract(opts, art.ABI, art.Bytecode, backend, params...)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("deploy %s: %w", art.ContractName, err)
	}

	if _, err := bind.WaitDeployed(ctx, backend, tx); err != nil {
		return addr, tx, fmt.Errorf("wait deployed: %w", err)
	}
	return addr, tx, nil
}
