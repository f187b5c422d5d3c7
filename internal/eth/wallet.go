package eth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// Connector is the session wallet: one signer whose address and native
// balance the rest of the system reads.
type Connector interface {
	Connect(ctx context.Context) error
	Connected() bool
	Address() common.Address
	Balance(ctx context.Context, addr common.Address) (*big.Int, error)
}

type WalletConfig struct {
	PrivateKey string // hex, optional 0x prefix
	Keystore   string // path to a V3 keystore file
	Passphrase string
	ChainID    int64 // expected chain id, 0 = any
}

// Wallet is a local signer bound to a node connection.
type Wallet struct {
	backend Backend
	cfg     WalletConfig
	log     *zap.Logger

	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

func NewWallet(backend Backend, cfg WalletConfig, log *zap.Logger) *Wallet {
	return &Wallet{backend: backend, cfg: cfg, log: log}
}

// Connect unlocks the signer and checks the node is reachable on the
// expected chain. On failure the wallet stays disconnected.
func (w *Wallet) Connect(ctx context.Context) error {
	key, err := w.loadKey()
	if err != nil {
		return err
	}

	chainID, err := w.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: chain id: %v", ErrWalletUnavailable, err)
	}
	if w.cfg.ChainID != 0 && chainID.Int64() != w.cfg.ChainID {
		return fmt.Errorf("%w: chain id mismatch: expected %d, node reports %s", ErrWalletUnavailable, w.cfg.ChainID, chainID)
	}

	addr := crypto.PubkeyToAddress(key.PublicKey)

	w.mu.Lock()
	w.key = key
	w.address = addr
	w.chainID = chainID
	w.mu.Unlock()

	w.log.Info("wallet connected",
		zap.String("address", addr.Hex()),
		zap.String("chain_id", chainID.String()),
	)
	return nil
}

func (w *Wallet) loadKey() (*ecdsa.PrivateKey, error) {
	switch {
	case w.cfg.PrivateKey != "":
		key, err := crypto.HexToECDSA(strings.TrimPrefix(w.cfg.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid private key: %v", ErrWalletUnavailable, err)
		}
		return key, nil
	case w.cfg.Keystore != "":
		raw, err := os.ReadFile(w.cfg.Keystore)
		if err != nil {
			return nil, fmt.Errorf("%w: read keystore: %v", ErrWalletUnavailable, err)
		}
		k, err := keystore.DecryptKey(raw, w.cfg.Passphrase)
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt keystore: %v", ErrWalletUnavailable, err)
		}
		return k.PrivateKey, nil
	default:
		return nil, fmt.Errorf("%w: no signer configured", ErrWalletUnavailable)
	}
}

func (w *Wallet) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.key != nil
}

func (w *Wallet) Address() common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address
}

func (w *Wallet) ChainID() *big.Int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.chainID == nil {
		return nil
	}
	return new(big.Int).Set(w.chainID)
}

// Balance returns the native balance of addr at the latest block.
func (w *Wallet) Balance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return w.backend.BalanceAt(ctx, addr, nil)
}

// TransactOpts builds signing options carrying value wei.
func (w *Wallet) TransactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	w.mu.RLock()
	key, chainID := w.key, w.chainID
	w.mu.RUnlock()

	if key == nil {
		return nil, ErrNotConnected
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	if value != nil {
		opts.Value = new(big.Int).Set(value)
	}
	return opts, nil
}

// CallOpts builds read options sent from the connected address.
func (w *Wallet) CallOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: w.Address()}
}
