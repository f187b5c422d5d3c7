package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
)

// WalletService keeps the session wallet state. Balances are read when asked
// for and never pushed.
type WalletService struct {
	wallet eth.Connector
	log    *zap.Logger

	mu    sync.Mutex
	state models.WalletState
}

func NewWalletService(wallet eth.Connector, log *zap.Logger) *WalletService {
	return &WalletService{wallet: wallet, log: log}
}

// Connect unlocks the wallet. A failure leaves the previous state untouched.
func (s *WalletService) Connect(ctx context.Context) (models.WalletState, error) {
	if err := s.wallet.Connect(ctx); err != nil {
		s.log.Warn("wallet connect failed", zap.Error(err))
		if !errors.Is(err, eth.ErrWalletUnavailable) {
			err = fmt.Errorf("%w: %v", eth.ErrWalletUnavailable, err)
		}
		return s.current(), err
	}
	return s.Refresh(ctx)
}

// Refresh re-reads the connected address and its balance.
func (s *WalletService) Refresh(ctx context.Context) (models.WalletState, error) {
	if !s.wallet.Connected() {
		return s.current(), nil
	}

	addr := s.wallet.Address()
	bal, err := s.wallet.Balance(ctx, addr)
	if err != nil {
		return s.current(), fmt.Errorf("wallet balance: %w", err)
	}

	state := models.WalletState{
		Connected:  true,
		Address:    addr.Hex(),
		BalanceWei: bal.String(),
		BalanceETH: eth.FormatEther(bal),
	}
	if w, ok := s.wallet.(interface{ ChainID() *big.Int }); ok {
		if id := w.ChainID(); id != nil {
			state.ChainID = id.String()
		}
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return state, nil
}

// Balance returns the formatted balance of addr, or ok=false without a call
// when no wallet is connected.
func (s *WalletService) Balance(ctx context.Context, addr common.Address) (balance string, ok bool, err error) {
	if !s.wallet.Connected() {
		return "", false, nil
	}
	bal, err := s.wallet.Balance(ctx, addr)
	if err != nil {
		return "", false, err
	}
	return eth.FormatEther(bal), true, nil
}

func (s *WalletService) Connected() bool {
	return s.wallet.Connected()
}

func (s *WalletService) Address() common.Address {
	return s.wallet.Address()
}

func (s *WalletService) current() models.WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
