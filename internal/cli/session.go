package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/services"
)

// session is a connected signer and the services built on it. The CLI keeps
// no database; every command reads the chain directly.
type session struct {
	resolver   *content.Resolver
	wallet     *services.WalletService
	mint       *services.MintService
	collection *services.CollectionService
	close      func()
}

// openSession is replaced in tests.
var openSession = func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*session, error) {
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("contract address %q is not valid (set CONTRACT_ADDRESS or --contract)", cfg.ContractAddress)
	}

	client, err := eth.Dial(ctx, cfg.RPCURL, log)
	if err != nil {
		return nil, err
	}
	wallet, err := newWallet(client, cfg, log)
	if err != nil {
		client.Close()
		return nil, err
	}
	fellas := eth.NewFellas(common.HexToAddress(cfg.ContractAddress), client, wallet)

	s := newSession(fellas, wallet, cfg, log)
	s.close = client.Close
	return s, nil
}

func newWallet(backend eth.Backend, cfg *config.Config, log *zap.Logger) (*eth.Wallet, error) {
	if !cfg.HasSigner() {
		return nil, fmt.Errorf("%w: set SIGNER_PRIVATE_KEY or SIGNER_KEYSTORE", eth.ErrWalletUnavailable)
	}
	return eth.NewWallet(backend, eth.WalletConfig{
		PrivateKey: cfg.SignerPrivateKey,
		Keystore:   cfg.SignerKeystore,
		Passphrase: cfg.SignerPassphrase,
		ChainID:    cfg.ChainID,
	}, log), nil
}

func newSession(gw eth.Gateway, wallet eth.Connector, cfg *config.Config, log *zap.Logger) *session {
	resolver := content.NewResolver(cfg.ContentID, cfg.IPFSGateway)
	reconciler := services.NewReconciler(gw, wallet, nil, resolver, services.ReconcilerConfig{
		SlotsAhead:  cfg.SlotsAhead,
		Concurrency: cfg.ReconcileConcurrency,
	}, log)
	mint := services.NewMintService(gw, wallet, reconciler, resolver, nil, nil, nil, services.MintConfig{
		DefaultOffer: cfg.DefaultOfferETH,
		MaxBatch:     cfg.MaxMultiMint,
	}, log)
	return &session{
		resolver:   resolver,
		wallet:     services.NewWalletService(wallet, log),
		mint:       mint,
		collection: services.NewCollectionService(gw, wallet, reconciler, nil, nil, nil, log),
		close:      func() {},
	}
}

// withSession opens a session, connects the signer and runs fn.
func withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.wallet.Connect(ctx); err != nil {
		return err
	}
	return fn(ctx, s)
}
