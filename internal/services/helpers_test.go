package services

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/eth/ethtest"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	owner    = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	stranger = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92267")
)

func ether(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := eth.ParseEther(s)
	require.NoError(t, err)
	return v
}

type memTxStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.ChainTransaction
}

func newMemTxStore() *memTxStore {
	return &memTxStore{rows: make(map[uuid.UUID]*models.ChainTransaction)}
}

func (s *memTxStore) Create(ctx context.Context, t *models.ChainTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TxStatusPending
	}
	t.CreatedAt = time.Now()
	cp := *t
	s.rows[t.ID] = &cp
	return nil
}

func (s *memTxStore) SetHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[id].TxHash = &hash
	return nil
}

func (s *memTxStore) Finish(ctx context.Context, id uuid.UUID, status string, block *int64, code, message *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rows[id]
	if row.Status != models.TxStatusPending {
		return nil
	}
	row.Status, row.BlockNumber, row.ErrorCode, row.ErrorMessage = status, block, code, message
	return nil
}

func (s *memTxStore) ListPending(ctx context.Context, olderThan time.Duration, limit int) ([]models.ChainTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChainTransaction
	for _, row := range s.rows {
		if row.Status == models.TxStatusPending && time.Since(row.CreatedAt) >= olderThan {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (s *memTxStore) all() []models.ChainTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ChainTransaction
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out
}

type memTokenStore struct {
	tokens map[string]models.MintedToken
}

func (s *memTokenStore) UpsertMinted(ctx context.Context, t models.MintedToken) (bool, error) {
	if _, ok := s.tokens[t.MetadataURI]; ok {
		return false, nil
	}
	s.tokens[t.MetadataURI] = t
	return true, nil
}

func (s *memTokenStore) MintedURIs(ctx context.Context) (map[string]models.MintedToken, error) {
	out := make(map[string]models.MintedToken, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = v
	}
	return out, nil
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ctx context.Context, stream string, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type auditRecorder struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *auditRecorder) Log(ctx context.Context, e models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

// env wires the services around an in-memory contract owned by owner.
type env struct {
	chain      *ethtest.Chain
	wallet     *ethtest.Wallet
	resolver   *content.Resolver
	reconciler *Reconciler
	mint       *MintService
	collection *CollectionService
	txs        *memTxStore
	tokens     *memTokenStore
	events     *recorder
	audit      *auditRecorder
}

func newEnv(t *testing.T, signer common.Address, connect bool) *env {
	t.Helper()
	log := zap.NewNop()

	chain := ethtest.New(owner)
	chain.Fund(owner, ether(t, "100"))
	chain.Fund(stranger, ether(t, "100"))
	wallet := chain.Wallet(signer)
	if connect {
		require.NoError(t, wallet.Connect(context.Background()))
	}

	e := &env{
		chain:    chain,
		wallet:   wallet,
		resolver: content.NewResolver("cid", "https://gateway.pinata.cloud/ipfs"),
		txs:      newMemTxStore(),
		tokens:   &memTokenStore{tokens: make(map[string]models.MintedToken)},
		events:   &recorder{},
		audit:    &auditRecorder{},
	}
	e.reconciler = NewReconciler(chain, wallet, e.tokens, e.resolver, ReconcilerConfig{SlotsAhead: 2, Concurrency: 4}, log)
	e.mint = NewMintService(chain, wallet, e.reconciler, e.resolver, e.txs, e.audit, e.events, MintConfig{DefaultOffer: "0.0005", MaxBatch: 20}, log)
	e.collection = NewCollectionService(chain, wallet, e.reconciler, e.txs, e.audit, e.events, log)
	return e
}
