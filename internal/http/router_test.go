package http

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/auth"
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/eth/ethtest"
	"github.com/fellas-token/backend/internal/http/handlers"
	"github.com/fellas-token/backend/internal/models"
	"github.com/fellas-token/backend/internal/rbac"
	"github.com/fellas-token/backend/internal/repositories"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var owner = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")

type apiEnv struct {
	app   *fiber.App
	chain *ethtest.Chain
	token string
}

func newAPI(t *testing.T) *apiEnv {
	t.Helper()
	log := zap.NewNop()

	gateway := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path != "/ipfs/cid/1.json" {
			nethttp.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"name":"Fella #1","image":"ipfs://cid/1.svg"}`)
	}))
	t.Cleanup(gateway.Close)

	cfg := &config.Config{JWTSecret: "test-secret", ContentID: "cid", DefaultOfferETH: "0.0005", SlotsAhead: 2, MaxMultiMint: 20}

	chain := ethtest.New(owner)
	chain.Fund(owner, new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18)))
	wallet := chain.Wallet(owner)

	resolver := content.NewResolver(cfg.ContentID, gateway.URL+"/ipfs")
	reconciler := services.NewReconciler(chain, wallet, nil, resolver, services.ReconcilerConfig{SlotsAhead: cfg.SlotsAhead, Concurrency: 2}, log)
	walletService := services.NewWalletService(wallet, log)
	txs := newTxLog()
	mintService := services.NewMintService(chain, wallet, reconciler, resolver, txs, nil, nil, services.MintConfig{DefaultOffer: cfg.DefaultOfferETH, MaxBatch: cfg.MaxMultiMint}, log)
	collectionService := services.NewCollectionService(chain, wallet, reconciler, txs, nil, nil, log)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	SetupRouter(app, cfg, log, nil,
		handlers.NewCollectionHandler(collectionService, log),
		handlers.NewTokenHandler(mintService, resolver, content.NewClient(resolver, log), log),
		handlers.NewWalletHandler(walletService, log),
		handlers.NewTransactionHandler(txs, nil, log),
		handlers.NewWSHub(cfg, nil, log),
	)

	token, err := auth.GenerateJWT(cfg.JWTSecret, "ops", time.Hour)
	require.NoError(t, err)
	return &apiEnv{app: app, chain: chain, token: token}
}

// txLog is an in-memory chain_transactions table.
type txLog struct {
	mu   sync.Mutex
	rows []*models.ChainTransaction
}

func newTxLog() *txLog { return &txLog{} }

func (l *txLog) Create(ctx context.Context, t *models.ChainTransaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	t.ID = uuid.New()
	t.Status = models.TxStatusPending
	cp := *t
	l.rows = append(l.rows, &cp)
	return nil
}

func (l *txLog) find(id uuid.UUID) *models.ChainTransaction {
	for _, r := range l.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (l *txLog) SetHash(ctx context.Context, id uuid.UUID, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.find(id).TxHash = &hash
	return nil
}

func (l *txLog) Finish(ctx context.Context, id uuid.UUID, status string, block *int64, code, message *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.find(id)
	r.Status, r.BlockNumber, r.ErrorCode, r.ErrorMessage = status, block, code, message
	return nil
}

func (l *txLog) GetByID(ctx context.Context, id uuid.UUID) (*models.ChainTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r := l.find(id); r != nil {
		cp := *r
		return &cp, nil
	}
	return nil, repositories.ErrNotFound
}

func (l *txLog) ListRecent(ctx context.Context, limit int) ([]models.ChainTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []models.ChainTransaction
	for i := len(l.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *l.rows[i])
	}
	return out, nil
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

func (e *apiEnv) do(t *testing.T, method, path, body string, authed bool) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPI(t)

	status, _ := e.do(t, "GET", "/health", "", false)
	assert.Equal(t, fiber.StatusOK, status)

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "fellas_api_requests_total")
}

func TestWritesRequireAuth(t *testing.T) {
	e := newAPI(t)

	status, _ := e.do(t, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint"}`, false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = e.do(t, "POST", "/api/v1/withdraw", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestMintWithoutWallet(t *testing.T) {
	e := newAPI(t)

	status, env := e.do(t, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint","offer":"0.0005"}`, true)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "WALLET_UNAVAILABLE", env.Code)

	status, env = e.do(t, "GET", "/api/v1/wallet", "", false)
	assert.Equal(t, fiber.StatusOK, status)
	var w struct {
		Connected bool `json:"connected"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.False(t, w.Connected)
}

func TestMintFlow(t *testing.T) {
	e := newAPI(t)

	status, env := e.do(t, "POST", "/api/v1/wallet/connect", "", false)
	require.Equal(t, fiber.StatusOK, status)
	var w struct {
		Connected bool   `json:"connected"`
		Address   string `json:"address"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &w))
	assert.True(t, w.Connected)
	assert.Equal(t, owner.Hex(), w.Address)

	status, env = e.do(t, "GET", "/api/v1/collection", "", false)
	require.Equal(t, fiber.StatusOK, status)
	var snap struct {
		Count uint64 `json:"count"`
		Slots []struct {
			TokenID uint64 `json:"token_id"`
			Minted  bool   `json:"minted"`
		} `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, uint64(0), snap.Count)
	assert.Len(t, snap.Slots, 2)

	status, env = e.do(t, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint","offer":"0.0005"}`, true)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	assert.True(t, env.OK)

	status, env = e.do(t, "GET", "/api/v1/tokens/1", "", false)
	require.Equal(t, fiber.StatusOK, status)
	var slot struct {
		Minted bool   `json:"minted"`
		State  string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &slot))
	assert.True(t, slot.Minted)

	status, env = e.do(t, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint","offer":"0.0005"}`, true)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "ALREADY_MINTED", env.Code)

	status, env = e.do(t, "GET", "/api/v1/tokens/1/uri", "", false)
	require.Equal(t, fiber.StatusOK, status)
	var uri struct {
		URI string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &uri))
	assert.Equal(t, "ipfs://cid/1.json", uri.URI)

	status, env = e.do(t, "GET", "/api/v1/tokens/1/metadata", "", false)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "Fella #1")

	status, env = e.do(t, "POST", "/api/v1/withdraw", "", true)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var wd struct {
		BalanceWei string `json:"balance_wei"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &wd))
	assert.Equal(t, "0", wd.BalanceWei)
}

func TestMintRejected(t *testing.T) {
	e := newAPI(t)
	status, _ := e.do(t, "POST", "/api/v1/wallet/connect", "", false)
	require.Equal(t, fiber.StatusOK, status)

	status, env := e.do(t, "POST", "/api/v1/tokens/2/mint", `{"mode":"mint","offer":"0.0001"}`, true)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.NotEmpty(t, env.Code)

	status, env = e.do(t, "GET", "/api/v1/tokens/2/uri", "", false)
	assert.Equal(t, fiber.StatusNotFound, status, env.Error)
}

func TestBadInput(t *testing.T) {
	e := newAPI(t)
	status, _ := e.do(t, "POST", "/api/v1/wallet/connect", "", false)
	require.Equal(t, fiber.StatusOK, status)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"non numeric id", "/api/v1/tokens/abc/mint", `{"mode":"mint"}`},
		{"zero id", "/api/v1/tokens/0/mint", `{"mode":"mint"}`},
		{"unknown mode", "/api/v1/tokens/1/mint", `{"mode":"airdrop"}`},
		{"bad offer", "/api/v1/tokens/1/mint", `{"mode":"mint","offer":"lots"}`},
		{"bad recipient", "/api/v1/tokens/1/mint", `{"mode":"mint","to":"nobody"}`},
		{"zero quantity", "/api/v1/tokens/mint-multi", `{"from":1,"quantity":0}`},
		{"quantity over limit", "/api/v1/tokens/mint-multi", `{"from":1,"quantity":21}`},
		{"range past max id", "/api/v1/tokens/mint-multi", `{"from":18446744073709551615,"quantity":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := e.do(t, "POST", tt.path, tt.body, true)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, "INVALID_ARGUMENT", env.Code)
		})
	}
}

func TestTransactions(t *testing.T) {
	e := newAPI(t)
	status, _ := e.do(t, "POST", "/api/v1/wallet/connect", "", false)
	require.Equal(t, fiber.StatusOK, status)

	status, _ = e.do(t, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint"}`, true)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = e.do(t, "POST", "/api/v1/tokens/2/mint", `{"mode":"mint","offer":"0.0001"}`, true)
	require.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = e.do(t, "GET", "/api/v1/transactions", "", false)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env := e.do(t, "GET", "/api/v1/transactions", "", true)
	require.Equal(t, fiber.StatusOK, status)
	var txs []models.ChainTransaction
	require.NoError(t, json.Unmarshal(env.Data, &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, models.TxStatusFailed, txs[0].Status)
	assert.Equal(t, models.TxStatusConfirmed, txs[1].Status)
	assert.Equal(t, models.TxKindMintSingle, txs[1].Kind)

	status, env = e.do(t, "GET", "/api/v1/transactions/"+txs[1].ID.String(), "", true)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), txs[1].ID.String())

	status, _ = e.do(t, "GET", "/api/v1/transactions/"+uuid.NewString(), "", true)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = e.do(t, "GET", "/api/v1/transactions/nope", "", true)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestRolesLimitWrites(t *testing.T) {
	e := newAPI(t)
	status, _ := e.do(t, "POST", "/api/v1/wallet/connect", "", false)
	require.Equal(t, fiber.StatusOK, status)

	minter, err := auth.GenerateRoleJWT("test-secret", "bot", rbac.RoleMinter, time.Hour)
	require.NoError(t, err)
	auditor, err := auth.GenerateRoleJWT("test-secret", "books", rbac.RoleAuditor, time.Hour)
	require.NoError(t, err)

	call := func(token, method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := e.app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, call(minter, "POST", "/api/v1/tokens/1/mint", `{"mode":"mint"}`))
	assert.Equal(t, fiber.StatusForbidden, call(minter, "POST", "/api/v1/withdraw", ""))
	assert.Equal(t, fiber.StatusForbidden, call(auditor, "POST", "/api/v1/tokens/2/mint", `{"mode":"mint"}`))
	assert.Equal(t, fiber.StatusOK, call(auditor, "GET", "/api/v1/transactions", ""))
}
