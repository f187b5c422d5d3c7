package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/metrics"
	"github.com/fellas-token/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Snapshot is the collection as last reconciled.
type Snapshot struct {
	Connected   bool               `json:"connected"`
	Count       uint64             `json:"count"`
	BalanceWei  string             `json:"balance_wei"`
	BalanceETH  string             `json:"balance_eth"`
	SlotsAhead  int                `json:"slots_ahead"`
	Slots       []models.TokenSlot `json:"slots"`
	Failed      int                `json:"failed_checks,omitempty"`
	RefreshedAt *time.Time         `json:"refreshed_at,omitempty"`
}

type ReconcilerConfig struct {
	SlotsAhead  int
	Concurrency int
}

type slotState struct {
	state     string
	owner     string
	txHash    string
	checkedAt time.Time
}

// Reconciler owns the slot read model of one process. Ownership of every
// visible slot is checked in one pass; concurrent Refresh calls share that
// pass. Count and balance always come from the chain.
type Reconciler struct {
	gw       eth.Gateway
	wallet   eth.Connector
	tokens   TokenStore
	resolver *content.Resolver
	cfg      ReconcilerConfig
	log      *zap.Logger

	group singleflight.Group

	mu          sync.RWMutex
	count       uint64
	balance     *big.Int
	slots       map[uint64]*slotState
	failed      int
	refreshedAt time.Time
}

func NewReconciler(
	gw eth.Gateway,
	wallet eth.Connector,
	tokens TokenStore,
	resolver *content.Resolver,
	cfg ReconcilerConfig,
	log *zap.Logger,
) *Reconciler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.SlotsAhead < 0 {
		cfg.SlotsAhead = 0
	}
	return &Reconciler{
		gw:       gw,
		wallet:   wallet,
		tokens:   tokens,
		resolver: resolver,
		cfg:      cfg,
		log:      log,
		balance:  new(big.Int),
		slots:    make(map[uint64]*slotState),
	}
}

// Refresh runs (or joins) a reconciliation pass. Without a connected wallet
// nothing is queried and the cached view is returned.
func (r *Reconciler) Refresh(ctx context.Context) (Snapshot, error) {
	if !r.wallet.Connected() {
		return r.Snapshot(), nil
	}

	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		return nil, r.refresh(ctx)
	})
	metrics.ReconcileRuns.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return r.Snapshot(), err
	}
	return r.Snapshot(), nil
}

func (r *Reconciler) refresh(ctx context.Context) error {
	count, err := r.gw.Count(ctx)
	if err != nil {
		return err
	}
	balance, err := r.gw.ContractBalance(ctx)
	if err != nil {
		return err
	}

	known := r.persisted(ctx)

	total := count.Uint64() + uint64(r.cfg.SlotsAhead)
	owned := make([]bool, total+1)
	checked := make([]bool, total+1)

	var (
		failMu sync.Mutex
		failed int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for id := uint64(1); id <= total; id++ {
		uri := r.resolver.MetadataURI(id)
		if _, ok := known[uri]; ok {
			owned[id], checked[id] = true, true
			continue
		}
		g.Go(func() error {
			ok, err := r.gw.IsContentOwned(gctx, uri)
			metrics.ChainCalls.WithLabelValues("isContentOwned", metrics.Result(err)).Inc()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				r.log.Warn("ownership check failed", zap.Uint64("token_id", id), zap.Error(err))
				failMu.Lock()
				failed++
				failMu.Unlock()
				return nil
			}
			owned[id], checked[id] = ok, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count = count.Uint64()
	r.balance = balance
	r.failed = failed
	for id := uint64(1); id <= total; id++ {
		if !checked[id] {
			continue
		}
		s := r.slot(id)
		s.state = models.NextSlotState(s.state, owned[id])
		s.checkedAt = now
		if t, ok := known[r.resolver.MetadataURI(id)]; ok {
			s.owner, s.txHash = t.Owner, t.TxHash
		}
	}
	r.refreshedAt = now

	minted := 0
	for _, s := range r.slots {
		if s.state == models.SlotStateMinted {
			minted++
		}
	}
	metrics.MintedSlots.Set(float64(minted))

	r.log.Info("collection reconciled",
		zap.Uint64("count", r.count),
		zap.Uint64("slots", total),
		zap.Int("failed", failed),
	)
	return nil
}

func (r *Reconciler) persisted(ctx context.Context) map[string]models.MintedToken {
	if r.tokens == nil {
		return nil
	}
	known, err := r.tokens.MintedURIs(ctx)
	if err != nil {
		r.log.Warn("failed to load minted tokens", zap.Error(err))
		return nil
	}
	return known
}

// RefreshSlot re-queries one slot and the aggregate count, the way a view
// does after its own mint confirms.
func (r *Reconciler) RefreshSlot(ctx context.Context, id uint64) (models.TokenSlot, error) {
	if !r.wallet.Connected() {
		return r.Slot(id), nil
	}

	owned, err := r.gw.IsContentOwned(ctx, r.resolver.MetadataURI(id))
	metrics.ChainCalls.WithLabelValues("isContentOwned", metrics.Result(err)).Inc()
	if err != nil {
		return r.Slot(id), err
	}
	count, err := r.gw.Count(ctx)
	if err != nil {
		return r.Slot(id), err
	}

	r.mu.Lock()
	s := r.slot(id)
	s.state = models.NextSlotState(s.state, owned)
	s.checkedAt = time.Now()
	r.count = count.Uint64()
	r.mu.Unlock()

	return r.Slot(id), nil
}

// MarkMinted records a confirmed mint without a chain round trip. The
// aggregate count is left alone: token ids come from the contract's counter,
// not from the slot.
func (r *Reconciler) MarkMinted(id uint64, owner, txHash string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.slot(id)
	s.state = models.NextSlotState(s.state, true)
	if owner != "" {
		s.owner = owner
	}
	if txHash != "" {
		s.txHash = txHash
	}
	s.checkedAt = time.Now()
}

// SetBalance stores a freshly read contract balance.
func (r *Reconciler) SetBalance(balance *big.Int) {
	if balance == nil {
		return
	}
	r.mu.Lock()
	r.balance = new(big.Int).Set(balance)
	r.mu.Unlock()
}

// Slot returns the current view of one slot. Slots never seen are unknown.
func (r *Reconciler) Slot(id uint64) models.TokenSlot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view(id, r.slots[id])
}

// Snapshot returns the cached view: slots 1..count+SlotsAhead.
func (r *Reconciler) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := r.count + uint64(r.cfg.SlotsAhead)
	snap := Snapshot{
		Connected:  r.wallet.Connected(),
		Count:      r.count,
		BalanceWei: r.balance.String(),
		BalanceETH: eth.FormatEther(r.balance),
		SlotsAhead: r.cfg.SlotsAhead,
		Slots:      make([]models.TokenSlot, 0, total),
		Failed:     r.failed,
	}
	for id := uint64(1); id <= total; id++ {
		snap.Slots = append(snap.Slots, r.view(id, r.slots[id]))
	}
	if !r.refreshedAt.IsZero() {
		t := r.refreshedAt
		snap.RefreshedAt = &t
	}
	return snap
}

// slot must be called with mu held.
func (r *Reconciler) slot(id uint64) *slotState {
	s, ok := r.slots[id]
	if !ok {
		s = &slotState{state: models.SlotStateUnknown}
		r.slots[id] = s
	}
	return s
}

func (r *Reconciler) view(id uint64, s *slotState) models.TokenSlot {
	slot := models.TokenSlot{
		TokenID:     id,
		State:       models.SlotStateUnknown,
		MetadataURI: r.resolver.MetadataURI(id),
		ImageURI:    r.resolver.ImageURI(id),
		DisplayURI:  models.PlaceholderImage,
	}
	if s == nil {
		return slot
	}
	slot.State = s.state
	slot.Minted = s.state == models.SlotStateMinted
	if slot.Minted {
		slot.DisplayURI = slot.ImageURI
	}
	if s.owner != "" {
		owner := s.owner
		slot.Owner = &owner
	}
	if s.txHash != "" {
		h := s.txHash
		slot.MintTxHash = &h
	}
	if !s.checkedAt.IsZero() {
		t := s.checkedAt
		slot.CheckedAt = &t
	}
	return slot
}
