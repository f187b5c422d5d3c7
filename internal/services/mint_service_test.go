package services

import (
	"context"
	"math"
	"testing"

	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/events"
	"github.com/fellas-token/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintTwoSingles(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle, Offer: "0.0005"})
	require.NoError(t, err)
	require.True(t, res.OK, "mint failed: %s %s", res.Code, res.Reason)
	assert.NotEmpty(t, res.TxHash)
	assert.Equal(t, uint64(1), res.Count)
	require.NotNil(t, res.Slot)
	assert.Equal(t, models.SlotStateMinted, res.Slot.State)
	assert.Equal(t, res.Slot.ImageURI, res.Slot.DisplayURI)

	count, err := e.chain.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Int64())

	held, err := e.chain.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held.Int64())

	uri, err := e.mint.TokenURI(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/1.json", uri)

	res, err = e.mint.Mint(ctx, MintRequest{TokenID: 2, Mode: models.MintModeSingle, Offer: "0.0005"})
	require.NoError(t, err)
	require.True(t, res.OK)
	assert.Equal(t, uint64(2), res.Count)

	uri, err = e.mint.TokenURI(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/2.json", uri)

	for _, row := range e.txs.all() {
		assert.Equal(t, models.TxStatusConfirmed, row.Status)
		assert.Equal(t, models.TxKindMintSingle, row.Kind)
		require.NotNil(t, row.TxHash)
	}
	assert.Equal(t, []string{events.EventTokenMinted, events.EventTokenMinted}, e.events.types())
	assert.Len(t, e.audit.entries, 2)
}

func TestMintOutOfOrderSlot(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	_, err := e.reconciler.Refresh(ctx)
	require.NoError(t, err)

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 2, Mode: models.MintModeSingle})
	require.NoError(t, err)
	require.True(t, res.OK, "mint failed: %s %s", res.Code, res.Reason)

	count, err := e.chain.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Uint64())
	assert.Equal(t, count.Uint64(), res.Count)

	snap := e.reconciler.Snapshot()
	assert.Equal(t, count.Uint64(), snap.Count)
	require.Len(t, snap.Slots, 3)
	assert.False(t, snap.Slots[0].Minted)
	assert.True(t, snap.Slots[1].Minted)
}

func TestMintUsesDefaultOffer(t *testing.T) {
	e := newEnv(t, owner, true)

	res, err := e.mint.Mint(context.Background(), MintRequest{TokenID: 1, Mode: models.MintModeSingle})
	require.NoError(t, err)
	require.True(t, res.OK)

	rows := e.txs.all()
	require.Len(t, rows, 1)
	assert.Equal(t, ether(t, "0.0005").String(), rows[0].ValueWei)
}

func TestMintUnderpaidFails(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle, Offer: "0.0001"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, eth.CodeUnpredictableGasLimit, res.Code)
	assert.Equal(t, "Need to pay up!", res.Reason)
	assert.Error(t, res.Err())

	count, err := e.chain.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count.Int64())

	require.NotNil(t, res.Slot)
	assert.Equal(t, models.SlotStateUnminted, res.Slot.State)
	assert.Equal(t, models.PlaceholderImage, res.Slot.DisplayURI)

	rows := e.txs.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.TxStatusFailed, rows[0].Status)
	require.NotNil(t, rows[0].ErrorCode)
	assert.Equal(t, eth.CodeUnpredictableGasLimit, *rows[0].ErrorCode)
	assert.Equal(t, []string{events.EventMintFailed}, e.events.types())
	assert.Empty(t, e.audit.entries)
}

func TestWhitelistMint(t *testing.T) {
	t.Run("within quota at price", func(t *testing.T) {
		e := newEnv(t, owner, true)
		res, err := e.mint.Mint(context.Background(), MintRequest{TokenID: 1, Mode: models.MintModeWhitelist, Offer: "0.0001"})
		require.NoError(t, err)
		assert.True(t, res.OK)
	})

	t.Run("below price", func(t *testing.T) {
		e := newEnv(t, owner, true)
		res, err := e.mint.Mint(context.Background(), MintRequest{TokenID: 1, Mode: models.MintModeWhitelist, Offer: "0.00005"})
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, "Need to pay up!", res.Reason)
	})

	t.Run("quota exhausted", func(t *testing.T) {
		e := newEnv(t, owner, true)
		for i := 1; i <= 20; i++ {
			e.chain.MintExternally(stranger, e.resolver.MetadataURI(uint64(i)))
		}
		res, err := e.mint.Mint(context.Background(), MintRequest{TokenID: 21, Mode: models.MintModeWhitelist, Offer: "0.0001"})
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, "Whitelist minting is over", res.Reason)

		count, err := e.chain.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(20), count.Int64())
	})
}

func TestFreeMint(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeFree, Offer: "0"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "Only VIP can free mint", res.Reason)

	e.chain.SetVIP(owner)
	res, err = e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeFree, Offer: "0"})
	require.NoError(t, err)
	assert.True(t, res.OK)

	rows := e.txs.all()
	kinds := map[string]int{}
	for _, r := range rows {
		kinds[r.Kind+"/"+r.Status]++
	}
	assert.Equal(t, map[string]int{"free_mint/failed": 1, "free_mint/confirmed": 1}, kinds)
}

func TestMintRejectsBadInput(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	_, err := e.mint.Mint(ctx, MintRequest{TokenID: 0, Mode: models.MintModeSingle})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: "burn"})
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle, Offer: "lots"})
	assert.ErrorIs(t, err, eth.ErrInvalidAmount)

	_, err = e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle, To: "nope"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	assert.Empty(t, e.txs.all(), "nothing should be submitted")
}

func TestMintAlreadyMinted(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle})
	require.NoError(t, err)
	require.True(t, res.OK)

	_, err = e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle})
	assert.ErrorIs(t, err, ErrAlreadyMinted)
}

func TestMintWithoutWallet(t *testing.T) {
	e := newEnv(t, owner, false)
	ctx := context.Background()

	_, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle})
	assert.ErrorIs(t, err, eth.ErrWalletUnavailable)

	_, err = e.mint.TokenURI(ctx, 1)
	assert.ErrorIs(t, err, eth.ErrWalletUnavailable)

	slot, err := e.mint.Slot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SlotStateUnknown, slot.State)
	assert.Empty(t, e.chain.Calls)
}

func TestMintMulti(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.MintMulti(ctx, MintMultiRequest{From: 1, Quantity: 5})
	require.NoError(t, err)
	require.True(t, res.OK, "mint failed: %s %s", res.Code, res.Reason)
	assert.Equal(t, uint64(5), res.Count)
	require.Len(t, res.Slots, 5)
	for _, s := range res.Slots {
		assert.True(t, s.Minted, "slot %d", s.TokenID)
	}

	held, err := e.chain.BalanceOf(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(5), held.Int64())

	uri, err := e.mint.TokenURI(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/1.json", uri)

	bal, err := e.chain.ContractBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.0025", eth.FormatEther(bal))
	assert.Len(t, e.events.types(), 5)
}

func TestMintMultiUnderpaid(t *testing.T) {
	e := newEnv(t, owner, true)

	res, err := e.mint.MintMulti(context.Background(), MintMultiRequest{From: 1, Quantity: 3, Offer: "0.001"})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, "Need to pay up!", res.Reason)
	require.Len(t, res.Slots, 3)
	for _, s := range res.Slots {
		assert.False(t, s.Minted)
		assert.Equal(t, models.SlotStateUnminted, s.State)
	}
	assert.Equal(t, []string{events.EventMintFailed}, e.events.types())
	e.events.mu.Lock()
	payload := e.events.events[0].Payload
	e.events.mu.Unlock()
	assert.Equal(t, 3, payload["quantity"])
	assert.Equal(t, eth.CodeUnpredictableGasLimit, payload["code"])
}

func TestMintMultiValidation(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	_, err := e.mint.MintMulti(ctx, MintMultiRequest{From: 0, Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = e.mint.MintMulti(ctx, MintMultiRequest{From: 1, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.mint.MintMulti(ctx, MintMultiRequest{From: 1, Quantity: 21})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.mint.MintMulti(ctx, MintMultiRequest{From: 1, Quantity: 1 << 40})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.mint.MintMulti(ctx, MintMultiRequest{From: math.MaxUint64, Quantity: 2})
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Empty(t, e.txs.all())

	e.reconciler.MarkMinted(2, owner.Hex(), "")
	_, err = e.mint.MintMulti(ctx, MintMultiRequest{From: 1, Quantity: 3})
	assert.ErrorIs(t, err, ErrAlreadyMinted)
}

func TestMintToRecipient(t *testing.T) {
	e := newEnv(t, owner, true)
	ctx := context.Background()

	res, err := e.mint.Mint(ctx, MintRequest{TokenID: 1, Mode: models.MintModeSingle, To: stranger.Hex()})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.NotNil(t, res.Slot.Owner)
	assert.Equal(t, stranger.Hex(), *res.Slot.Owner)

	held, err := e.chain.BalanceOf(ctx, stranger)
	require.NoError(t, err)
	assert.Equal(t, int64(1), held.Int64())
}

func TestMintRevertedOnChain(t *testing.T) {
	e := newEnv(t, owner, true)
	e.chain.RevertOnMine = true

	res, err := e.mint.Mint(context.Background(), MintRequest{TokenID: 1, Mode: models.MintModeSingle})
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, eth.CodeCallException, res.Code)
	assert.NotEmpty(t, res.TxHash)

	rows := e.txs.all()
	require.Len(t, rows, 1)
	assert.Equal(t, models.TxStatusFailed, rows[0].Status)
	require.NotNil(t, rows[0].TxHash)
	assert.Equal(t, res.TxHash, *rows[0].TxHash)
}
