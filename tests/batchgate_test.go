package tests

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestBatchCreate(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)
	gateAdmin := f.gate.WithSigners(admin)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour

	t.Run("bad arguments", func(t *testing.T) {
		gateAdmin.InvokeFail(t, "createBatch: invalid token address", "createBatch",
			admin.ScriptHash(), util.Uint160{}, 90, 30, unlock, f.vaultHash, []any{}, nil)
		gateAdmin.InvokeFail(t, "createBatch: invalid locker address", "createBatch",
			admin.ScriptHash(), f.tokenHash, 90, 30, unlock, util.Uint160{}, []any{}, nil)
		gateAdmin.InvokeFail(t, "createBatch: invalid gating token address", "createBatch",
			admin.ScriptHash(), f.tokenHash, 90, 30, unlock, f.vaultHash, []any{}, []byte{1, 2})
		gateAdmin.InvokeFail(t, "createBatch: invalid unlock date", "createBatch",
			admin.ScriptHash(), f.tokenHash, 90, 30, int64(f.e.TopBlock(t).Timestamp)-1000,
			f.vaultHash, []any{}, nil)
		gateAdmin.InvokeFail(t, "createBatch: invalid division of total amount", "createBatch",
			admin.ScriptHash(), f.tokenHash, 100, 30, unlock, f.vaultHash, []any{}, nil)
		gateAdmin.InvokeFail(t, "createBatch: invalid division of total amount", "createBatch",
			admin.ScriptHash(), f.tokenHash, 90, 0, unlock, f.vaultHash, []any{}, nil)
		gateAdmin.InvokeFail(t, "createBatch: invalid division of total amount", "createBatch",
			admin.ScriptHash(), f.tokenHash, 0, 30, unlock, f.vaultHash, []any{}, nil)
	})
	t.Run("no witness", func(t *testing.T) {
		stranger := f.e.NewAccount(t)
		f.gate.WithSigners(stranger).InvokeFail(t, "owner witness check failed", "createBatch",
			admin.ScriptHash(), f.tokenHash, 90, 30, unlock, f.vaultHash, []any{}, nil)
	})
	t.Run("insufficient escrow", func(t *testing.T) {
		poor := f.e.NewAccount(t)
		f.gate.WithSigners(poor).InvokeFail(t, "token transfer failed", "createBatch",
			poor.ScriptHash(), f.tokenHash, 90, 30, unlock, f.vaultHash, []any{}, nil)
	})

	w1 := f.e.NewAccount(t)
	f.createBatch(t, admin, 1, 90, 30, unlock, []any{w1.ScriptHash()}, nil)

	f.token.Invoke(t, 910, "balanceOf", admin.ScriptHash())
	f.token.Invoke(t, 90, "balanceOf", f.gateHash)
	f.gate.Invoke(t, 1, "batchCount")
	f.gate.Invoke(t, true, "isWhitelisted", 1, w1.ScriptHash())
	f.gate.Invoke(t, false, "claimed", 1, w1.ScriptHash())
	require.EqualValues(t, 90, f.batchRemaining(t, 1))

	s, err := f.gate.TestInvoke(t, "batches")
	require.NoError(t, err)
	items := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 1)
}

func TestBatchClaimWhitelist(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	w1 := f.e.NewAccount(t)
	w2 := f.e.NewAccount(t)
	w3 := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.createBatch(t, admin, 1, 90, 30, unlock,
		[]any{w1.ScriptHash(), w2.ScriptHash()}, nil)

	f.gate.WithSigners(w1).Invoke(t, stackitem.Null{}, "claim", w1.ScriptHash(), 1)

	// The claimed increment became a time-locked claim token in the vault.
	f.vault.Invoke(t, stackitem.NewByteArray(w1.ScriptHash().BytesBE()), "ownerOf", []byte("1"))
	f.vault.Invoke(t, 30, "redeemableBalance", []byte("1"))
	f.vault.Invoke(t, 30, "poolBalance", f.tokenHash)
	f.vault.Invoke(t, baseUnit, "totalShares", f.tokenHash)
	expected := stackitem.NewMapWithValue([]stackitem.MapElement{
		{Key: stackitem.Make("shares"), Value: stackitem.Make(baseUnit)},
		{Key: stackitem.Make("token"), Value: stackitem.NewByteArray(f.tokenHash.BytesBE())},
		{Key: stackitem.Make("unlockTime"), Value: stackitem.Make(unlock)}})
	s, err := f.vault.TestInvoke(t, "properties", []byte("1"))
	require.NoError(t, err)
	require.Equal(t, expected.Value(), s.Top().Item().Value())

	f.token.Invoke(t, 60, "balanceOf", f.gateHash)
	f.gate.Invoke(t, true, "claimed", 1, w1.ScriptHash())
	require.EqualValues(t, 60, f.batchRemaining(t, 1))

	t.Run("no witness", func(t *testing.T) {
		f.gate.WithSigners(w1).InvokeFail(t, "owner witness check failed", "claim", w2.ScriptHash(), 1)
	})

	f.gate.WithSigners(w1).InvokeFail(t, "already claimed", "claim", w1.ScriptHash(), 1)
	f.gate.WithSigners(w3).InvokeFail(t, "not eligible for this batch", "claim", w3.ScriptHash(), 1)

	// Whitelist edits are admin-only and claim marks survive them.
	f.gate.WithSigners(w1).InvokeFail(t, "admin witness check failed",
		"addToWhitelist", 1, []any{w3.ScriptHash()})
	f.gate.WithSigners(admin).Invoke(t, stackitem.Null{}, "removeFromWhitelist", 1, []any{w2.ScriptHash()})
	f.gate.WithSigners(w2).InvokeFail(t, "not eligible for this batch", "claim", w2.ScriptHash(), 1)
	f.gate.WithSigners(admin).Invoke(t, stackitem.Null{}, "addToWhitelist", 1, []any{w1.ScriptHash()})
	f.gate.WithSigners(w1).InvokeFail(t, "already claimed", "claim", w1.ScriptHash(), 1)

	f.gate.WithSigners(admin).Invoke(t, stackitem.Null{}, "addToWhitelist", 1, []any{w3.ScriptHash()})
	f.gate.WithSigners(w3).Invoke(t, stackitem.Null{}, "claim", w3.ScriptHash(), 1)

	// Equal increments against a doubled pool halve into equal shares.
	shares2 := expectedIssue(baseUnit, 30, 60)
	require.Equal(t, baseUnit, shares2)
	f.vault.Invoke(t, 30, "redeemableBalance", []byte("2"))

	// End to end: the claimant redeems the vault lock after the unlock
	// date.
	warpTime(t, f.e, uint64(unlock))
	f.vault.WithSigners(w1).Invoke(t, true, "redeem", []byte("1"))
	f.token.Invoke(t, 30, "balanceOf", w1.ScriptHash())
}

func TestBatchClaimGatingToken(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	holder := f.e.NewAccount(t)
	outsider := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)
	f.mint(t, holder.ScriptHash(), 100)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	// A direct vault deposit gives holder a claim token; the vault itself
	// serves as the gating asset, any live claim token qualifies.
	f.deposit(t, holder, 1, 10, unlock)
	f.createBatch(t, admin, 1, 90, 30, unlock, []any{}, f.vaultHash)

	f.gate.WithSigners(outsider).InvokeFail(t, "not eligible for this batch",
		"claim", outsider.ScriptHash(), 1)
	f.gate.WithSigners(holder).Invoke(t, stackitem.Null{}, "claim", holder.ScriptHash(), 1)

	f.vault.Invoke(t, stackitem.NewByteArray(holder.ScriptHash().BytesBE()), "ownerOf", []byte("2"))
	// The claimed increment is priced against the live pool and dilutes
	// nobody.
	shares2 := expectedIssue(baseUnit, 30, 40)
	f.vault.Invoke(t, expectedPayout(40, shares2, baseUnit+shares2), "redeemableBalance", []byte("2"))
	f.vault.Invoke(t, 10, "redeemableBalance", []byte("1"))

	f.gate.WithSigners(holder).InvokeFail(t, "already claimed", "claim", holder.ScriptHash(), 1)
}

func TestBatchExhaustion(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)

	w1 := f.e.NewAccount(t)
	w2 := f.e.NewAccount(t)
	w3 := f.e.NewAccount(t)
	w4 := f.e.NewAccount(t)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.createBatch(t, admin, 1, 90, 30, unlock,
		[]any{w1.ScriptHash(), w2.ScriptHash(), w3.ScriptHash(), w4.ScriptHash()}, nil)

	f.gate.WithSigners(w1).Invoke(t, stackitem.Null{}, "claim", w1.ScriptHash(), 1)
	f.gate.WithSigners(w2).Invoke(t, stackitem.Null{}, "claim", w2.ScriptHash(), 1)
	f.gate.WithSigners(w3).Invoke(t, stackitem.Null{}, "claim", w3.ScriptHash(), 1)

	// The third claim drained the batch and erased its record.
	f.token.Invoke(t, 0, "balanceOf", f.gateHash)
	f.gate.InvokeFail(t, "unknown batch", "getBatch", 1)
	f.gate.WithSigners(w4).InvokeFail(t, "no remaining allocation", "claim", w4.ScriptHash(), 1)

	s, err := f.gate.TestInvoke(t, "batches")
	require.NoError(t, err)
	items := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 0)

	// History outlives the batch.
	f.gate.Invoke(t, 1, "batchCount")
	f.gate.Invoke(t, true, "claimed", 1, w1.ScriptHash())
	f.gate.Invoke(t, true, "isWhitelisted", 1, w4.ScriptHash())
}

func TestBatchCancel(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	w1 := f.e.NewAccount(t)
	w2 := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.createBatch(t, admin, 1, 90, 30, unlock,
		[]any{w1.ScriptHash(), w2.ScriptHash()}, nil)
	f.gate.WithSigners(w1).Invoke(t, stackitem.Null{}, "claim", w1.ScriptHash(), 1)

	f.gate.WithSigners(w2).InvokeFail(t, "admin witness check failed", "cancelBatch", 1)

	f.gate.WithSigners(admin).Invoke(t, stackitem.Null{}, "cancelBatch", 1)
	f.token.Invoke(t, 970, "balanceOf", admin.ScriptHash())
	f.token.Invoke(t, 0, "balanceOf", f.gateHash)

	// A cancelled batch is indistinguishable from an exhausted one.
	f.gate.WithSigners(w2).InvokeFail(t, "no remaining allocation", "claim", w2.ScriptHash(), 1)
	f.gate.WithSigners(admin).InvokeFail(t, "unknown batch", "cancelBatch", 1)
	f.gate.WithSigners(admin).InvokeFail(t, "unknown batch", "addToWhitelist", 1, []any{w2.ScriptHash()})

	// Ids are not reused after cancellation.
	f.createBatch(t, admin, 2, 60, 30, unlock, []any{w2.ScriptHash()}, nil)
	f.gate.Invoke(t, 2, "batchCount")
	f.gate.WithSigners(w2).Invoke(t, stackitem.Null{}, "claim", w2.ScriptHash(), 2)
	f.gate.Invoke(t, false, "claimed", 1, w2.ScriptHash())
	f.gate.Invoke(t, true, "claimed", 2, w2.ScriptHash())
}

func TestBatchReentrancy(t *testing.T) {
	f := newGateFixture(t)
	admin := f.e.NewAccount(t)
	w1 := f.e.NewAccount(t)
	f.mint(t, admin.ScriptHash(), 1000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.createBatch(t, admin, 1, 90, 30, unlock, []any{w1.ScriptHash()}, nil)

	// Armed token re-enters the gate during the claim push.
	f.token.Invoke(t, stackitem.Null{}, "setProbe", f.gateHash, "cancelBatch", []byte{1})
	f.gate.WithSigners(w1).InvokeFail(t, "reentrant call", "claim", w1.ScriptHash(), 1)

	f.token.Invoke(t, stackitem.Null{}, "setProbe", []byte{}, "", []byte{})
	f.gate.WithSigners(w1).Invoke(t, stackitem.Null{}, "claim", w1.ScriptHash(), 1)
}
