package tests

import (
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

func TestVaultDeposit(t *testing.T) {
	f := newVaultFixture(t)
	acc := f.e.NewAccount(t)
	f.mint(t, acc.ScriptHash(), 10_000)

	f.vault.Invoke(t, "LOCK", "symbol")
	f.vault.Invoke(t, 0, "decimals")
	f.vault.Invoke(t, 0, "totalSupply")

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc, 1, 1000, unlock)

	f.token.Invoke(t, 9000, "balanceOf", acc.ScriptHash())
	f.token.Invoke(t, 1000, "balanceOf", f.vaultHash)
	f.vault.Invoke(t, 1000, "poolBalance", f.tokenHash)
	f.vault.Invoke(t, baseUnit, "totalShares", f.tokenHash)
	f.vault.Invoke(t, baseUnit, "sharesOf", acc.ScriptHash(), f.tokenHash)

	f.vault.Invoke(t, 1, "totalSupply")
	f.vault.Invoke(t, 1, "balanceOf", acc.ScriptHash())
	f.vault.Invoke(t, stackitem.NewByteArray(acc.ScriptHash().BytesBE()), "ownerOf", []byte("1"))

	expected := stackitem.NewMapWithValue([]stackitem.MapElement{
		{Key: stackitem.Make("shares"), Value: stackitem.Make(baseUnit)},
		{Key: stackitem.Make("token"), Value: stackitem.NewByteArray(f.tokenHash.BytesBE())},
		{Key: stackitem.Make("unlockTime"), Value: stackitem.Make(unlock)}})
	s, err := f.vault.TestInvoke(t, "properties", []byte("1"))
	require.NoError(t, err)
	require.Equal(t, expected.Value(), s.Top().Item().Value())

	// The second deposit is priced against the post-deposit pool: 500 out
	// of 1500 is a third of the pool, a half of the original stake.
	f.deposit(t, acc, 2, 500, unlock)
	shares2 := expectedIssue(baseUnit, 500, 1500)
	require.InDelta(t, float64(baseUnit)/2, float64(shares2), 2)
	f.vault.Invoke(t, baseUnit+shares2, "totalShares", f.tokenHash)
	f.vault.Invoke(t, baseUnit+shares2, "sharesOf", acc.ScriptHash(), f.tokenHash)
	f.vault.Invoke(t, 2, "totalSupply")

	s, err = f.vault.TestInvoke(t, "tokens")
	require.NoError(t, err)
	items := iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 2)
	require.Equal(t, []byte("1"), items[0].Value())
	require.Equal(t, []byte("2"), items[1].Value())

	s, err = f.vault.TestInvoke(t, "tokensOf", acc.ScriptHash())
	require.NoError(t, err)
	items = iteratorToArray(s.Pop().Value().(*storage.Iterator))
	require.Len(t, items, 2)

	t.Run("no witness", func(t *testing.T) {
		stranger := f.e.NewAccount(t)
		f.vault.WithSigners(stranger).InvokeFail(t, "owner witness check failed", "deposit",
			acc.ScriptHash(), acc.ScriptHash(), 100, f.tokenHash, unlock)
	})
	t.Run("insufficient balance", func(t *testing.T) {
		f.vault.WithSigners(acc).InvokeFail(t, "token transfer failed", "deposit",
			acc.ScriptHash(), acc.ScriptHash(), 100_000, f.tokenHash, unlock)
	})
	t.Run("bad arguments", func(t *testing.T) {
		cAcc := f.vault.WithSigners(acc)
		cAcc.InvokeFail(t, "deposit: invalid token address", "deposit",
			acc.ScriptHash(), acc.ScriptHash(), 100, []byte{1, 2, 3}, unlock)
		cAcc.InvokeFail(t, "deposit: invalid holder address", "deposit",
			acc.ScriptHash(), []byte{1, 2, 3}, 100, f.tokenHash, unlock)
		cAcc.InvokeFail(t, "deposit: negative amount", "deposit",
			acc.ScriptHash(), acc.ScriptHash(), -1, f.tokenHash, unlock)
	})
}

func TestVaultRedeem(t *testing.T) {
	f := newVaultFixture(t)
	acc := f.e.NewAccount(t)
	f.mint(t, acc.ScriptHash(), 10_000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc, 1, 1000, unlock)
	vaultAcc := f.vault.WithSigners(acc)

	vaultAcc.InvokeFail(t, "lock is not redeemable", "redeem", []byte("1"))

	warpTime(t, f.e, uint64(unlock))
	vaultAcc.Invoke(t, true, "redeem", []byte("1"))

	f.token.Invoke(t, 10_000, "balanceOf", acc.ScriptHash())
	f.vault.Invoke(t, 0, "totalSupply")
	f.vault.Invoke(t, 0, "totalShares", f.tokenHash)
	f.vault.Invoke(t, 0, "balanceOf", acc.ScriptHash())
	f.vault.Invoke(t, 0, "poolBalance", f.tokenHash)

	// Burnt ids are gone for good.
	vaultAcc.InvokeFail(t, "lock is not redeemable", "redeem", []byte("1"))
	f.vault.InvokeFail(t, "unknown claim token", "ownerOf", []byte("1"))
	f.vault.InvokeFail(t, "unknown claim token", "properties", []byte("1"))
	vaultAcc.InvokeFail(t, "lock is not redeemable", "redeem", []byte("99"))

	t.Run("exact unlock time", func(t *testing.T) {
		unlock2 := int64(f.e.TopBlock(t).Timestamp) + 50_000
		f.deposit(t, acc, 2, 1000, unlock2)

		warpTime(t, f.e, uint64(unlock2)-2) // the next invocation runs with +1 timestamp
		vaultAcc.InvokeFail(t, "lock is not redeemable", "redeem", []byte("2"))
		// Redemption is gated strictly, the unlock instant itself is
		// still locked.
		vaultAcc.InvokeFail(t, "lock is not redeemable", "redeem", []byte("2"))
		vaultAcc.Invoke(t, true, "redeem", []byte("2"))
	})
}

func TestVaultProRataPayout(t *testing.T) {
	f := newVaultFixture(t)
	acc1 := f.e.NewAccount(t)
	acc2 := f.e.NewAccount(t)
	f.mint(t, acc1.ScriptHash(), 10_000)
	f.mint(t, acc2.ScriptHash(), 500)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc1, 1, 1000, unlock)
	f.vault.Invoke(t, 1000, "redeemableBalance", []byte("1"))

	// A pure deposit must not devalue previously issued shares.
	f.deposit(t, acc2, 2, 500, unlock)
	shares2 := expectedIssue(baseUnit, 500, 1500)
	f.vault.Invoke(t, 1000, "redeemableBalance", []byte("1"))
	f.vault.Invoke(t, expectedPayout(1500, shares2, baseUnit+shares2), "redeemableBalance", []byte("2"))
	f.vault.Invoke(t, baseUnit+shares2, "totalShares", f.tokenHash)

	warpTime(t, f.e, uint64(unlock))
	f.vault.WithSigners(acc1).Invoke(t, true, "redeem", []byte("1"))
	f.token.Invoke(t, 10_000, "balanceOf", acc1.ScriptHash())

	f.vault.Invoke(t, shares2, "totalShares", f.tokenHash)
	f.vault.Invoke(t, 500, "redeemableBalance", []byte("2"))
	f.vault.WithSigners(acc2).Invoke(t, true, "redeem", []byte("2"))
	f.token.Invoke(t, 500, "balanceOf", acc2.ScriptHash())

	f.vault.Invoke(t, 0, "totalShares", f.tokenHash)
	f.vault.Invoke(t, 0, "poolBalance", f.tokenHash)
}

func TestVaultExternalInflow(t *testing.T) {
	f := newVaultFixture(t)
	acc1 := f.e.NewAccount(t)
	acc2 := f.e.NewAccount(t)
	f.mint(t, acc1.ScriptHash(), 10_000)
	f.mint(t, acc2.ScriptHash(), 500)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc1, 1, 1000, unlock)

	// A plain NEP-17 transfer into the vault mints nothing and raises the
	// price of every issued share.
	f.token.WithSigners(acc1).Invoke(t, true, "transfer",
		acc1.ScriptHash(), f.vaultHash, 500, nil)
	f.vault.Invoke(t, baseUnit, "totalShares", f.tokenHash)
	f.vault.Invoke(t, 1500, "redeemableBalance", []byte("1"))

	// The next depositor buys in at the appreciated price.
	f.deposit(t, acc2, 2, 500, unlock)
	shares2 := expectedIssue(baseUnit, 500, 2000)
	f.vault.Invoke(t, baseUnit+shares2, "totalShares", f.tokenHash)
	f.vault.Invoke(t, expectedPayout(2000, shares2, baseUnit+shares2), "redeemableBalance", []byte("2"))

	warpTime(t, f.e, uint64(unlock))
	f.vault.WithSigners(acc2).Invoke(t, true, "redeem", []byte("2"))
	// Conversion rounds down, a unit of dust stays pooled for the last
	// share holder.
	f.token.Invoke(t, 499, "balanceOf", acc2.ScriptHash())
	f.vault.Invoke(t, 1501, "redeemableBalance", []byte("1"))
}

func TestVaultZeroAmountDeposit(t *testing.T) {
	f := newVaultFixture(t)
	acc := f.e.NewAccount(t)
	f.mint(t, acc.ScriptHash(), 10_000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc, 1, 1000, unlock)

	// Zero against a live pool is a zero-share claim that can never be
	// redeemed.
	f.deposit(t, acc, 2, 0, unlock)
	f.vault.Invoke(t, baseUnit, "totalShares", f.tokenHash)
	f.vault.Invoke(t, 0, "redeemableBalance", []byte("2"))

	warpTime(t, f.e, uint64(unlock))
	f.vault.WithSigners(acc).InvokeFail(t, "lock is not redeemable", "redeem", []byte("2"))
	f.vault.WithSigners(acc).Invoke(t, true, "redeem", []byte("1"))

	t.Run("first deposit of empty pool", func(t *testing.T) {
		g := newVaultFixture(t)
		acc := g.e.NewAccount(t)
		g.mint(t, acc.ScriptHash(), 100)
		unlock := int64(g.e.TopBlock(t).Timestamp) + msPerHour
		g.deposit(t, acc, 1, 0, unlock)
		g.vault.Invoke(t, baseUnit, "totalShares", g.tokenHash)
		g.vault.Invoke(t, 0, "redeemableBalance", []byte("1"))

		// Live shares with no pool behind them can not price the next
		// deposit, it fails by name instead of faulting mid-division.
		g.vault.WithSigners(acc).InvokeFail(t, "deposit: no pool balance", "deposit",
			acc.ScriptHash(), acc.ScriptHash(), 100, g.tokenHash, unlock)
	})
}

func TestVaultClaimTokenTransfer(t *testing.T) {
	f := newVaultFixture(t)
	acc1 := f.e.NewAccount(t)
	acc2 := f.e.NewAccount(t)
	f.mint(t, acc1.ScriptHash(), 10_000)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc1, 1, 1000, unlock)

	f.vault.WithSigners(acc2).Invoke(t, false, "transfer", acc2.ScriptHash(), []byte("1"), nil)
	f.vault.WithSigners(acc1).InvokeFail(t, "invalid receiver", "transfer", []byte{1, 2}, []byte("1"), nil)
	f.vault.WithSigners(acc1).InvokeFail(t, "unknown claim token", "transfer", acc2.ScriptHash(), []byte("99"), nil)

	// Self-transfer is a no-op.
	f.vault.WithSigners(acc1).Invoke(t, true, "transfer", acc1.ScriptHash(), []byte("1"), nil)
	f.vault.Invoke(t, 1, "balanceOf", acc1.ScriptHash())

	f.vault.WithSigners(acc1).Invoke(t, true, "transfer", acc2.ScriptHash(), []byte("1"), nil)
	f.vault.Invoke(t, stackitem.NewByteArray(acc2.ScriptHash().BytesBE()), "ownerOf", []byte("1"))
	f.vault.Invoke(t, 0, "balanceOf", acc1.ScriptHash())
	f.vault.Invoke(t, 1, "balanceOf", acc2.ScriptHash())

	warpTime(t, f.e, uint64(unlock))
	// Redemption right moved with the token.
	f.vault.WithSigners(acc1).InvokeFail(t, "owner witness check failed", "redeem", []byte("1"))
	f.vault.WithSigners(acc2).Invoke(t, true, "redeem", []byte("1"))
	f.token.Invoke(t, 1000, "balanceOf", acc2.ScriptHash())

	// The aggregate per-account view does not follow transfers: the
	// depositor stays credited, the redeemer goes negative.
	f.vault.Invoke(t, baseUnit, "sharesOf", acc1.ScriptHash(), f.tokenHash)
	f.vault.Invoke(t, -baseUnit, "sharesOf", acc2.ScriptHash(), f.tokenHash)
	// Lock records are authoritative and they are all gone.
	f.vault.Invoke(t, 0, "totalShares", f.tokenHash)
}

func TestVaultReentrancy(t *testing.T) {
	f := newVaultFixture(t)
	acc := f.e.NewAccount(t)
	f.mint(t, acc.ScriptHash(), 10_000)
	vaultAcc := f.vault.WithSigners(acc)

	unlock := int64(f.e.TopBlock(t).Timestamp) + msPerHour
	f.deposit(t, acc, 1, 1000, unlock)

	// Armed token re-enters the vault during the deposit pull.
	f.token.Invoke(t, stackitem.Null{}, "setProbe", f.vaultHash, "redeem", []byte("1"))
	vaultAcc.InvokeFail(t, "reentrant call", "deposit",
		acc.ScriptHash(), acc.ScriptHash(), 500, f.tokenHash, unlock)

	f.token.Invoke(t, stackitem.Null{}, "setProbe", []byte{}, "", []byte{})
	f.deposit(t, acc, 2, 500, unlock)

	// Same through the redemption payout.
	warpTime(t, f.e, uint64(unlock))
	f.token.Invoke(t, stackitem.Null{}, "setProbe", f.vaultHash, "redeem", []byte("2"))
	vaultAcc.InvokeFail(t, "reentrant call", "redeem", []byte("1"))

	f.token.Invoke(t, stackitem.Null{}, "setProbe", []byte{}, "", []byte{})
	vaultAcc.Invoke(t, true, "redeem", []byte("1"))
}

func TestVaultBaseURI(t *testing.T) {
	f := newVaultFixture(t)

	f.vault.Invoke(t, "", "baseURI")
	f.vault.Invoke(t, stackitem.Null{}, "setBaseURI", "https://vault.example.com/claims/")
	f.vault.Invoke(t, "https://vault.example.com/claims/", "baseURI")

	acc := f.e.NewAccount(t)
	f.vault.WithSigners(acc).InvokeFail(t, "only committee can set base URI", "setBaseURI", "x")
}
