package vault

import (
	"github.com/lockvault/lockvault-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// LockState stores one time-locked claim. The record is created once on
// deposit, read on redemption and deleted on redemption. Lock ids grow
// monotonically and are never reused, so a deleted id can not be mistaken
// for a live one.
type LockState struct {
	// Current owner of the claim token.
	Owner interop.Hash160
	// Share quantity in baseUnit scale.
	Shares int
	// Pooled token this lock is priced against.
	Token interop.Hash160
	// Unlock timestamp in milliseconds, must be strictly in the past
	// at redemption time.
	UnlockTime int
}

// Prefixes used for contract data storage.
const (
	// prefixTotalShares contains map from pooled token to the total share
	// count of its pool.
	prefixTotalShares byte = 0x01
	// prefixHolderShares contains map from (account + pooled token) to an
	// advisory aggregate share count. It is credited to the depositing
	// account and debited from the redeeming owner, which need not be the
	// same account, so this view is not authoritative; lock records are.
	prefixHolderShares byte = 0x02
	// prefixLock contains map from token ID to serialized LockState.
	prefixLock byte = 0x03
	// prefixBalance contains map from the owner to their claim token count.
	prefixBalance byte = 0x04
	// prefixAccountToken contains map from (owner + token ID) to token ID.
	prefixAccountToken byte = 0x05
)

// Keys used for contract data storage.
const (
	totalSupplyKey = "totalSupply"
	lockCounterKey = "lockCounter"
	baseURIKey     = "baseURI"
)

// Share arithmetic scale.
const (
	// shareDecimals is the fixed-point precision of share quantities.
	shareDecimals = 12
	// baseUnit is "1.0" in the share scale; the first deposit of a pool
	// always mints exactly baseUnit shares.
	baseUnit = 1_0000_0000_0000
	// precisionUnit adds one extra digit to ownership-fraction divisions
	// to reduce rounding bias.
	precisionUnit = baseUnit * 10
)

// Error messages thrown by the contract.
const (
	// ErrNotRedeemable appears when the lock is still time-locked, was
	// already redeemed or never existed.
	ErrNotRedeemable = "lock is not redeemable"
	// ErrUnknownToken appears on queries for a claim token that was never
	// minted or is already burnt.
	ErrUnknownToken = "unknown claim token"
)

func _deploy(data interface{}, isUpdate bool) {
	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	ctx := storage.GetContext()
	storage.Put(ctx, totalSupplyKey, 0)
	storage.Put(ctx, lockCounterKey, 0)

	runtime.Log("vault contract initialized")
}

// Update method updates contract source code and manifest. Can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data interface{}) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("vault contract updated")
}

// Symbol is a NEP-11 standard method that returns the claim token symbol.
func Symbol() string {
	return "LOCK"
}

// Decimals is a NEP-11 standard method that returns token precision. Claim
// tokens are indivisible.
func Decimals() int {
	return 0
}

// TotalSupply is a NEP-11 standard method that returns the number of live
// claim tokens.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, totalSupplyKey)
}

// OwnerOf is a NEP-11 standard method that returns the owner of the claim
// token. Panics for burnt or never minted ids.
func OwnerOf(tokenID []byte) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	lock := getLock(ctx, tokenID)
	return lock.Owner
}

// BalanceOf is a NEP-11 standard method that returns the number of claim
// tokens owned by the specified account.
func BalanceOf(owner interop.Hash160) int {
	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, append([]byte{prefixBalance}, owner...))
}

// Tokens is a NEP-11 standard method that returns an iterator over ids of
// all live claim tokens.
func Tokens() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{prefixLock}, storage.KeysOnly|storage.RemovePrefix)
}

// TokensOf is a NEP-11 standard method that returns an iterator over ids of
// claim tokens owned by the specified account.
func TokensOf(owner interop.Hash160) iterator.Iterator {
	if len(owner) != interop.Hash160Len {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, append([]byte{prefixAccountToken}, owner...), storage.ValuesOnly)
}

// Properties is a NEP-11 standard method that returns share quantity, pooled
// token and unlock time of the claim token.
func Properties(tokenID []byte) map[string]interface{} {
	ctx := storage.GetReadOnlyContext()
	lock := getLock(ctx, tokenID)
	return map[string]interface{}{
		"shares":     lock.Shares,
		"token":      lock.Token,
		"unlockTime": lock.UnlockTime,
	}
}

// Transfer is a NEP-11 standard method that transfers the claim token, and
// the redemption right it carries, to a new owner. Can be invoked only by
// the current owner. The advisory holder view is NOT moved with the token:
// the depositor stays credited and the new owner will be debited on
// redemption.
func Transfer(to interop.Hash160, tokenID []byte, data interface{}) bool {
	if len(to) != interop.Hash160Len {
		panic("invalid receiver")
	}
	ctx := storage.GetContext()
	lock := getLock(ctx, tokenID)
	from := lock.Owner
	if !runtime.CheckWitness(from) {
		return false
	}
	if !common.BytesEqual(from, to) {
		lock.Owner = to
		putLock(ctx, tokenID, lock)
		updateBalance(ctx, tokenID, from, -1)
		updateBalance(ctx, tokenID, to, +1)
	}
	postTransfer(from, to, tokenID, data)
	return true
}

// Deposit pulls amount of token from the depositor into the pool, issues
// shares priced against the post-deposit pool balance, records a lock and
// mints a claim token for holder. Returns the new lock id; its decimal
// string form is the NEP-11 token ID.
//
// Can be invoked by the witnessed owner of `from` or by a calling contract
// passing itself as `from`. NEP-17 has no allowance mechanism, so a calling
// contract must transfer the funds to the vault within the same transaction
// before invoking Deposit; the pull is skipped in that case. Either way the
// pool balance is read after the transfer and before any further external
// call.
//
// The advisory holder view is credited to `from`, not to holder. A zero
// amount is allowed and yields zero shares, producing a claim that can
// never be redeemed.
//
// Produces CreateLock and Transfer notifications.
func Deposit(from, holder interop.Hash160, amount int, token interop.Hash160, unlockTime int) int {
	ctx := storage.GetContext()
	common.LockGuard(ctx)

	if len(token) != interop.Hash160Len {
		panic("deposit: invalid token address")
	}
	if len(holder) != interop.Hash160Len {
		panic("deposit: invalid holder address")
	}
	if amount < 0 {
		panic("deposit: negative amount")
	}

	self := runtime.GetExecutingScriptHash()
	if common.BytesEqual(runtime.GetCallingScriptHash(), from) {
		// The calling contract has pushed the funds already, there is
		// no way to pull them from here.
	} else {
		common.CheckOwnerWitness(from)
		common.TransferIn(token, from, self, amount)
	}
	poolAfter := common.BalanceOf(token, self)

	shares := issueShares(ctx, token, amount, poolAfter)
	putTotalShares(ctx, token, totalShares(ctx, token)+shares)
	putHolderShares(ctx, from, token, holderShares(ctx, from, token)+shares)

	id := common.GetInt(ctx, lockCounterKey) + 1
	storage.Put(ctx, lockCounterKey, id)
	tokenID := []byte(std.Itoa(id, 10))

	putLock(ctx, tokenID, LockState{
		Owner:      holder,
		Shares:     shares,
		Token:      token,
		UnlockTime: unlockTime,
	})
	updateBalance(ctx, tokenID, holder, +1)
	storage.Put(ctx, totalSupplyKey, common.GetInt(ctx, totalSupplyKey)+1)

	runtime.Log("deposit: lock created")
	runtime.Notify("CreateLock", id, holder, amount, shares, token, unlockTime)
	postTransfer(nil, holder, tokenID, nil)

	common.UnlockGuard(ctx)
	return id
}

// Redeem converts the shares of the lock into the proportional part of the
// live pool balance, burns the claim token, deletes the lock and pays the
// owner out. Can be invoked only by the current claim token owner and only
// when the unlock time is strictly in the past. A lock can be redeemed at
// most once; repeated redemption of the same id fails with ErrNotRedeemable.
//
// The conversion rounds down, so repeated redemptions can leave unredeemable
// dust in the pool.
//
// Produces RedeemLock and Transfer notifications. The RedeemLock
// notification is emitted before the lock record is destroyed so that it
// carries an accurate snapshot of the redeemed values.
func Redeem(tokenID []byte) bool {
	ctx := storage.GetContext()
	common.LockGuard(ctx)

	data := storage.Get(ctx, lockKey(tokenID))
	if data == nil {
		// Burnt ids are never reused, this one is already consumed.
		panic(ErrNotRedeemable)
	}
	lock := std.Deserialize(data.([]byte)).(LockState)
	common.CheckOwnerWitness(lock.Owner)

	if lock.Shares <= 0 || lock.UnlockTime >= runtime.GetTime() {
		panic(ErrNotRedeemable)
	}

	balance := sharesToBalance(ctx, lock.Token, lock.Shares)

	putTotalShares(ctx, lock.Token, totalShares(ctx, lock.Token)-lock.Shares)
	putHolderShares(ctx, lock.Owner, lock.Token,
		holderShares(ctx, lock.Owner, lock.Token)-lock.Shares)

	runtime.Notify("RedeemLock", tokenID, lock.Owner, balance, lock.Shares, lock.Token)

	updateBalance(ctx, tokenID, lock.Owner, -1)
	storage.Put(ctx, totalSupplyKey, common.GetInt(ctx, totalSupplyKey)-1)
	storage.Delete(ctx, lockKey(tokenID))
	postTransfer(lock.Owner, nil, tokenID, nil)

	common.TransferOut(lock.Token, lock.Owner, balance)
	runtime.Log("redeem: lock consumed")

	common.UnlockGuard(ctx)
	return true
}

// RedeemableBalance returns the amount of the pooled token the lock converts
// to at the current pool state. The time lock is not checked here.
func RedeemableBalance(tokenID []byte) int {
	ctx := storage.GetReadOnlyContext()
	lock := getLock(ctx, tokenID)
	return sharesToBalance(ctx, lock.Token, lock.Shares)
}

// TotalShares returns the total share count of the token pool. It always
// equals the sum of shares over all live locks referencing the token.
func TotalShares(token interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return totalShares(ctx, token)
}

// SharesOf returns the advisory aggregate share count of the account in the
// token pool. Transfers of claim tokens are not reflected here, so the value
// can diverge from the account's lock records and even become negative.
func SharesOf(account, token interop.Hash160) int {
	ctx := storage.GetReadOnlyContext()
	return holderShares(ctx, account, token)
}

// PoolBalance returns the custodied balance of the token pool.
func PoolBalance(token interop.Hash160) int {
	return common.BalanceOf(token, runtime.GetExecutingScriptHash())
}

// BaseURI returns the base metadata URI of claim tokens.
func BaseURI() string {
	ctx := storage.GetReadOnlyContext()
	data := storage.Get(ctx, baseURIKey)
	if data == nil {
		return ""
	}
	return data.(string)
}

// SetBaseURI updates the base metadata URI. Can be invoked only by
// committee.
//
// Produces BaseURIUpdated notification.
func SetBaseURI(uri string) {
	if !common.HasUpdateAccess() {
		panic("only committee can set base URI")
	}
	ctx := storage.GetContext()
	storage.Put(ctx, baseURIKey, uri)
	runtime.Notify("BaseURIUpdated", uri)
}

// OnNEP17Payment is a callback for NEP-17 transfers to the vault. Plain
// transfers are accepted silently: they grow a pool without minting shares,
// raising the price of every share already issued against it.
func OnNEP17Payment(from interop.Hash160, amount int, data interface{}) {
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// issueShares computes the share quantity for a deposit priced against the
// post-deposit pool balance. The first deposit of a pool fixes the
// price-per-share denominator by minting exactly baseUnit. Later deposits
// solve prevShares/newTotalShares = 1 - amount/poolAfter, so the issued
// shares match the fraction of the post-deposit pool the depositor
// contributed. Integer overflow is not a concern, VM integers are arbitrary
// precision.
func issueShares(ctx storage.Context, token interop.Hash160, amount, poolAfter int) int {
	prev := totalShares(ctx, token)
	if prev == 0 {
		return baseUnit
	}
	if poolAfter <= 0 {
		panic("deposit: no pool balance")
	}

	fraction := amount * precisionUnit / poolAfter
	if fraction >= precisionUnit {
		// Live shares against an empty pre-deposit pool can not be
		// priced, the whole post-deposit pool belongs to this deposit.
		panic("deposit: no pool balance")
	}
	newTotal := prev * precisionUnit / (precisionUnit - fraction)
	return newTotal - prev
}

// sharesToBalance converts shares to the proportional part of the live pool
// balance, rounding down.
func sharesToBalance(ctx storage.Context, token interop.Hash160, shares int) int {
	total := totalShares(ctx, token)
	if total == 0 {
		return 0
	}
	pool := common.BalanceOf(token, runtime.GetExecutingScriptHash())
	return pool * shares / total
}

func totalShares(ctx storage.Context, token interop.Hash160) int {
	return common.GetInt(ctx, append([]byte{prefixTotalShares}, token...))
}

func putTotalShares(ctx storage.Context, token interop.Hash160, value int) {
	key := append([]byte{prefixTotalShares}, token...)
	if value == 0 {
		storage.Delete(ctx, key)
	} else {
		storage.Put(ctx, key, value)
	}
}

func holderSharesKey(account, token interop.Hash160) []byte {
	return append(append([]byte{prefixHolderShares}, account...), token...)
}

func holderShares(ctx storage.Context, account, token interop.Hash160) int {
	return common.GetInt(ctx, holderSharesKey(account, token))
}

func putHolderShares(ctx storage.Context, account, token interop.Hash160, value int) {
	key := holderSharesKey(account, token)
	if value == 0 {
		storage.Delete(ctx, key)
	} else {
		storage.Put(ctx, key, value)
	}
}

func lockKey(tokenID []byte) []byte {
	return append([]byte{prefixLock}, tokenID...)
}

// getLock returns the lock of a live claim token, panics with
// ErrUnknownToken for burnt or never minted ids.
func getLock(ctx storage.Context, tokenID []byte) LockState {
	data := storage.Get(ctx, lockKey(tokenID))
	if data == nil {
		panic(ErrUnknownToken)
	}
	return std.Deserialize(data.([]byte)).(LockState)
}

func putLock(ctx storage.Context, tokenID []byte, lock LockState) {
	common.SetSerialized(ctx, lockKey(tokenID), lock)
}

// updateBalance updates the account's claim token count and token index.
func updateBalance(ctx storage.Context, tokenID []byte, acc interop.Hash160, diff int) {
	balanceKey := append([]byte{prefixBalance}, acc...)
	balance := common.GetInt(ctx, balanceKey) + diff
	if balance == 0 {
		storage.Delete(ctx, balanceKey)
	} else {
		storage.Put(ctx, balanceKey, balance)
	}

	accountTokenKey := append(append([]byte{prefixAccountToken}, acc...), tokenID...)
	if diff < 0 {
		storage.Delete(ctx, accountTokenKey)
	} else {
		storage.Put(ctx, accountTokenKey, tokenID)
	}
}

// postTransfer sends Transfer notification to the network and calls
// onNEP11Payment method on contract receivers.
func postTransfer(from, to interop.Hash160, tokenID []byte, data interface{}) {
	runtime.Notify("Transfer", from, to, 1, tokenID)
	if to != nil && management.GetContract(to) != nil {
		contract.Call(to, "onNEP11Payment", contract.All, from, 1, tokenID, data)
	}
}
