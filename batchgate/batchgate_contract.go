package batchgate

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

// Batch is an admin-funded allocation of a single token, released in fixed
// increments to eligible claimants. A batch is deleted when the remainder
// hits zero or when the admin cancels it; both terminal states look the
// same, the record is gone. Batch ids grow monotonically and are never
// reused.
type Batch struct {
	// Account that funded the batch and may edit or cancel it.
	Admin interop.Hash160
	// Escrowed token.
	Token interop.Hash160
	// Amount still claimable, multiple of TokensPerClaim.
	Remaining int
	// Fixed amount released per claim.
	TokensPerClaim int
	// Unlock timestamp passed to the locker for every claimed lock.
	UnlockDate int
	// Vault contract whose deposit entry point mints the claimed locks.
	Locker interop.Hash160
	// Optional token whose non-zero balance grants eligibility in lieu
	// of whitelisting. Empty when the batch is whitelist-only.
	GatingToken interop.Hash160
}

// Prefixes used for contract data storage.
const (
	// prefixBatch contains map from batch id to serialized Batch.
	prefixBatch byte = 0x01
	// prefixWhitelist contains map from (batch id + account) to 1 for
	// accounts explicitly allowed to claim.
	prefixWhitelist byte = 0x02
	// prefixClaimed contains map from (batch id + account) to 1 for
	// accounts that already claimed the batch. Claim marks survive
	// whitelist edits and batch deletion; ids are never reused.
	prefixClaimed byte = 0x03
)

const batchCounterKey = "batchCounter"

// Error messages thrown by the contract.
const (
	// ErrExhausted appears on claims against a batch that has no
	// remaining allocation, was cancelled or never existed.
	ErrExhausted = "no remaining allocation"
	// ErrNotEligible appears when the claimant is neither whitelisted
	// nor holds the gating token.
	ErrNotEligible = "not eligible for this batch"
	// ErrAlreadyClaimed appears on repeated claims of one batch by one
	// account.
	ErrAlreadyClaimed = "already claimed"
)

func _deploy(data interface{}, isUpdate bool) {
	if isUpdate {
		args := data.([]interface{})
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	ctx := storage.GetContext()
	storage.Put(ctx, batchCounterKey, 0)

	runtime.Log("batchgate contract initialized")
}

// Update method updates contract source code and manifest. Can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data interface{}) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("batchgate contract updated")
}

// CreateBatch escrows totalAmount of token and opens a new batch releasing
// it in tokensPerClaim increments. totalAmount must divide evenly by
// tokensPerClaim and unlockDate must be strictly in the future. Accounts of
// the whitelist become eligible immediately; gatingToken may be empty.
// Returns the new batch id.
//
// Produces BatchCreated notification.
func CreateBatch(admin, token interop.Hash160, totalAmount, tokensPerClaim, unlockDate int,
	locker interop.Hash160, whitelist []interop.Hash160, gatingToken interop.Hash160) int {
	ctx := storage.GetContext()
	common.LockGuard(ctx)

	common.CheckOwnerWitness(admin)
	if len(token) != interop.Hash160Len || isZeroAddress(token) {
		panic("createBatch: invalid token address")
	}
	if len(locker) != interop.Hash160Len || isZeroAddress(locker) {
		panic("createBatch: invalid locker address")
	}
	if len(gatingToken) != 0 && (len(gatingToken) != interop.Hash160Len || isZeroAddress(gatingToken)) {
		panic("createBatch: invalid gating token address")
	}
	if unlockDate <= runtime.GetTime() {
		panic("createBatch: invalid unlock date")
	}
	if totalAmount <= 0 || tokensPerClaim <= 0 || totalAmount%tokensPerClaim != 0 {
		panic("createBatch: invalid division of total amount")
	}

	self := runtime.GetExecutingScriptHash()
	common.TransferIn(token, admin, self, totalAmount)

	id := common.GetInt(ctx, batchCounterKey) + 1
	storage.Put(ctx, batchCounterKey, id)

	putBatch(ctx, id, Batch{
		Admin:          admin,
		Token:          token,
		Remaining:      totalAmount,
		TokensPerClaim: tokensPerClaim,
		UnlockDate:     unlockDate,
		Locker:         locker,
		GatingToken:    gatingToken,
	})
	for i := 0; i < len(whitelist); i++ {
		storage.Put(ctx, whitelistKey(id, whitelist[i]), 1)
	}

	runtime.Log("createBatch: batch registered")
	runtime.Notify("BatchCreated", id, admin, token, totalAmount, tokensPerClaim,
		unlockDate, locker, gatingToken)

	common.UnlockGuard(ctx)
	return id
}

// AddToWhitelist makes the accounts eligible to claim the batch. Can be
// invoked only by the batch admin. Idempotent. Accounts that already claimed
// stay claimed.
func AddToWhitelist(batchID int, accounts []interop.Hash160) {
	ctx := storage.GetContext()
	batch := getBatch(ctx, batchID)
	common.CheckAdminWitness(batch.Admin)

	for i := 0; i < len(accounts); i++ {
		storage.Put(ctx, whitelistKey(batchID, accounts[i]), 1)
	}
}

// RemoveFromWhitelist strips the accounts of batch eligibility. Can be
// invoked only by the batch admin. Idempotent.
func RemoveFromWhitelist(batchID int, accounts []interop.Hash160) {
	ctx := storage.GetContext()
	batch := getBatch(ctx, batchID)
	common.CheckAdminWitness(batch.Admin)

	for i := 0; i < len(accounts); i++ {
		storage.Delete(ctx, whitelistKey(batchID, accounts[i]))
	}
}

// Claim releases one tokensPerClaim increment of the batch to the claimant
// as a new time-locked claim in the batch locker. The claimant must be
// whitelisted or hold at least one unit of the gating token, and may claim
// each batch at most once, also when re-whitelisted later. The batch is
// deleted when its remainder hits zero.
//
// The escrowed increment is pushed to the locker and the locker's deposit
// entry point is invoked with this contract as the depositor, so the claimed
// lock is priced against the locker pool including the increment.
//
// Produces BatchClaimed notification.
func Claim(claimant interop.Hash160, batchID int) {
	ctx := storage.GetContext()
	common.LockGuard(ctx)

	common.CheckOwnerWitness(claimant)

	data := storage.Get(ctx, batchKey(batchID))
	if data == nil {
		// Exhausted and cancelled batches are erased, they are
		// indistinguishable from never existing ones here.
		panic(ErrExhausted)
	}
	batch := std.Deserialize(data.([]byte)).(Batch)
	if batch.Remaining <= 0 {
		panic(ErrExhausted)
	}
	if !isEligible(ctx, batchID, batch, claimant) {
		panic(ErrNotEligible)
	}
	if storage.Get(ctx, claimedKey(batchID, claimant)) != nil {
		panic(ErrAlreadyClaimed)
	}
	storage.Put(ctx, claimedKey(batchID, claimant), 1)

	batch.Remaining -= batch.TokensPerClaim
	if batch.Remaining == 0 {
		storage.Delete(ctx, batchKey(batchID))
	} else {
		putBatch(ctx, batchID, batch)
	}

	runtime.Log("claim: allocation released")
	runtime.Notify("BatchClaimed", batchID, claimant, batch.TokensPerClaim)

	// The locker pulls nothing on its own, push the increment first.
	common.TransferOut(batch.Token, batch.Locker, batch.TokensPerClaim)
	self := runtime.GetExecutingScriptHash()
	contract.Call(batch.Locker, "deposit", contract.All,
		self, claimant, batch.TokensPerClaim, batch.Token, batch.UnlockDate)

	common.UnlockGuard(ctx)
}

// CancelBatch deletes the batch and refunds its remainder to the admin,
// regardless of whitelist and claim history. Can be invoked only by the
// batch admin.
//
// Produces BatchCancelled notification.
func CancelBatch(batchID int) {
	ctx := storage.GetContext()
	common.LockGuard(ctx)

	batch := getBatch(ctx, batchID)
	common.CheckAdminWitness(batch.Admin)

	storage.Delete(ctx, batchKey(batchID))
	common.TransferOut(batch.Token, batch.Admin, batch.Remaining)

	runtime.Log("cancelBatch: batch cancelled")
	runtime.Notify("BatchCancelled", batchID, batch.Admin, batch.Remaining)

	common.UnlockGuard(ctx)
}

// GetBatch returns the batch record. Panics for exhausted, cancelled or
// never created ids.
func GetBatch(batchID int) Batch {
	ctx := storage.GetReadOnlyContext()
	return getBatch(ctx, batchID)
}

// IsWhitelisted returns true if the account is currently whitelisted for
// the batch.
func IsWhitelisted(batchID int, account interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, whitelistKey(batchID, account)) != nil
}

// Claimed returns true if the account has claimed the batch.
func Claimed(batchID int, account interop.Hash160) bool {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, claimedKey(batchID, account)) != nil
}

// BatchCount returns the number of batches ever created, including deleted
// ones.
func BatchCount() int {
	ctx := storage.GetReadOnlyContext()
	return common.GetInt(ctx, batchCounterKey)
}

// Batches returns an iterator over all live batch records.
func Batches() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{prefixBatch}, storage.ValuesOnly|storage.DeserializeValues)
}

// OnNEP17Payment is a callback for NEP-17 transfers to the contract. Batch
// escrow arrives through CreateBatch pulls; the callback itself accepts any
// transfer silently.
func OnNEP17Payment(from interop.Hash160, amount int, data interface{}) {
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// isEligible reports whitelist membership or gating token ownership. The
// gating check is a bare non-zero balance test, any unit of the gating
// token qualifies.
func isEligible(ctx storage.Context, batchID int, batch Batch, claimant interop.Hash160) bool {
	if storage.Get(ctx, whitelistKey(batchID, claimant)) != nil {
		return true
	}
	if len(batch.GatingToken) != interop.Hash160Len {
		return false
	}
	return common.BalanceOf(batch.GatingToken, claimant) > 0
}

// isZeroAddress detects the all-zero hash, an address no account or contract
// can witness.
func isZeroAddress(h interop.Hash160) bool {
	for i := 0; i < len(h); i++ {
		if h[i] != 0 {
			return false
		}
	}
	return true
}

func batchKey(batchID int) []byte {
	return append([]byte{prefixBatch}, std.Itoa(batchID, 10)...)
}

func whitelistKey(batchID int, account interop.Hash160) []byte {
	return append(append([]byte{prefixWhitelist}, std.Itoa(batchID, 10)...), account...)
}

func claimedKey(batchID int, account interop.Hash160) []byte {
	return append(append([]byte{prefixClaimed}, std.Itoa(batchID, 10)...), account...)
}

func getBatch(ctx storage.Context, batchID int) Batch {
	data := storage.Get(ctx, batchKey(batchID))
	if data == nil {
		panic("unknown batch")
	}
	return std.Deserialize(data.([]byte)).(Batch)
}

func putBatch(ctx storage.Context, batchID int, batch Batch) {
	common.SetSerialized(ctx, batchKey(batchID), batch)
}
