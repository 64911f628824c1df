package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

// ErrReentrant appears when a guarded method is entered again before
// the first invocation has finished.
const ErrReentrant = "reentrant call"

// guardKey marks a mutating method in progress. It is a single flag for the
// whole contract, not per resource.
const guardKey = "inProgress"

// LockGuard sets the contract-wide in-progress flag. Any nested call into a
// guarded method while the flag is set panics with ErrReentrant. A panic
// aborts the transaction, so the flag never survives a failed invocation.
func LockGuard(ctx storage.Context) {
	if storage.Get(ctx, guardKey) != nil {
		panic(ErrReentrant)
	}
	storage.Put(ctx, guardKey, 1)
}

// UnlockGuard clears the in-progress flag on successful completion.
func UnlockGuard(ctx storage.Context) {
	storage.Delete(ctx, guardKey)
}
