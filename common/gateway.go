package common

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

// Fungible token gateway. All pool funds move through NEP-17 transfer calls
// issued here. Some tokens return nothing from transfer, some return a
// boolean; transferResultOK treats a missing or nil result as success and
// anything else as a boolean verdict.

// ErrTransferFailed appears when a token contract reports an unsuccessful
// transfer.
const ErrTransferFailed = "token transfer failed"

// TransferIn moves amount of token from the account to the receiver.
// The witness of `from` must have been checked by the caller.
// Panics with ErrTransferFailed if the token rejects the transfer.
func TransferIn(token interop.Hash160, from, to interop.Hash160, amount int) {
	res := contract.Call(token, "transfer", contract.All, from, to, amount, nil)
	if !transferResultOK(res) {
		panic("transferIn: " + ErrTransferFailed)
	}
}

// TransferOut moves amount of token from the executing contract to the
// receiver.
func TransferOut(token interop.Hash160, to interop.Hash160, amount int) {
	self := runtime.GetExecutingScriptHash()
	res := contract.Call(token, "transfer", contract.All, self, to, amount, nil)
	if !transferResultOK(res) {
		panic("transferOut: " + ErrTransferFailed)
	}
}

// BalanceOf returns the token balance of the account.
func BalanceOf(token interop.Hash160, account interop.Hash160) int {
	return contract.Call(token, "balanceOf", contract.ReadOnly, account).(int)
}

func transferResultOK(res interface{}) bool {
	if res == nil {
		return true
	}
	return res.(bool)
}

// AbortWithMessage calls `runtime.Log` with the passed message
// and calls `ABORT` opcode.
func AbortWithMessage(msg string) {
	runtime.Log(msg)
	util.Abort()
}
