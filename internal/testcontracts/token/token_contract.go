// Package token contains a mintable NEP-17 token used by vault and batchgate
// tests as the pooled, escrowed and gating asset. Besides the standard
// surface it carries a reentrancy probe: once armed, every transfer calls
// back into a configured contract method, imitating a malicious token that
// tries to re-enter its caller mid-transfer.
package token

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/interop/util"
)

const (
	prefixAccount byte = 0x01

	totalSupplyKey = "totalSupply"
	probeTargetKey = "probeTarget"
	probeMethodKey = "probeMethod"
	probeArgKey    = "probeArg"
)

// Symbol is a NEP-17 standard method.
func Symbol() string {
	return "TST"
}

// Decimals is a NEP-17 standard method.
func Decimals() int {
	return 8
}

// TotalSupply is a NEP-17 standard method.
func TotalSupply() int {
	return getInt(storage.GetReadOnlyContext(), totalSupplyKey)
}

// BalanceOf is a NEP-17 standard method.
func BalanceOf(account interop.Hash160) int {
	return getInt(storage.GetReadOnlyContext(), accountKey(account))
}

// Mint creates amount of token on the account. Free for anyone, this token
// exists for tests only.
func Mint(to interop.Hash160, amount int) {
	if len(to) != interop.Hash160Len || amount <= 0 {
		panic("mint: invalid arguments")
	}
	ctx := storage.GetContext()
	storage.Put(ctx, accountKey(to), getInt(ctx, accountKey(to))+amount)
	storage.Put(ctx, totalSupplyKey, getInt(ctx, totalSupplyKey)+amount)

	var from interop.Hash160
	runtime.Notify("Transfer", from, to, amount)
}

// Transfer is a NEP-17 standard method. Can be invoked by the witnessed
// owner of `from` or by a calling contract moving its own funds.
func Transfer(from, to interop.Hash160, amount int, data interface{}) bool {
	if len(to) != interop.Hash160Len || amount < 0 || !isUsableAddress(from) {
		return false
	}
	ctx := storage.GetContext()

	balance := getInt(ctx, accountKey(from))
	if balance < amount {
		return false
	}
	if balance == amount {
		storage.Delete(ctx, accountKey(from))
	} else {
		storage.Put(ctx, accountKey(from), balance-amount)
	}
	storage.Put(ctx, accountKey(to), getInt(ctx, accountKey(to))+amount)

	runtime.Notify("Transfer", from, to, amount)

	fireProbe(ctx)
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP17Payment", contract.All, from, amount, data)
	}
	return true
}

// SetProbe arms the reentrancy probe: every following transfer calls
// target.method(arg) before completing. Pass an empty target to disarm.
func SetProbe(target interop.Hash160, method string, arg []byte) {
	ctx := storage.GetContext()
	if len(target) == 0 {
		storage.Delete(ctx, probeTargetKey)
		storage.Delete(ctx, probeMethodKey)
		storage.Delete(ctx, probeArgKey)
		return
	}
	storage.Put(ctx, probeTargetKey, target)
	storage.Put(ctx, probeMethodKey, method)
	storage.Put(ctx, probeArgKey, arg)
}

func fireProbe(ctx storage.Context) {
	target := storage.Get(ctx, probeTargetKey)
	if target == nil {
		return
	}
	method := storage.Get(ctx, probeMethodKey).(string)
	arg := storage.Get(ctx, probeArgKey).([]byte)
	contract.Call(target.(interop.Hash160), method, contract.All, arg)
}

// isUsableAddress checks if the sender is either a witnessed account or the
// calling contract itself.
func isUsableAddress(addr interop.Hash160) bool {
	if len(addr) == interop.Hash160Len {
		if runtime.CheckWitness(addr) {
			return true
		}
		callingScriptHash := runtime.GetCallingScriptHash()
		if util.Equals(string(callingScriptHash), string(addr)) {
			return true
		}
	}
	return false
}

func accountKey(account interop.Hash160) []byte {
	return append([]byte{prefixAccount}, account...)
}

func getInt(ctx storage.Context, key interface{}) int {
	data := storage.Get(ctx, key)
	if data != nil {
		return data.(int)
	}
	return 0
}
