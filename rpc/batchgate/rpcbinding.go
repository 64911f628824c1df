// Package batchgate contains RPC wrappers for Batch Gate contract.
package batchgate

import (
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"math/big"
)

// BatchgateBatch is a contract-specific batchgate.Batch type used by its methods.
type BatchgateBatch struct {
	Admin util.Uint160
	Token util.Uint160
	Remaining *big.Int
	TokensPerClaim *big.Int
	UnlockDate *big.Int
	Locker util.Uint160
	GatingToken util.Uint160
}

// BatchCreatedEvent represents "BatchCreated" event emitted by the contract.
type BatchCreatedEvent struct {
	Id *big.Int
	Admin util.Uint160
	Token util.Uint160
	TotalAmount *big.Int
	TokensPerClaim *big.Int
	UnlockDate *big.Int
	Locker util.Uint160
	GatingToken util.Uint160
}

// BatchClaimedEvent represents "BatchClaimed" event emitted by the contract.
type BatchClaimedEvent struct {
	Id *big.Int
	Claimant util.Uint160
	Amount *big.Int
}

// BatchCancelledEvent represents "BatchCancelled" event emitted by the contract.
type BatchCancelledEvent struct {
	Id *big.Int
	Admin util.Uint160
	Refund *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeRun(script []byte) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	MakeUnsignedRun(script []byte, attrs []transaction.Attribute) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
	SendRun(script []byte) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// BatchCount invokes `batchCount` method of contract.
func (c *ContractReader) BatchCount() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "batchCount"))
}

// Batches invokes `batches` method of contract.
func (c *ContractReader) Batches() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "batches"))
}

// BatchesExpanded is similar to Batches (uses the same contract
// method), but can be useful if the server used doesn't support sessions and
// doesn't expand iterators. It creates a script that will get the specified
// number of result items from the iterator right in the VM and return them to
// you. It's only limited by VM stack and GAS available for RPC invocations.
func (c *ContractReader) BatchesExpanded(_numOfIteratorItems int) ([]stackitem.Item, error) {
	return unwrap.Array(c.invoker.CallAndExpandIterator(c.hash, "batches", _numOfIteratorItems))
}

// Claimed invokes `claimed` method of contract.
func (c *ContractReader) Claimed(batchID *big.Int, account util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "claimed", batchID, account))
}

// GetBatch invokes `getBatch` method of contract.
func (c *ContractReader) GetBatch(batchID *big.Int) (*BatchgateBatch, error) {
	return itemToBatchgateBatch(unwrap.Item(c.invoker.Call(c.hash, "getBatch", batchID)))
}

// IsWhitelisted invokes `isWhitelisted` method of contract.
func (c *ContractReader) IsWhitelisted(batchID *big.Int, account util.Uint160) (bool, error) {
	return unwrap.Bool(c.invoker.Call(c.hash, "isWhitelisted", batchID, account))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// AddToWhitelist creates a transaction invoking `addToWhitelist` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) AddToWhitelist(batchID *big.Int, accounts []util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "addToWhitelist", batchID, accounts)
}

// AddToWhitelistTransaction creates a transaction invoking `addToWhitelist` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) AddToWhitelistTransaction(batchID *big.Int, accounts []util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "addToWhitelist", batchID, accounts)
}

// AddToWhitelistUnsigned creates a transaction invoking `addToWhitelist` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) AddToWhitelistUnsigned(batchID *big.Int, accounts []util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "addToWhitelist", nil, batchID, accounts)
}

// CancelBatch creates a transaction invoking `cancelBatch` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) CancelBatch(batchID *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "cancelBatch", batchID)
}

// CancelBatchTransaction creates a transaction invoking `cancelBatch` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CancelBatchTransaction(batchID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "cancelBatch", batchID)
}

// CancelBatchUnsigned creates a transaction invoking `cancelBatch` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CancelBatchUnsigned(batchID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "cancelBatch", nil, batchID)
}

// Claim creates a transaction invoking `claim` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Claim(claimant util.Uint160, batchID *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "claim", claimant, batchID)
}

// ClaimTransaction creates a transaction invoking `claim` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ClaimTransaction(claimant util.Uint160, batchID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "claim", claimant, batchID)
}

// ClaimUnsigned creates a transaction invoking `claim` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ClaimUnsigned(claimant util.Uint160, batchID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "claim", nil, claimant, batchID)
}

// CreateBatch creates a transaction invoking `createBatch` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) CreateBatch(admin util.Uint160, token util.Uint160, totalAmount *big.Int, tokensPerClaim *big.Int, unlockDate *big.Int, locker util.Uint160, whitelist []util.Uint160, gatingToken util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "createBatch", admin, token, totalAmount, tokensPerClaim, unlockDate, locker, whitelist, gatingToken)
}

// CreateBatchTransaction creates a transaction invoking `createBatch` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) CreateBatchTransaction(admin util.Uint160, token util.Uint160, totalAmount *big.Int, tokensPerClaim *big.Int, unlockDate *big.Int, locker util.Uint160, whitelist []util.Uint160, gatingToken util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "createBatch", admin, token, totalAmount, tokensPerClaim, unlockDate, locker, whitelist, gatingToken)
}

// CreateBatchUnsigned creates a transaction invoking `createBatch` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) CreateBatchUnsigned(admin util.Uint160, token util.Uint160, totalAmount *big.Int, tokensPerClaim *big.Int, unlockDate *big.Int, locker util.Uint160, whitelist []util.Uint160, gatingToken util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "createBatch", nil, admin, token, totalAmount, tokensPerClaim, unlockDate, locker, whitelist, gatingToken)
}

// OnNEP17Payment creates a transaction invoking `onNEP17Payment` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) OnNEP17Payment(from util.Uint160, amount *big.Int, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "onNEP17Payment", from, amount, data)
}

// OnNEP17PaymentTransaction creates a transaction invoking `onNEP17Payment` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) OnNEP17PaymentTransaction(from util.Uint160, amount *big.Int, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "onNEP17Payment", from, amount, data)
}

// OnNEP17PaymentUnsigned creates a transaction invoking `onNEP17Payment` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) OnNEP17PaymentUnsigned(from util.Uint160, amount *big.Int, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "onNEP17Payment", nil, from, amount, data)
}

// RemoveFromWhitelist creates a transaction invoking `removeFromWhitelist` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) RemoveFromWhitelist(batchID *big.Int, accounts []util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "removeFromWhitelist", batchID, accounts)
}

// RemoveFromWhitelistTransaction creates a transaction invoking `removeFromWhitelist` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) RemoveFromWhitelistTransaction(batchID *big.Int, accounts []util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "removeFromWhitelist", batchID, accounts)
}

// RemoveFromWhitelistUnsigned creates a transaction invoking `removeFromWhitelist` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) RemoveFromWhitelistUnsigned(batchID *big.Int, accounts []util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "removeFromWhitelist", nil, batchID, accounts)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// UpdateTransaction creates a transaction invoking `update` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) UpdateTransaction(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "update", script, manifest, data)
}

// UpdateUnsigned creates a transaction invoking `update` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) UpdateUnsigned(script []byte, manifest []byte, data any) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "update", nil, script, manifest, data)
}

// itemToBatchgateBatch converts stack item into *BatchgateBatch.
func itemToBatchgateBatch(item stackitem.Item, err error) (*BatchgateBatch, error) {
	if err != nil {
		return nil, err
	}
	var res = new(BatchgateBatch)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of BatchgateBatch from the given stack item
// and returns an error if so.
func (res *BatchgateBatch) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 7 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	res.Admin, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Admin: %w", err)
	}

	index++
	res.Token, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Token: %w", err)
	}

	index++
	res.Remaining, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Remaining: %w", err)
	}

	index++
	res.TokensPerClaim, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field TokensPerClaim: %w", err)
	}

	index++
	res.UnlockDate, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field UnlockDate: %w", err)
	}

	index++
	res.Locker, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Locker: %w", err)
	}

	index++
	res.GatingToken, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field GatingToken: %w", err)
	}

	return nil
}

// FromStackItem converts provided stackitem.Array to BatchCreatedEvent and
// returns an error if so.
func (e *BatchCreatedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 8 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	e.Id, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Id: %w", err)
	}

	index++
	e.Admin, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Admin: %w", err)
	}

	index++
	e.Token, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Token: %w", err)
	}

	index++
	e.TotalAmount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field TotalAmount: %w", err)
	}

	index++
	e.TokensPerClaim, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field TokensPerClaim: %w", err)
	}

	index++
	e.UnlockDate, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field UnlockDate: %w", err)
	}

	index++
	e.Locker, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Locker: %w", err)
	}

	index++
	e.GatingToken, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field GatingToken: %w", err)
	}

	return nil
}

// FromStackItem converts provided stackitem.Array to BatchClaimedEvent and
// returns an error if so.
func (e *BatchClaimedEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	e.Id, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Id: %w", err)
	}

	index++
	e.Claimant, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Claimant: %w", err)
	}

	index++
	e.Amount, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}

	return nil
}

// FromStackItem converts provided stackitem.Array to BatchCancelledEvent and
// returns an error if so.
func (e *BatchCancelledEvent) FromStackItem(item *stackitem.Array) error {
	if item == nil {
		return errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err error
	)
	index++
	e.Id, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Id: %w", err)
	}

	index++
	e.Admin, err = func (item stackitem.Item) (util.Uint160, error) {
		b, err := item.TryBytes()
		if err != nil {
			return util.Uint160{}, err
		}
		u, err := util.Uint160DecodeBytesBE(b)
		if err != nil {
			return util.Uint160{}, err
		}
		return u, nil
	} (arr[index])
	if err != nil {
		return fmt.Errorf("field Admin: %w", err)
	}

	index++
	e.Refund, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Refund: %w", err)
	}

	return nil
}
