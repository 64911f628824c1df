package tests

import (
	"math/big"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/neotest/chain"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

const (
	tokenPath     = "../internal/testcontracts/token"
	vaultPath     = "../vault"
	batchGatePath = "../batchgate"

	// baseUnit is the share quantity minted by the first deposit of a pool.
	baseUnit = int64(1_0000_0000_0000)
	// precisionUnit is the extended scale used by ownership-fraction
	// divisions.
	precisionUnit = baseUnit * 10

	msPerHour = int64(3600 * 1000)
)

func iteratorToArray(iter *storage.Iterator) []stackitem.Item {
	stackItems := make([]stackitem.Item, 0)
	for iter.Next() {
		stackItems = append(stackItems, iter.Value())
	}
	return stackItems
}

func newExecutor(t *testing.T) *neotest.Executor {
	bc, acc := chain.NewSingle(t)
	return neotest.NewExecutor(t, bc, acc, acc)
}

func deployContract(t *testing.T, e *neotest.Executor, ctrPath string) *neotest.Contract {
	ctr := neotest.CompileFile(t, e.CommitteeHash, ctrPath, path.Join(ctrPath, "config.yml"))
	e.DeployContract(t, ctr, nil)
	return ctr
}

// warpTime appends an empty block with the given timestamp. Invocations in
// the following block run with a strictly later time.
func warpTime(t *testing.T, e *neotest.Executor, timestamp uint64) {
	b := e.NewUnsignedBlock(t)
	b.Timestamp = timestamp
	require.NoError(t, e.Chain.AddBlock(e.SignBlock(b)))
}

// expectedIssue mirrors on-chain share issuance pricing for assertions:
// prev/newTotal = 1 - amount/poolAfter, all divisions rounding down. Plain
// int64 overflows on the newTotal step, hence big.Int.
func expectedIssue(prev, amount, poolAfter int64) int64 {
	p := big.NewInt(precisionUnit)
	fraction := new(big.Int).Div(new(big.Int).Mul(big.NewInt(amount), p), big.NewInt(poolAfter))
	newTotal := new(big.Int).Div(new(big.Int).Mul(big.NewInt(prev), p), new(big.Int).Sub(p, fraction))
	return newTotal.Int64() - prev
}

// expectedPayout mirrors on-chain share redemption pricing for assertions:
// pool*shares/total rounding down.
func expectedPayout(pool, shares, total int64) int64 {
	v := new(big.Int).Mul(big.NewInt(pool), big.NewInt(shares))
	return new(big.Int).Div(v, big.NewInt(total)).Int64()
}

type vaultFixture struct {
	e     *neotest.Executor
	token *neotest.ContractInvoker
	vault *neotest.ContractInvoker

	tokenHash util.Uint160
	vaultHash util.Uint160
}

func newVaultFixture(t *testing.T) *vaultFixture {
	e := newExecutor(t)
	tokenCtr := deployContract(t, e, tokenPath)
	vaultCtr := deployContract(t, e, vaultPath)
	return &vaultFixture{
		e:         e,
		token:     e.CommitteeInvoker(tokenCtr.Hash),
		vault:     e.CommitteeInvoker(vaultCtr.Hash),
		tokenHash: tokenCtr.Hash,
		vaultHash: vaultCtr.Hash,
	}
}

func (f *vaultFixture) mint(t *testing.T, to util.Uint160, amount int64) {
	f.token.Invoke(t, stackitem.Null{}, "mint", to, amount)
}

// deposit locks amount of the test token for acc itself and checks that the
// vault assigned the expected lock id.
func (f *vaultFixture) deposit(t *testing.T, acc neotest.Signer, id, amount, unlockTime int64) {
	f.vault.WithSigners(acc).Invoke(t, id, "deposit",
		acc.ScriptHash(), acc.ScriptHash(), amount, f.tokenHash, unlockTime)
}

type gateFixture struct {
	*vaultFixture

	gate     *neotest.ContractInvoker
	gateHash util.Uint160
}

func newGateFixture(t *testing.T) *gateFixture {
	vf := newVaultFixture(t)
	gateCtr := deployContract(t, vf.e, batchGatePath)
	return &gateFixture{
		vaultFixture: vf,
		gate:         vf.e.CommitteeInvoker(gateCtr.Hash),
		gateHash:     gateCtr.Hash,
	}
}

// createBatch escrows total of the test token into a new batch backed by the
// vault and checks that the gate assigned the expected batch id.
func (f *gateFixture) createBatch(t *testing.T, admin neotest.Signer, id, total, perClaim, unlockDate int64, whitelist []any, gatingToken any) {
	f.gate.WithSigners(admin).Invoke(t, id, "createBatch",
		admin.ScriptHash(), f.tokenHash, total, perClaim, unlockDate,
		f.vaultHash, whitelist, gatingToken)
}

// batchRemaining reads the remainder field of the batch record.
func (f *gateFixture) batchRemaining(t *testing.T, id int64) int64 {
	s, err := f.gate.TestInvoke(t, "getBatch", id)
	require.NoError(t, err)
	fields := s.Top().Array()
	require.Len(t, fields, 7)
	return fields[2].Value().(*big.Int).Int64()
}
