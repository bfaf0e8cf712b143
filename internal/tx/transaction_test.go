package tx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/ir"
)

var (
	accountType = ir.Blake2b256([]byte("account-cell-type"))
	oracleType  = ir.Blake2b256([]byte("oracle-cell-type"))
	userLock    = ir.Script{CodeHash: ir.Blake2b256([]byte("lock")), HashType: ir.HashTypeType, Args: ir.Bytes{0x01}}
)

func sampleTx() *Transaction {
	return &Transaction{
		Hash:   ir.Blake2b256([]byte("tx")),
		Action: ActionWitness{Action: ir.ActionTransferAccount, Params: ir.Bytes{0x00}},
		Inputs: []Cell{
			{Capacity: 100, Lock: userLock, Type: &ir.Script{CodeHash: accountType}},
			{Capacity: 50, Lock: userLock},
		},
		Outputs: []Cell{
			{Capacity: 99, Lock: userLock, Type: &ir.Script{CodeHash: accountType}},
		},
		CellDeps: []Cell{
			{Type: &ir.Script{CodeHash: oracleType, Args: ir.Bytes{byte(ir.OracleQuote)}}, Data: ir.OracleCellData(ir.OracleQuote, 1000)},
			{Type: &ir.Script{CodeHash: oracleType, Args: ir.Bytes{byte(ir.OracleTime)}}, Data: ir.OracleCellData(ir.OracleTime, 1_700_000_000)},
		},
	}
}

func TestLoadReturnsSentinelPastEnd(t *testing.T) {
	txn := sampleTx()

	_, err := txn.Load(SourceInput, 1)
	require.NoError(t, err)

	_, err = txn.Load(SourceInput, 2)
	assert.ErrorIs(t, err, ErrIndexOutOfBound)

	_, err = txn.Load(SourceOutput, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfBound)
}

func TestScanStopsAtSentinel(t *testing.T) {
	txn := sampleTx()

	assert.Equal(t, 2, txn.Count(SourceInput))
	assert.Equal(t, 1, txn.Count(SourceOutput))
	assert.Equal(t, 2, txn.Count(SourceCellDep))
	assert.Equal(t, 0, (&Transaction{}).Count(SourceInput))
}

func TestFindByTypeAndLock(t *testing.T) {
	txn := sampleTx()

	assert.Equal(t, []int{0}, txn.FindByType(accountType, SourceInput))
	assert.Equal(t, []int{0, 1}, txn.FindByLock(userLock, SourceInput))
	assert.True(t, txn.HasTypeScript(accountType, SourceOutput))
	assert.False(t, txn.HasTypeScript(oracleType, SourceOutput))
}

func TestReadOracle(t *testing.T) {
	txn := sampleTx()

	quote, err := txn.ReadOracle(oracleType, ir.OracleQuote)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), quote)

	now, err := txn.ReadOracle(oracleType, ir.OracleTime)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_700_000_000), now)

	_, err = txn.ReadOracle(oracleType, ir.OracleHeight)
	assert.ErrorIs(t, err, ErrOracleMissing)
}

func TestReadOracleRejectsMismatchedData(t *testing.T) {
	txn := sampleTx()
	txn.CellDeps[0].Data = ir.OracleCellData(ir.OracleTime, 1)

	_, err := txn.ReadOracle(oracleType, ir.OracleQuote)
	assert.Error(t, err)
}

func TestActionWitnessRole(t *testing.T) {
	role, ok := ActionWitness{Params: ir.Bytes{0x01}}.Role()
	assert.True(t, ok)
	assert.Equal(t, ir.RoleManager, role)

	_, ok = ActionWitness{}.Role()
	assert.False(t, ok)
}

func TestSigningDigestBindsInputIndex(t *testing.T) {
	txn := sampleTx()
	assert.NotEqual(t, txn.SigningDigest(0), txn.SigningDigest(1))
	assert.Equal(t, txn.SigningDigest(0), sampleTx().SigningDigest(0))
}

func TestMarshalParseSnapshot(t *testing.T) {
	txn := sampleTx()
	txn.Entities = []EntityWitness{{Source: SourceInput, Index: 0, Kind: ir.EntityAccount, Entity: `{"version":4,"entity":{}}`}}
	txn.Signatures = []SignatureWitness{{Input: 0, Lock: ir.Bytes{0xaa, 0xbb}}}

	encoded, err := Marshal(txn)
	require.NoError(t, err)

	parsed, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, txn.Hash, parsed.Hash)
	assert.Equal(t, txn.Action.Action, parsed.Action.Action)
	require.Len(t, parsed.Inputs, 2)
	assert.True(t, parsed.Inputs[0].Lock.Equal(userLock))
	assert.Nil(t, parsed.Inputs[1].Type)
	raw, ok := parsed.Entity(SourceInput, 0, ir.EntityAccount)
	require.True(t, ok)
	assert.JSONEq(t, `{"version":4,"entity":{}}`, string(raw))
	sig, ok := parsed.Signature(0)
	require.True(t, ok)
	assert.Equal(t, []byte{0xaa, 0xbb}, sig)
}

func TestParseRequiresAction(t *testing.T) {
	_, err := Parse([]byte(`hash: "0x` + "00" + `"`))
	assert.Error(t, err)

	_, err = Parse([]byte("action:\n  action: transfer_account\nunknown_field: 1\n"))
	assert.Error(t, err, "unknown fields are rejected")
}
