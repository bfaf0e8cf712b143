package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/sign"
	"github.com/roach88/accountcell/internal/tx"
)

func TestAccountCellCommitsToWitness(t *testing.T) {
	cfg := config.Default()
	a := NewAccount("alice.bit", Args("alice", "alice-manager"))

	cell, raw := a.Cell(cfg)

	data, err := ir.ParseAccountCellData(cell.Data)
	require.NoError(t, err)
	rec, err := ir.JSONDecoder{}.DecodeAccount([]byte(raw))
	require.NoError(t, err)
	hash, err := ir.AccountWitnessHash(rec)
	require.NoError(t, err)

	assert.Equal(t, hash, data.WitnessHash)
	assert.Equal(t, ir.DeriveAccountID("alice.bit"), data.ID)
	assert.True(t, cell.HasType(cfg.Main.TypeIDs.AccountCell))
	assert.Equal(t, cfg.Main.DasLock, cell.Lock.CodeHash)
}

func TestAccountWithCopiesRecords(t *testing.T) {
	a := NewAccount("alice.bit", OwnerArgs("alice"))
	a.Fields.Records = ir.Records{{Type: "text", Key: "email", Value: "a@b.c"}}

	b := a.With(func(x *Account) { x.Fields.Records[0].Value = "changed" })

	assert.Equal(t, "a@b.c", a.Fields.Records[0].Value)
	assert.Equal(t, "changed", b.Fields.Records[0].Value)
}

func TestBuilderIsDeterministic(t *testing.T) {
	cfg := config.Default()
	args := OwnerArgs("alice")
	build := func() *tx.Transaction {
		return NewBuilder(cfg, ir.ActionTransferAccount).
			Role(ir.RoleOwner).
			Now(Now).
			InputAccount(NewAccount("alice.bit", args)).
			SignRole(0, args, ir.RoleOwner).
			Build()
	}

	a, b := build(), build()
	assert.Equal(t, a.Hash, b.Hash)
	assert.False(t, a.Hash.IsZero())
	require.Len(t, a.Signatures, 1)
	assert.Equal(t, a.Signatures[0], b.Signatures[0])
}

func TestBuilderSignatureMatchesOracle(t *testing.T) {
	cfg := config.Default()
	args := OwnerArgs("alice")
	txn := NewBuilder(cfg, ir.ActionEditManager).
		InputAccount(NewAccount("alice.bit", args)).
		SignRole(0, args, ir.RoleOwner).
		Build()

	lock, ok := txn.Signature(0)
	require.True(t, ok)
	digest := txn.SigningDigest(0)

	assert.NoError(t, FakeOracle{}.Verify(ir.LockCKBSingle, digest, lock, args.Owner))
	err := FakeOracle{}.Verify(ir.LockCKBSingle, digest, lock, args.Manager[:19])
	assert.ErrorIs(t, err, sign.ErrSignatureInvalid)
}

func TestFakeOracleRejectsUnsupportedKinds(t *testing.T) {
	var digest ir.Hash
	lock := FakeSign(ir.LockWebAuthn, digest, nil)
	err := FakeOracle{}.Verify(ir.LockWebAuthn, digest, lock, nil)
	assert.ErrorIs(t, err, sign.ErrUnsupportedAlgorithm)
}

func TestSignMultiCommitsToSince(t *testing.T) {
	cfg := config.Default()
	txn := NewBuilder(cfg, ir.ActionUnlockAccountForCrossChain).
		InputAccount(NewAccount("alice.bit", OwnerArgs("alice"))).
		SignMulti(0, 7).
		Build()

	lock, _ := txn.Signature(0)
	args := append(append([]byte(nil), cfg.Main.CrossChainLock.Args...), 7, 0, 0, 0, 0, 0, 0, 0)
	assert.NoError(t, FakeOracle{}.Verify(ir.LockCKBMulti, txn.SigningDigest(0), lock, args))
	assert.Error(t, FakeOracle{}.Verify(ir.LockCKBMulti, txn.SigningDigest(0), lock, cfg.Main.CrossChainLock.Args))
}

func TestSignMultiCommitsToZeroSince(t *testing.T) {
	cfg := config.Default()
	txn := NewBuilder(cfg, ir.ActionUnlockAccountForCrossChain).
		InputAccount(NewAccount("alice.bit", OwnerArgs("alice"))).
		SignMulti(0, 0).
		Build()

	lock, _ := txn.Signature(0)
	args := append(append([]byte(nil), cfg.Main.CrossChainLock.Args...), make([]byte, 8)...)
	assert.NoError(t, FakeOracle{}.Verify(ir.LockCKBMulti, txn.SigningDigest(0), lock, args))
	assert.Error(t, FakeOracle{}.Verify(ir.LockCKBMulti, txn.SigningDigest(0), lock, cfg.Main.CrossChainLock.Args))
}

func TestOracleCellIsReadable(t *testing.T) {
	cfg := config.Default()
	txn := NewBuilder(cfg, ir.ActionRenewAccount).Now(Now).Quote(Quote).Build()

	now, err := txn.ReadOracle(cfg.Main.TypeIDs.OracleCell, ir.OracleTime)
	require.NoError(t, err)
	assert.Equal(t, Now, now)
	quote, err := txn.ReadOracle(cfg.Main.TypeIDs.OracleCell, ir.OracleQuote)
	require.NoError(t, err)
	assert.Equal(t, Quote, quote)
}
