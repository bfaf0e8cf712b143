// Package testutil builds transaction snapshots for tests.
//
// Account describes one account cell in domain terms; Builder assembles a
// tx.Transaction from accounts and helper cells, computing witness hashes,
// transaction hash and fake signatures so that tests only state what they
// check.
package testutil

import (
	"encoding/binary"
	"fmt"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// Now is the oracle time most fixtures use.
const Now uint64 = 1_700_000_000

// Quote is the default oracle quote: 0.01 USD per CKB.
const Quote uint64 = 10_000

func seedBytes(seed string, n int) ir.Bytes {
	h := ir.Blake2b256([]byte("accountcell/seed/" + seed))
	out := make(ir.Bytes, n)
	for i := range out {
		out[i] = h[i%len(h)]
	}
	return out
}

// RoleArgs returns the args of kind derived from seed.
func RoleArgs(kind ir.LockKind, seed string) ir.Bytes {
	return seedBytes(seed, kind.ArgsLen())
}

// Args returns CKB lock args with distinct owner and manager.
func Args(owner, manager string) ir.LockArgs {
	return ir.LockArgs{
		OwnerKind:   ir.LockCKBSingle,
		Owner:       RoleArgs(ir.LockCKBSingle, owner),
		ManagerKind: ir.LockCKBSingle,
		Manager:     RoleArgs(ir.LockCKBSingle, manager),
	}
}

// OwnerArgs returns CKB lock args where the owner is also the manager.
func OwnerArgs(owner string) ir.LockArgs {
	return Args(owner, owner)
}

// KindArgs returns lock args of kind where the owner is also the manager.
func KindArgs(kind ir.LockKind, owner string) ir.LockArgs {
	args := RoleArgs(kind, owner)
	return ir.LockArgs{OwnerKind: kind, Owner: args, ManagerKind: kind, Manager: args}
}

// BlackHoleArgs returns lock args owned by the burn sentinel.
func BlackHoleArgs() ir.LockArgs {
	return ir.LockArgs{
		OwnerKind:   ir.LockETH,
		Owner:       append(ir.Bytes(nil), ir.BlackHoleArgs...),
		ManagerKind: ir.LockETH,
		Manager:     append(ir.Bytes(nil), ir.BlackHoleArgs...),
	}
}

// Account describes one account cell.
type Account struct {
	Version   uint32
	Args      ir.LockArgs
	Capacity  uint64
	Next      ir.AccountID
	ExpiredAt uint64
	// Since is the since field of the cell when it is an input.
	Since     uint64
	Fields    ir.RecordFields
}

// NewAccount returns a latest-version Normal account registered a year
// before Now and expiring a year after it.
func NewAccount(name string, args ir.LockArgs) Account {
	return Account{
		Version:   ir.LatestRecordVersion,
		Args:      args,
		Capacity:  1_000 * config.OneCKB,
		Next:      ir.DeriveAccountID("zzzzzzzz.bit"),
		ExpiredAt: Now + config.YearSec,
		Fields: ir.RecordFields{
			ID:           ir.DeriveAccountID(name),
			Account:      name,
			RegisteredAt: Now - config.YearSec,
			Status:       ir.StatusNormal,
		},
	}
}

// With returns a copy of a changed by fn.
func (a Account) With(fn func(*Account)) Account {
	a.Fields.Records = append(ir.Records(nil), a.Fields.Records...)
	fn(&a)
	return a
}

// Record returns the witness record of a.
func (a Account) Record() ir.AccountRecord {
	return ir.MustNewAccountRecord(a.Version, a.Fields)
}

// Cell returns the account cell and its encoded witness entity.
func (a Account) Cell(cfg *config.Config) (tx.Cell, string) {
	entity, err := ir.EncodeAccount(a.Record())
	if err != nil {
		panic(fmt.Sprintf("testutil: encode account: %v", err))
	}
	data := ir.AccountCellData{
		WitnessHash: ir.Blake2b256(entity),
		ID:          a.Fields.ID,
		Next:        a.Next,
		ExpiredAt:   a.ExpiredAt,
		Account:     a.Fields.Account,
	}
	return tx.Cell{
		Capacity: a.Capacity,
		Lock:     DasLock(cfg, a.Args),
		Type:     TypeScript(cfg.Main.TypeIDs.AccountCell, nil),
		Data:     data.Bytes(),
		Since:    a.Since,
	}, string(entity)
}

// TypeScript returns a type script with the given code hash and args.
func TypeScript(codeHash ir.Hash, args []byte) *ir.Script {
	return &ir.Script{CodeHash: codeHash, HashType: ir.HashTypeType, Args: append(ir.Bytes{}, args...)}
}

// DasLock returns the account lock for args.
func DasLock(cfg *config.Config, args ir.LockArgs) ir.Script {
	return ir.Script{CodeHash: cfg.Main.DasLock, HashType: ir.HashTypeType, Args: args.Bytes()}
}

// OwnerLock returns the refund lock of args: the owner half on both roles.
func OwnerLock(cfg *config.Config, args ir.LockArgs) ir.Script {
	return DasLock(cfg, args.OwnerOnly())
}

// BalanceCell returns a balance cell owned by args.
func BalanceCell(cfg *config.Config, args ir.LockArgs, capacity uint64) tx.Cell {
	return tx.Cell{
		Capacity: capacity,
		Lock:     OwnerLock(cfg, args),
		Type:     TypeScript(cfg.Main.TypeIDs.BalanceCell, nil),
	}
}

// PlainCell returns a cell with no type script.
func PlainCell(lock ir.Script, capacity uint64) tx.Cell {
	return tx.Cell{Capacity: capacity, Lock: lock}
}

// PlatformCell returns a platform wallet cell.
func PlatformCell(cfg *config.Config, capacity uint64) tx.Cell {
	return PlainCell(cfg.Main.PlatformWallet, capacity)
}

// PointsCell returns a points cell of amount owned by args.
func PointsCell(cfg *config.Config, args ir.LockArgs, amount uint64) tx.Cell {
	return tx.Cell{
		Capacity: 150 * config.OneCKB,
		Lock:     OwnerLock(cfg, args),
		Type:     TypeScript(cfg.Main.TypeIDs.PointsCell, nil),
		Data:     ir.PointsCellData(amount),
	}
}

// SubAccountCell returns the sub-account cell of account.
func SubAccountCell(cfg *config.Config, account string, capacity, dasProfit, ownerProfit uint64) tx.Cell {
	id := ir.DeriveAccountID(account)
	data := ir.SubAccountCellData{DasProfit: dasProfit, OwnerProfit: ownerProfit}
	return tx.Cell{
		Capacity: capacity,
		Lock:     cfg.Main.AlwaysSuccessLock,
		Type:     TypeScript(cfg.Main.TypeIDs.SubAccountCell, id[:]),
		Data:     data.Bytes(),
	}
}

// IncomeCell returns an income cell holding records and its witness entity.
func IncomeCell(cfg *config.Config, records ...ir.IncomeRecord) (tx.Cell, string) {
	var total uint64
	for _, r := range records {
		total += r.Capacity
	}
	entity, err := ir.EncodeEntity(1, ir.IncomeEntity{Creator: cfg.Main.PlatformWallet, Records: records})
	if err != nil {
		panic(fmt.Sprintf("testutil: encode income: %v", err))
	}
	return tx.Cell{
		Capacity: total,
		Lock:     cfg.Main.AlwaysSuccessLock,
		Type:     TypeScript(cfg.Main.TypeIDs.IncomeCell, nil),
	}, string(entity)
}

// SaleCell returns a sale cell listing account and its witness entity.
func SaleCell(cfg *config.Config, args ir.LockArgs, account string, capacity uint64) (tx.Cell, string) {
	entity, err := ir.EncodeEntity(1, ir.AccountSaleEntity{Account: account, Price: 100 * config.OneCKB, StartedAt: Now - config.YearSec})
	if err != nil {
		panic(fmt.Sprintf("testutil: encode sale: %v", err))
	}
	return tx.Cell{
		Capacity: capacity,
		Lock:     OwnerLock(cfg, args),
		Type:     TypeScript(cfg.Main.TypeIDs.AccountSaleCell, nil),
	}, string(entity)
}

// CompanionCell returns a cell whose type uses codeHash.
func CompanionCell(cfg *config.Config, codeHash ir.Hash) tx.Cell {
	return tx.Cell{
		Capacity: 200 * config.OneCKB,
		Lock:     cfg.Main.AlwaysSuccessLock,
		Type:     TypeScript(codeHash, nil),
	}
}

// OracleCell returns an oracle cell dep publishing value.
func OracleCell(cfg *config.Config, kind ir.OracleKind, value uint64) tx.Cell {
	return tx.Cell{
		Lock: cfg.Main.AlwaysSuccessLock,
		Type: TypeScript(cfg.Main.TypeIDs.OracleCell, []byte{byte(kind)}),
		Data: ir.OracleCellData(kind, value),
	}
}

type pendingSig struct {
	input int
	kind  ir.LockKind
	args  []byte
	raw   []byte
}

// Builder assembles a transaction snapshot.
type Builder struct {
	cfg  *config.Config
	txn  tx.Transaction
	sigs []pendingSig
}

// NewBuilder starts a transaction requesting action.
func NewBuilder(cfg *config.Config, action ir.Action) *Builder {
	return &Builder{cfg: cfg, txn: tx.Transaction{Action: tx.ActionWitness{Action: action}}}
}

// Role sets the role byte of the action params.
func (b *Builder) Role(r ir.Role) *Builder {
	b.txn.Action.Params = ir.Bytes{byte(r)}
	return b
}

// Params sets the raw action params.
func (b *Builder) Params(p ...byte) *Builder {
	b.txn.Action.Params = append(ir.Bytes{}, p...)
	return b
}

// Now publishes ts through a time oracle cell dep.
func (b *Builder) Now(ts uint64) *Builder {
	return b.CellDep(OracleCell(b.cfg, ir.OracleTime, ts))
}

// Quote publishes q through a quote oracle cell dep.
func (b *Builder) Quote(q uint64) *Builder {
	return b.CellDep(OracleCell(b.cfg, ir.OracleQuote, q))
}

// Input appends an input cell.
func (b *Builder) Input(c tx.Cell) *Builder {
	b.txn.Inputs = append(b.txn.Inputs, c)
	return b
}

// Output appends an output cell.
func (b *Builder) Output(c tx.Cell) *Builder {
	b.txn.Outputs = append(b.txn.Outputs, c)
	return b
}

// CellDep appends a cell dep.
func (b *Builder) CellDep(c tx.Cell) *Builder {
	b.txn.CellDeps = append(b.txn.CellDeps, c)
	return b
}

// Entity attaches a witness entity to (src, index).
func (b *Builder) Entity(src tx.Source, index int, kind ir.EntityKind, raw string) *Builder {
	b.txn.Entities = append(b.txn.Entities, tx.EntityWitness{Source: src, Index: index, Kind: kind, Entity: raw})
	return b
}

// InputWithEntity appends an input cell with its witness entity.
func (b *Builder) InputWithEntity(c tx.Cell, kind ir.EntityKind, raw string) *Builder {
	b.Entity(tx.SourceInput, len(b.txn.Inputs), kind, raw)
	return b.Input(c)
}

// OutputWithEntity appends an output cell with its witness entity.
func (b *Builder) OutputWithEntity(c tx.Cell, kind ir.EntityKind, raw string) *Builder {
	b.Entity(tx.SourceOutput, len(b.txn.Outputs), kind, raw)
	return b.Output(c)
}

// InputAccount appends an account cell to the inputs.
func (b *Builder) InputAccount(a Account) *Builder {
	c, raw := a.Cell(b.cfg)
	return b.InputWithEntity(c, ir.EntityAccount, raw)
}

// OutputAccount appends an account cell to the outputs.
func (b *Builder) OutputAccount(a Account) *Builder {
	c, raw := a.Cell(b.cfg)
	return b.OutputWithEntity(c, ir.EntityAccount, raw)
}

// Sign adds a fake signature of input by (kind, args).
func (b *Builder) Sign(input int, kind ir.LockKind, args []byte) *Builder {
	b.sigs = append(b.sigs, pendingSig{input: input, kind: kind, args: append([]byte(nil), args...)})
	return b
}

// SignRole signs input with the key holding role in args.
func (b *Builder) SignRole(input int, args ir.LockArgs, role ir.Role) *Builder {
	kind, roleArgs := args.RoleArgs(role)
	return b.Sign(input, kind, roleArgs)
}

// SignMulti signs input with the cross-chain keepers, committing to since.
func (b *Builder) SignMulti(input int, since uint64) *Builder {
	args := append([]byte(nil), b.cfg.Main.CrossChainLock.Args...)
	args = binary.LittleEndian.AppendUint64(args, since)
	return b.Sign(input, ir.LockCKBMulti, args)
}

// RawSignature sets the witness lock of input verbatim.
func (b *Builder) RawSignature(input int, lock []byte) *Builder {
	b.sigs = append(b.sigs, pendingSig{input: input, raw: lock})
	return b
}

// Build hashes the transaction and computes the pending signatures.
func (b *Builder) Build() *tx.Transaction {
	t := b.txn
	t.Inputs = append([]tx.Cell(nil), b.txn.Inputs...)
	t.Outputs = append([]tx.Cell(nil), b.txn.Outputs...)
	t.CellDeps = append([]tx.Cell(nil), b.txn.CellDeps...)
	t.Entities = append([]tx.EntityWitness(nil), b.txn.Entities...)
	t.Signatures = nil
	t.Hash = ir.Hash{}

	encoded, err := tx.Marshal(&t)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal transaction: %v", err))
	}
	t.Hash = ir.Blake2b256(encoded)
	for _, s := range b.sigs {
		lock := s.raw
		if lock == nil {
			lock = FakeSign(s.kind, t.SigningDigest(s.input), s.args)
		}
		t.Signatures = append(t.Signatures, tx.SignatureWitness{Input: s.input, Lock: lock})
	}
	return &t
}
