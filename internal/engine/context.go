package engine

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/sign"
	"github.com/roach88/accountcell/internal/tx"
)

// AccountCell is an account cell with its data, lock args and witness
// record decoded and bound together.
type AccountCell struct {
	Source tx.Source
	Index  int
	Cell   tx.Cell
	Data   ir.AccountCellData
	Args   ir.LockArgs
	Record ir.AccountRecord
}

func (a *AccountCell) String() string {
	return fmt.Sprintf("%s[%d]", a.Source, a.Index)
}

// evalCtx is the state of one verification: the snapshot, lazily read
// oracle values and the load budget.
type evalCtx struct {
	cfg     *config.Config
	tx      *tx.Transaction
	oracle  sign.Oracle
	decoder ir.RecordDecoder
	log     *slog.Logger
	budget  *LoadBudget
	trace   *Trace
	action  ir.Action

	now, quote         uint64
	haveNow, haveQuote bool
}

func newEvalCtx(v *Verifier, t *tx.Transaction, tr *Trace) *evalCtx {
	return &evalCtx{
		cfg:     v.cfg,
		tx:      t,
		oracle:  v.oracle,
		decoder: v.decoder,
		log:     v.logger,
		budget:  NewLoadBudget(v.budget),
		trace:   tr,
		action:  t.Action.Action,
	}
}

// step logs a verification step and appends it to the trace.
func (c *evalCtx) step(msg string, args ...any) {
	c.log.Debug(msg, append([]any{"action", string(c.action)}, args...)...)
	if c.trace != nil {
		c.trace.Steps = append(c.trace.Steps, msg)
	}
}

func (c *evalCtx) charge(src tx.Source, i int) error {
	if err := c.budget.Charge(fmt.Sprintf("%s[%d]", src, i)); err != nil {
		return newVerifyError(ErrCodeExecutionBudgetExceeded, "%v", err)
	}
	return nil
}

// load returns the cell at (src, i). A missing cell is ErrCodeIndexOutOfBound.
func (c *evalCtx) load(src tx.Source, i int) (tx.Cell, error) {
	if err := c.charge(src, i); err != nil {
		return tx.Cell{}, err
	}
	cell, err := c.tx.Load(src, i)
	if err != nil {
		return tx.Cell{}, newVerifyError(ErrCodeIndexOutOfBound, "%s[%d] does not exist", src, i).
			With("source", src).With("index", i)
	}
	return cell, nil
}

// scan walks src until the out-of-bound sentinel, charging every load.
func (c *evalCtx) scan(src tx.Source, fn func(i int, cell tx.Cell) (bool, error)) error {
	for i := 0; ; i++ {
		if err := c.charge(src, i); err != nil {
			return err
		}
		cell, err := c.tx.Load(src, i)
		if errors.Is(err, tx.ErrIndexOutOfBound) {
			return nil
		}
		more, err := fn(i, cell)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (c *evalCtx) findByType(codeHash ir.Hash, src tx.Source) ([]int, error) {
	var out []int
	err := c.scan(src, func(i int, cell tx.Cell) (bool, error) {
		if cell.HasType(codeHash) {
			out = append(out, i)
		}
		return true, nil
	})
	return out, err
}

func (c *evalCtx) findByLock(lock ir.Script, src tx.Source) ([]int, error) {
	var out []int
	err := c.scan(src, func(i int, cell tx.Cell) (bool, error) {
		if cell.Lock.Equal(lock) {
			out = append(out, i)
		}
		return true, nil
	})
	return out, err
}

func (c *evalCtx) count(src tx.Source) (int, error) {
	n := 0
	err := c.scan(src, func(int, tx.Cell) (bool, error) {
		n++
		return true, nil
	})
	return n, err
}

func (c *evalCtx) readOracle(kind ir.OracleKind) (uint64, error) {
	if err := c.charge(tx.SourceCellDep, -1); err != nil {
		return 0, err
	}
	value, err := c.tx.ReadOracle(c.cfg.Main.TypeIDs.OracleCell, kind)
	switch {
	case errors.Is(err, tx.ErrOracleMissing):
		return 0, newVerifyError(ErrCodeOracleCellIsRequired, "%s oracle cell is required", kind)
	case err != nil:
		return 0, newVerifyError(ErrCodeInvalidCellData, "%s oracle: %v", kind, err)
	}
	return value, nil
}

// timestamp returns the oracle time.
func (c *evalCtx) timestamp() (uint64, error) {
	if !c.haveNow {
		now, err := c.readOracle(ir.OracleTime)
		if err != nil {
			return 0, err
		}
		c.now, c.haveNow = now, true
	}
	return c.now, nil
}

// quoteCKB returns the oracle quote in micro-USD per CKB.
func (c *evalCtx) quoteCKB() (uint64, error) {
	if !c.haveQuote {
		q, err := c.readOracle(ir.OracleQuote)
		if err != nil {
			return 0, err
		}
		if q == 0 {
			return 0, newVerifyError(ErrCodeInvalidCellData, "quote oracle reports zero")
		}
		c.quote, c.haveQuote = q, true
	}
	return c.quote, nil
}

// accountCell loads and decodes the account cell at (src, i) and checks that
// its data commits to its witness record.
func (c *evalCtx) accountCell(src tx.Source, i int) (*AccountCell, error) {
	cell, err := c.load(src, i)
	if err != nil {
		return nil, err
	}
	ac := &AccountCell{Source: src, Index: i, Cell: cell}
	if !cell.HasType(c.cfg.Main.TypeIDs.AccountCell) {
		return nil, newVerifyError(ErrCodeInvalidTransactionStructure, "%s is not an account cell", ac)
	}
	if ac.Data, err = ir.ParseAccountCellData(cell.Data); err != nil {
		return nil, newVerifyError(ErrCodeInvalidCellData, "%s: %v", ac, err)
	}
	if ir.DeriveAccountID(ac.Data.Account) != ac.Data.ID {
		return nil, newVerifyError(ErrCodeInvalidCellData, "%s: id does not match account %q", ac, ac.Data.Account)
	}
	if cell.Lock.CodeHash != c.cfg.Main.DasLock {
		return nil, newVerifyError(ErrCodeInvalidLockArgs, "%s is not locked by the account lock", ac)
	}
	if ac.Args, err = ir.ParseLockArgs(cell.Lock.Args); err != nil {
		return nil, newVerifyError(ErrCodeInvalidLockArgs, "%s: %v", ac, err)
	}

	raw, ok := c.tx.Entity(src, i, ir.EntityAccount)
	if !ok {
		return nil, newVerifyError(ErrCodeWitnessEntityMissing, "%s has no account witness", ac)
	}
	ac.Record, err = c.decoder.DecodeAccount(raw)
	switch {
	case errors.Is(err, ir.ErrUnsupportedVersion):
		return nil, newVerifyError(ErrCodeWitnessVersionUnsupported, "%s: %v", ac, err)
	case err != nil:
		return nil, newVerifyError(ErrCodeWitnessReadingError, "%s: %v", ac, err)
	}
	hash, err := ir.AccountWitnessHash(ac.Record)
	if err != nil {
		return nil, newVerifyError(ErrCodeWitnessReadingError, "%s: %v", ac, err)
	}
	if hash != ac.Data.WitnessHash {
		return nil, newVerifyError(ErrCodeWitnessDataIsCorrupted, "%s: data does not commit to the witness", ac).
			With("expected", ac.Data.WitnessHash).With("actual", hash)
	}
	if ac.Record.ID() != ac.Data.ID || ac.Record.Account() != ac.Data.Account {
		return nil, newVerifyError(ErrCodeWitnessDataIsCorrupted, "%s: witness names a different account", ac)
	}
	return ac, nil
}

// expectPositions requires the account cells of src to sit exactly at want.
func expectPositions(src tx.Source, got []int, want ...int) error {
	if len(got) != len(want) {
		return newVerifyError(ErrCodeInvalidTransactionStructure,
			"expected %d account cells in %s, found %d", len(want), src, len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			return newVerifyError(ErrCodeInvalidTransactionStructure,
				"account cell expected at %s[%d], found at %s[%d]", src, want[i], src, got[i])
		}
	}
	return nil
}

// accountPair loads the single account cell at input[0] and output[0].
func (c *evalCtx) accountPair() (in, out *AccountCell, err error) {
	if err := c.accountPositions([]int{0}, []int{0}); err != nil {
		return nil, nil, err
	}
	if in, err = c.accountCell(tx.SourceInput, 0); err != nil {
		return nil, nil, err
	}
	if out, err = c.accountCell(tx.SourceOutput, 0); err != nil {
		return nil, nil, err
	}
	return in, out, nil
}

func (c *evalCtx) accountPositions(inputs, outputs []int) error {
	typeID := c.cfg.Main.TypeIDs.AccountCell
	ins, err := c.findByType(typeID, tx.SourceInput)
	if err != nil {
		return err
	}
	if err := expectPositions(tx.SourceInput, ins, inputs...); err != nil {
		return err
	}
	outs, err := c.findByType(typeID, tx.SourceOutput)
	if err != nil {
		return err
	}
	return expectPositions(tx.SourceOutput, outs, outputs...)
}

// verifySignature checks the witness lock of input against (kind, args).
func (c *evalCtx) verifySignature(input int, kind ir.LockKind, args []byte) error {
	if !c.cfg.Main.SignEnabled(kind) {
		return newVerifyError(ErrCodeUnsupportedSignAlgorithm, "sign algorithm %s is not enabled", kind)
	}
	if c.oracle == nil {
		return newVerifyError(ErrCodeUnsupportedSignAlgorithm, "no signature oracle configured")
	}
	lock, ok := c.tx.Signature(input)
	if !ok || len(lock) == 0 {
		return newVerifyError(ErrCodeSignatureMissing, "input[%d] carries no signature", input)
	}
	err := c.oracle.Verify(kind, c.tx.SigningDigest(input), lock, args)
	switch {
	case errors.Is(err, sign.ErrUnsupportedAlgorithm):
		return newVerifyError(ErrCodeUnsupportedSignAlgorithm, "input[%d]: %v", input, err)
	case err != nil:
		return newVerifyError(ErrCodeSignatureVerifyFailed, "input[%d]: %v", input, err)
	}
	c.step("signature verified", "input", input, "kind", kind.String())
	return nil
}

// verifyRoleSignature checks that the holder of role signed the account cell.
func (c *evalCtx) verifyRoleSignature(ac *AccountCell, role ir.Role) error {
	kind, args := ac.Args.RoleArgs(role)
	return c.verifySignature(ac.Index, kind, args)
}

// verifyMultiSign checks the cross-chain keepers' signature over the input
// holding ac. The since of that input, zero included, is appended to the
// multisig args as 8 little-endian bytes.
func (c *evalCtx) verifyMultiSign(ac *AccountCell) error {
	args := append([]byte(nil), c.cfg.Main.CrossChainLock.Args...)
	args = binary.LittleEndian.AppendUint64(args, ac.Cell.Since)
	return c.verifySignature(ac.Index, ir.LockCKBMulti, args)
}

// ownerLock is the account lock addressed to the owner of ac, the
// destination of refunds and change.
func (c *evalCtx) ownerLock(ac *AccountCell) ir.Script {
	return ac.Cell.Lock.WithArgs(ac.Args.OwnerOnly().Bytes())
}
