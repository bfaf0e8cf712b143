package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// verifyRecycle destroys an expired account and unlinks it from the list:
// input[0] is the previous account, input[1] the expired one, output[0] the
// previous account pointing past it.
func verifyRecycle(c *evalCtx) error {
	if err := c.accountPositions([]int{0, 1}, []int{0}); err != nil {
		return err
	}
	prev, err := c.accountCell(tx.SourceInput, 0)
	if err != nil {
		return err
	}
	expired, err := c.accountCell(tx.SourceInput, 1)
	if err != nil {
		return err
	}
	outPrev, err := c.accountCell(tx.SourceOutput, 0)
	if err != nil {
		return err
	}

	// An account still owned reports its window; one already up for auction
	// is reported as not yet recyclable.
	if e, err := c.requireWindow(expired, ExpirationExpired); err != nil {
		if e != ExpirationAuction && e != ExpirationConfirmation {
			return err
		}
		return newVerifyError(ErrCodeAccountCellStillCanNotRecycle, "%s cannot be recycled in its %s window", expired, e).
			With("expired_at", expired.Data.ExpiredAt)
	}
	if err := requireStatus(expired, ir.StatusNormal, ir.StatusLockedForCrossChain); err != nil {
		return err
	}

	if prev.Data.Next != expired.Data.ID {
		return newVerifyError(ErrCodeAccountCellMissingPrevAccount, "%s does not point to %s", prev, expired).
			With("next", prev.Data.Next).With("id", expired.Data.ID)
	}
	if outPrev.Data.Next != expired.Data.Next {
		return newVerifyError(ErrCodeAccountCellNextUpdateError, "%s should point to %s", outPrev, expired.Data.Next)
	}
	if err := VerifyConsistency(prev, outPrev, Exceptions{Data: []string{ir.DataFieldNext}}); err != nil {
		return err
	}
	if err := VerifyCapacityNotDecrease(prev.Cell.Capacity, outPrev.Cell.Capacity); err != nil {
		return err
	}
	c.step("list contiguity verified")

	profit, err := c.recycledSubAccount(expired, 2)
	if err != nil {
		return err
	}
	fee := c.cfg.Account.CommonFee
	total := expired.Cell.Capacity + profit.Owner
	if total < fee {
		return newVerifyError(ErrCodeRefundError, "refund %d cannot cover the fee %d", total, fee)
	}
	ownerRefund := total - fee

	if expired.Args.OwnerIsBlackHole() {
		return c.verifySentinelRefund(ownerRefund, profit.Platform)
	}
	if err := c.verifyRefund(c.ownerLock(expired), ownerRefund); err != nil {
		return err
	}
	if profit.Platform >= config.CellBasic {
		return c.verifyPlatformChange(profit.Platform)
	}
	return nil
}

// verifySentinelRefund routes everything owed to a burned owner to the
// platform wallet: one cell for the owner part, a second for the platform
// profit when it can fill a cell.
func (c *evalCtx) verifySentinelRefund(ownerPart, platformPart uint64) error {
	want := []uint64{ownerPart}
	if platformPart >= config.CellBasic {
		want = append(want, platformPart)
	}
	cells, err := c.platformCells()
	if err != nil {
		return err
	}
	if len(cells) != len(want) {
		return newVerifyError(ErrCodeRefundError, "expected %d platform wallet cells, found %d", len(want), len(cells))
	}
	for i, cell := range cells {
		if cell.Capacity != want[i] {
			return newVerifyError(ErrCodeRefundError, "platform wallet cell %d holds %d, expected %d", i, cell.Capacity, want[i])
		}
	}
	c.step("sentinel refund routed to platform", "cells", len(cells))
	return nil
}

// verifyForceRecover returns an account stuck in a listing status to Normal
// once the auction windows have passed.
func verifyForceRecover(c *evalCtx) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	if in.Record.Status() == ir.StatusNormal {
		return newVerifyError(ErrCodeAccountCellStatusError, "%s is already normal", in)
	}
	if _, err := c.requireWindow(in, ExpirationConfirmation, ExpirationExpired); err != nil {
		return err
	}
	if err := requireOutputStatus(out, ir.StatusNormal); err != nil {
		return err
	}
	if err := VerifyCapacityNotDecrease(in.Cell.Capacity, out.Cell.Capacity); err != nil {
		return err
	}
	if err := VerifyConsistency(in, out, Exceptions{Witness: []string{ir.FieldStatus}}); err != nil {
		return err
	}
	balances, err := c.findByType(c.cfg.Main.TypeIDs.BalanceCell, tx.SourceInput)
	if err != nil {
		return err
	}
	if len(balances) != 0 {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "force recovery spends no balance cells, found %d", len(balances)).
			With("inputs", balances)
	}

	switch in.Record.Status() {
	case ir.StatusSelling:
		return c.recoverFromSale(in)
	default:
		return newVerifyError(ErrCodeUnsupportedTransition, "force recovery from %s is not supported", in.Record.Status())
	}
}

// recoverFromSale consumes the sale cell at input[1] and refunds it to the
// owner at output[1].
func (c *evalCtx) recoverFromSale(in *AccountCell) error {
	saleType := c.cfg.Main.TypeIDs.AccountSaleCell
	sales, err := c.findByType(saleType, tx.SourceInput)
	if err != nil {
		return err
	}
	if len(sales) != 1 || sales[0] != 1 {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "the sale cell is expected at input[1]")
	}
	sale, err := c.load(tx.SourceInput, 1)
	if err != nil {
		return err
	}
	raw, ok := c.tx.Entity(tx.SourceInput, 1, ir.EntityAccountSale)
	if !ok {
		return newVerifyError(ErrCodeWitnessEntityMissing, "input[1] has no sale witness")
	}
	entity, err := c.decoder.DecodeAccountSale(raw)
	if err != nil {
		return newVerifyError(ErrCodeWitnessReadingError, "input[1]: %v", err)
	}
	if entity.Account != in.Data.Account {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "sale cell lists %q, not %q", entity.Account, in.Data.Account)
	}

	refund, err := c.load(tx.SourceOutput, 1)
	if err != nil {
		return newVerifyError(ErrCodeRefundError, "the sale refund is expected at output[1]")
	}
	lock := c.ownerLock(in)
	if !refund.Lock.Equal(lock) || !refund.HasType(c.cfg.Main.TypeIDs.BalanceCell) {
		return newVerifyError(ErrCodeRefundError, "output[1] should be a balance cell of the owner")
	}
	var floor uint64
	if sale.Capacity > config.ForceRecoverTolerance {
		floor = sale.Capacity - config.ForceRecoverTolerance
	}
	if refund.Capacity < floor {
		return newVerifyError(ErrCodeRefundError, "sale refund is %d, expected at least %d", refund.Capacity, floor)
	}
	c.step("sale cell refunded", "capacity", refund.Capacity)
	return nil
}
