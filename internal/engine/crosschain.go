package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

// verifyCrossChainLock requires the account to stay unexpired long enough
// for the other chain to hold it.
func verifyCrossChainLock(c *evalCtx, in, out *AccountCell) error {
	if err := requireOutputStatus(out, ir.StatusLockedForCrossChain); err != nil {
		return err
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	if in.Data.ExpiredAt < now+config.CrossChainMinRemaining {
		return newVerifyError(ErrCodeCrossChainLockExpiryTooClose,
			"%s expires at %d, cross-chain lock needs %d", in, in.Data.ExpiredAt, now+config.CrossChainMinRemaining)
	}
	c.step("cross-chain lock verified", "expired_at", in.Data.ExpiredAt)
	return nil
}

// verifyCrossChainUnlock returns a locked account to Normal under the
// keepers' multisig. A new owner gets the account without records.
func verifyCrossChainUnlock(c *evalCtx) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	if err := requireStatus(in, ir.StatusLockedForCrossChain); err != nil {
		return err
	}
	if err := requireOutputStatus(out, ir.StatusNormal); err != nil {
		return err
	}
	if err := c.verifyMultiSign(in); err != nil {
		return err
	}
	if err := c.verifyFee(in, out, feeCommon); err != nil {
		return err
	}

	ex := Exceptions{Lock: LockAny, Witness: []string{ir.FieldStatus}}
	ownerChanged := !in.Args.SameOwner(out.Args)
	if ownerChanged {
		ex.Witness = append(ex.Witness, ir.FieldRecords)
	}
	if err := VerifyConsistency(in, out, ex); err != nil {
		return err
	}
	if ownerChanged {
		if err := verifyRecordsEmpty(out); err != nil {
			return err
		}
	}
	if !out.Args.OwnerIsManager() {
		return newVerifyError(ErrCodeAccountCellOwnerShouldBeManager, "owner and manager of %s should be the same", out)
	}
	c.step("cross-chain unlock verified", "owner_changed", ownerChanged)
	return nil
}
