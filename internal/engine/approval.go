package engine

import (
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// approvalCommon holds for every approval action: the account cell is the
// only input and the output record is the latest version.
func (c *evalCtx) approvalCommon(out *AccountCell) error {
	n, err := c.count(tx.SourceInput)
	if err != nil {
		return err
	}
	if n != 1 {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "approval transactions take exactly one input, found %d", n)
	}
	if v := out.Record.Version(); v != ir.LatestRecordVersion {
		return newVerifyError(ErrCodeWitnessVersionUnsupported,
			"%s must use record version %d, found %d", out, ir.LatestRecordVersion, v)
	}
	return nil
}

func pendingTransfer(ac *AccountCell) (ir.TransferApproval, error) {
	a, ok := ac.Record.Approval()
	if !ok || a.Action != ir.ApprovalActionTransfer {
		return ir.TransferApproval{}, newVerifyError(ErrCodeApprovalParamsInvalid,
			"%s carries no %s approval", ac, ir.ApprovalActionTransfer)
	}
	return a.Params, nil
}

func requireApprovalCleared(out *AccountCell) error {
	if a, _ := out.Record.Approval(); !a.IsEmpty() {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "approval of %s should be cleared", out)
	}
	return nil
}

// lockIdentity returns the signing kind and args of a lock script. Account
// locks sign with their owner half; anything else is a single-key lock.
func (c *evalCtx) lockIdentity(s ir.Script) (ir.LockKind, []byte, error) {
	if s.CodeHash != c.cfg.Main.DasLock {
		return ir.LockCKBSingle, s.Args, nil
	}
	args, err := ir.ParseLockArgs(s.Args)
	if err != nil {
		return 0, nil, newVerifyError(ErrCodeApprovalParamsInvalid, "lock args: %v", err)
	}
	return args.OwnerKind, args.Owner, nil
}

func verifyCreateApproval(c *evalCtx, in, out *AccountCell) error {
	if err := c.approvalCommon(out); err != nil {
		return err
	}
	if err := requireOutputStatus(out, ir.StatusApprovedTransfer); err != nil {
		return err
	}
	p, err := pendingTransfer(out)
	if err != nil {
		return err
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	if now > p.ProtectedUntil || p.ProtectedUntil > p.SealedUntil || p.SealedUntil > in.Data.ExpiredAt {
		return newVerifyError(ErrCodeApprovalParamsInvalid,
			"approval window must satisfy now <= protected_until <= sealed_until <= expired_at").
			With("now", now).With("protected_until", p.ProtectedUntil).
			With("sealed_until", p.SealedUntil).With("expired_at", in.Data.ExpiredAt)
	}
	if p.DelayCountRemain != 1 {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "delay_count_remain should start at 1, found %d", p.DelayCountRemain)
	}
	if _, _, err := c.lockIdentity(p.ToLock); err != nil {
		return err
	}
	c.step("approval created", "sealed_until", p.SealedUntil)
	return nil
}

func verifyDelayApproval(c *evalCtx, in, out *AccountCell) error {
	if err := c.approvalCommon(out); err != nil {
		return err
	}
	prev, err := pendingTransfer(in)
	if err != nil {
		return err
	}
	next, err := pendingTransfer(out)
	if err != nil {
		return err
	}
	if !prev.PlatformLock.Equal(next.PlatformLock) || !prev.ToLock.Equal(next.ToLock) {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "platform_lock and to_lock cannot change on delay")
	}
	if prev.DelayCountRemain == 0 {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "approval cannot be delayed again")
	}
	if next.DelayCountRemain != prev.DelayCountRemain-1 {
		return newVerifyError(ErrCodeApprovalParamsInvalid,
			"delay_count_remain should be %d, found %d", prev.DelayCountRemain-1, next.DelayCountRemain)
	}
	if next.SealedUntil <= prev.SealedUntil || next.ProtectedUntil < prev.ProtectedUntil {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "delay may only extend the approval window").
			With("sealed_until", next.SealedUntil).With("protected_until", next.ProtectedUntil)
	}
	if next.ProtectedUntil > next.SealedUntil || next.SealedUntil > in.Data.ExpiredAt {
		return newVerifyError(ErrCodeApprovalParamsInvalid, "delayed approval must seal before expired_at %d", in.Data.ExpiredAt)
	}
	c.step("approval delayed", "sealed_until", next.SealedUntil)
	return nil
}

func verifyRevokeApproval(c *evalCtx, in, out *AccountCell) error {
	if err := c.approvalCommon(out); err != nil {
		return err
	}
	if err := requireOutputStatus(out, ir.StatusNormal); err != nil {
		return err
	}
	if err := requireApprovalCleared(out); err != nil {
		return err
	}
	p, err := pendingTransfer(in)
	if err != nil {
		return err
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	if now <= p.ProtectedUntil {
		return newVerifyError(ErrCodeApprovalInProtectionPeriod, "approval is protected until %d", p.ProtectedUntil).
			With("now", now)
	}
	kind, args, err := c.lockIdentity(p.PlatformLock)
	if err != nil {
		return err
	}
	if err := c.verifySignature(in.Index, kind, args); err != nil {
		return err
	}
	c.step("approval revoked")
	return nil
}

func verifyFulfillApproval(c *evalCtx, in, out *AccountCell) error {
	if err := c.approvalCommon(out); err != nil {
		return err
	}
	if err := requireOutputStatus(out, ir.StatusNormal); err != nil {
		return err
	}
	if err := requireApprovalCleared(out); err != nil {
		return err
	}
	p, err := pendingTransfer(in)
	if err != nil {
		return err
	}
	if !out.Cell.Lock.Equal(p.ToLock) {
		return newVerifyError(ErrCodeApprovalToLockMismatch, "lock of %s should be the approved to_lock", out)
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	if now < p.SealedUntil {
		if err := c.verifyRoleSignature(in, ir.RoleOwner); err != nil {
			return err
		}
	}
	c.step("approval fulfilled", "signed", now < p.SealedUntil)
	return nil
}
