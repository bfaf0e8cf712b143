package engine

import (
	"slices"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// roleReq is the role an action must be signed by.
type roleReq uint8

const (
	roleNone roleReq = iota
	roleOwner
	roleManager
)

func (r roleReq) role() ir.Role {
	if r == roleManager {
		return ir.RoleManager
	}
	return ir.RoleOwner
}

// companion names a type script that carries the rules of a delegated action.
type companion struct {
	Name   string
	TypeID func(config.TypeIDs) ir.Hash
	Source tx.Source
}

// rule is one row of the action table.
type rule struct {
	Role       roleReq
	Statuses   []ir.AccountStatus
	Windows    []Expiration
	Fee        feeKey
	KeepFee    bool
	Exceptions Exceptions
	Throttle   *throttleRule
	// ClearRecords requires the output record to carry no records.
	ClearRecords bool

	// Handler runs after the transition pipeline.
	Handler func(c *evalCtx, in, out *AccountCell) error
	// Flow replaces the transition pipeline for multi-cell sub-flows.
	Flow func(c *evalCtx) error

	Companion   *companion
	Unsupported bool
}

var activeOnly = []Expiration{ExpirationActive}

var actionTable = map[ir.Action]*rule{
	ir.ActionTransferAccount: {
		Role:     roleOwner,
		Statuses: []ir.AccountStatus{ir.StatusNormal},
		Fee:      feeTransferAccount,
		Exceptions: Exceptions{
			Lock:    LockOwner,
			Witness: []string{ir.FieldLastTransferAccountAt, ir.FieldRecords},
		},
		Throttle:     transferThrottle,
		ClearRecords: true,
	},
	ir.ActionEditManager: {
		Role:     roleOwner,
		Statuses: []ir.AccountStatus{ir.StatusNormal},
		Fee:      feeEditManager,
		Exceptions: Exceptions{
			Lock:    LockManager,
			Witness: []string{ir.FieldLastEditManagerAt},
		},
		Throttle: editManagerThrottle,
	},
	ir.ActionEditRecords: {
		Role:     roleManager,
		Statuses: []ir.AccountStatus{ir.StatusNormal, ir.StatusApprovedTransfer},
		Fee:      feeEditRecords,
		Exceptions: Exceptions{
			Witness: []string{ir.FieldRecords, ir.FieldLastEditRecordsAt},
		},
		Throttle: editRecordsThrottle,
		Handler:  verifyEditRecords,
	},
	ir.ActionLockAccountForCrossChain: {
		Role:       roleOwner,
		Statuses:   []ir.AccountStatus{ir.StatusNormal},
		Fee:        feeCommon,
		Exceptions: Exceptions{Witness: []string{ir.FieldStatus}},
		Handler:    verifyCrossChainLock,
	},
	ir.ActionUnlockAccountForCrossChain:   {Flow: verifyCrossChainUnlock},
	ir.ActionRenewAccount:                 {Flow: verifyRenew},
	ir.ActionRecycleExpiredAccount:        {Flow: verifyRecycle},
	ir.ActionForceRecoverAccountStatus:    {Flow: verifyForceRecover},
	ir.ActionBidExpiredAccountAuction:     {Flow: verifyBid},
	ir.ActionConfirmExpiredAccountAuction: {Flow: verifyConfirmAuction},
	ir.ActionEnableSubAccount: {
		Role:       roleOwner,
		Statuses:   []ir.AccountStatus{ir.StatusNormal},
		KeepFee:    true,
		Exceptions: Exceptions{Witness: []string{ir.FieldEnableSubAccount}},
		Handler:    verifyEnableSubAccount,
	},
	ir.ActionCreateApproval: {
		Role:       roleOwner,
		Statuses:   []ir.AccountStatus{ir.StatusNormal},
		Fee:        feeCommon,
		Exceptions: Exceptions{Witness: []string{ir.FieldStatus, ir.FieldApproval}},
		Handler:    verifyCreateApproval,
	},
	ir.ActionDelayApproval: {
		Role:       roleOwner,
		Statuses:   []ir.AccountStatus{ir.StatusApprovedTransfer},
		Fee:        feeCommon,
		Exceptions: Exceptions{Witness: []string{ir.FieldApproval}},
		Handler:    verifyDelayApproval,
	},
	ir.ActionRevokeApproval: {
		Statuses:   []ir.AccountStatus{ir.StatusApprovedTransfer},
		Fee:        feeCommon,
		Exceptions: Exceptions{Witness: []string{ir.FieldStatus, ir.FieldApproval}},
		Handler:    verifyRevokeApproval,
	},
	ir.ActionFulfillApproval: {
		Statuses: []ir.AccountStatus{ir.StatusApprovedTransfer},
		Fee:      feeCommon,
		Exceptions: Exceptions{
			Lock:    LockAny,
			Witness: []string{ir.FieldStatus, ir.FieldApproval, ir.FieldRecords},
		},
		ClearRecords: true,
		Handler:      verifyFulfillApproval,
	},

	ir.ActionStartAccountSale:             {Companion: saleCompanion(tx.SourceOutput)},
	ir.ActionCancelAccountSale:            {Companion: saleCompanion(tx.SourceInput)},
	ir.ActionBuyAccount:                   {Companion: saleCompanion(tx.SourceInput)},
	ir.ActionStartAccountAuction:          {Companion: auctionCompanion(tx.SourceOutput)},
	ir.ActionCancelAccountAuction:         {Companion: auctionCompanion(tx.SourceInput)},
	ir.ActionBidAccountAuction:            {Companion: auctionCompanion(tx.SourceInput)},
	ir.ActionAcceptOffer:                  {Companion: offerCompanion},
	ir.ActionConfirmProposal:              {Companion: proposalCompanion},
	ir.ActionConfigSubAccount:             {Companion: subAccountCompanion},
	ir.ActionConfigSubAccountCustomScript: {Companion: subAccountCompanion},
	ir.ActionInitAccountChain:             {Unsupported: true},
}

func lookupRule(action ir.Action) (*rule, bool) {
	r, ok := actionTable[action]
	return r, ok
}

// Actions returns every routed action in name order.
func Actions() []ir.Action {
	out := make([]ir.Action, 0, len(actionTable))
	for a := range actionTable {
		out = append(out, a)
	}
	slices.Sort(out)
	return out
}

func (r *rule) run(c *evalCtx) error {
	switch {
	case r.Unsupported:
		return newVerifyError(ErrCodeActionNotSupported, "action %q is never valid on an account cell", c.action)
	case r.Companion != nil:
		return c.requireCompanion(r.Companion)
	}
	if err := c.checkRole(r.Role); err != nil {
		return err
	}
	if r.Flow != nil {
		return r.Flow(c)
	}
	return c.transition(r)
}

// checkRole requires the action witness to name the role the action needs.
func (c *evalCtx) checkRole(req roleReq) error {
	if req == roleNone {
		return nil
	}
	got, ok := c.tx.Action.Role()
	if !ok || got != req.role() {
		return newVerifyError(ErrCodePermissionDenied, "action %s requires the %s role", c.action, req.role()).
			With("params", c.tx.Action.Params)
	}
	return nil
}

// transition runs the common pipeline over the account cells at input[0]
// and output[0].
func (c *evalCtx) transition(r *rule) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	c.step("account cells loaded", "account", in.Data.Account)

	if err := requireStatus(in, r.Statuses...); err != nil {
		return err
	}
	windows := r.Windows
	if windows == nil {
		windows = activeOnly
	}
	if _, err := c.requireWindow(in, windows...); err != nil {
		return err
	}
	if r.Role != roleNone {
		if err := c.verifyRoleSignature(in, r.Role.role()); err != nil {
			return err
		}
	}
	if r.KeepFee {
		if err := VerifyCapacityNotDecrease(in.Cell.Capacity, out.Cell.Capacity); err != nil {
			return err
		}
	} else if err := c.verifyFee(in, out, r.Fee); err != nil {
		return err
	}
	if err := VerifyConsistency(in, out, r.Exceptions); err != nil {
		return err
	}
	c.step("consistency verified")
	if r.ClearRecords {
		if err := verifyRecordsEmpty(out); err != nil {
			return err
		}
	}
	if r.Throttle != nil {
		if err := c.verifyThrottle(in, out, r.Throttle); err != nil {
			return err
		}
	}
	if r.Handler != nil {
		return r.Handler(c, in, out)
	}
	return nil
}
