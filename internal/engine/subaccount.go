package engine

import (
	"bytes"

	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// verifyEnableSubAccount switches the flag on and requires the new
// sub-account cell at output[1].
func verifyEnableSubAccount(c *evalCtx, in, out *AccountCell) error {
	if enabled, _ := in.Record.EnableSubAccount(); enabled {
		return newVerifyError(ErrCodeSubAccountFlagError, "sub-account of %s is already enabled", in)
	}
	if enabled, ok := out.Record.EnableSubAccount(); !ok || !enabled {
		return newVerifyError(ErrCodeSubAccountFlagError, "%s should enable sub-account", out)
	}

	typeID := c.cfg.Main.TypeIDs.SubAccountCell
	ins, err := c.findByType(typeID, tx.SourceInput)
	if err != nil {
		return err
	}
	outs, err := c.findByType(typeID, tx.SourceOutput)
	if err != nil {
		return err
	}
	if len(ins) != 0 || len(outs) != 1 || outs[0] != 1 {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "a new sub-account cell is expected at output[1] only")
	}
	cell, err := c.load(tx.SourceOutput, 1)
	if err != nil {
		return err
	}
	if err := c.verifySubAccountCell(cell, in); err != nil {
		return err
	}
	want := c.cfg.SubAccount.BasicCapacity + c.cfg.SubAccount.PreparedFeeCapacity
	if cell.Capacity != want {
		return newVerifyError(ErrCodeSubAccountCellCapacityError, "sub-account cell holds %d, expected %d", cell.Capacity, want)
	}
	data, err := ir.ParseSubAccountCellData(cell.Data)
	if err != nil {
		return newVerifyError(ErrCodeInvalidCellData, "output[1]: %v", err)
	}
	if data.DasProfit != 0 || data.OwnerProfit != 0 {
		return newVerifyError(ErrCodeSubAccountCellCapacityError, "a new sub-account cell starts with no profit")
	}
	c.step("sub-account enabled")
	return nil
}

// verifySubAccountCell checks the lock and type args of a sub-account cell
// belonging to parent.
func (c *evalCtx) verifySubAccountCell(cell tx.Cell, parent *AccountCell) error {
	if !cell.Lock.Equal(c.cfg.Main.AlwaysSuccessLock) {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "sub-account cell must use the always-success lock")
	}
	if !bytes.Equal(cell.Type.Args, parent.Data.ID[:]) {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "sub-account cell type args should be the id of %s", parent)
	}
	return nil
}

// subAccountProfit is how the capacity of a sub-account cell is split when
// its parent account goes away.
type subAccountProfit struct {
	Owner    uint64
	Platform uint64
}

// recycledSubAccount reads the sub-account cell destroyed with parent. The
// platform gets das_profit and the owner gets the rest of the capacity.
func (c *evalCtx) recycledSubAccount(parent *AccountCell, index int) (subAccountProfit, error) {
	typeID := c.cfg.Main.TypeIDs.SubAccountCell
	ins, err := c.findByType(typeID, tx.SourceInput)
	if err != nil {
		return subAccountProfit{}, err
	}
	outs, err := c.findByType(typeID, tx.SourceOutput)
	if err != nil {
		return subAccountProfit{}, err
	}
	if enabled, _ := parent.Record.EnableSubAccount(); !enabled {
		if len(ins) != 0 {
			return subAccountProfit{}, newVerifyError(ErrCodeInvalidTransactionStructure,
				"%s has no sub-account but a sub-account cell is consumed", parent)
		}
		return subAccountProfit{}, nil
	}
	if len(ins) != 1 || ins[0] != index || len(outs) != 0 {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidTransactionStructure,
			"the sub-account cell of %s is expected at input[%d] and destroyed", parent, index)
	}
	cell, err := c.load(tx.SourceInput, index)
	if err != nil {
		return subAccountProfit{}, err
	}
	if err := c.verifySubAccountCell(cell, parent); err != nil {
		return subAccountProfit{}, err
	}
	data, err := ir.ParseSubAccountCellData(cell.Data)
	if err != nil {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidCellData, "input[%d]: %v", index, err)
	}
	if data.DasProfit > cell.Capacity {
		return subAccountProfit{}, newVerifyError(ErrCodeSubAccountCellCapacityError,
			"das_profit %d exceeds the cell capacity %d", data.DasProfit, cell.Capacity)
	}
	return subAccountProfit{Owner: cell.Capacity - data.DasProfit, Platform: data.DasProfit}, nil
}

// collectedSubAccount checks a sub-account cell that survives at input[1]
// and output[1] with all profit collected.
func (c *evalCtx) collectedSubAccount(parent *AccountCell) (subAccountProfit, error) {
	typeID := c.cfg.Main.TypeIDs.SubAccountCell
	ins, err := c.findByType(typeID, tx.SourceInput)
	if err != nil {
		return subAccountProfit{}, err
	}
	outs, err := c.findByType(typeID, tx.SourceOutput)
	if err != nil {
		return subAccountProfit{}, err
	}
	if enabled, _ := parent.Record.EnableSubAccount(); !enabled {
		return subAccountProfit{}, nil
	}
	if len(ins) != 1 || ins[0] != 1 || len(outs) != 1 || outs[0] != 1 {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidTransactionStructure,
			"the sub-account cell of %s is expected at input[1] and output[1]", parent)
	}
	inCell, err := c.load(tx.SourceInput, 1)
	if err != nil {
		return subAccountProfit{}, err
	}
	outCell, err := c.load(tx.SourceOutput, 1)
	if err != nil {
		return subAccountProfit{}, err
	}
	if err := c.verifySubAccountCell(outCell, parent); err != nil {
		return subAccountProfit{}, err
	}
	inData, err := ir.ParseSubAccountCellData(inCell.Data)
	if err != nil {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidCellData, "input[1]: %v", err)
	}
	outData, err := ir.ParseSubAccountCellData(outCell.Data)
	if err != nil {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidCellData, "output[1]: %v", err)
	}
	if !inCell.Lock.Equal(outCell.Lock) || !inCell.Type.Equal(*outCell.Type) || inData.SMTRoot != outData.SMTRoot {
		return subAccountProfit{}, newVerifyError(ErrCodeInvalidTransactionStructure, "sub-account cell may only change its profit")
	}
	if outData.DasProfit != 0 || outData.OwnerProfit != 0 {
		return subAccountProfit{}, newVerifyError(ErrCodeRefundError, "all profit in the sub-account cell should be collected")
	}
	if outCell.Capacity != c.cfg.SubAccount.BasicCapacity {
		return subAccountProfit{}, newVerifyError(ErrCodeSubAccountCellCapacityError,
			"sub-account cell should keep %d, holds %d", c.cfg.SubAccount.BasicCapacity, outCell.Capacity)
	}
	return subAccountProfit{Owner: inData.OwnerProfit, Platform: inData.DasProfit}, nil
}
