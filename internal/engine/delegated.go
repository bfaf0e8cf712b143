package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

func saleCompanion(src tx.Source) *companion {
	return &companion{
		Name:   "account-sale-cell-type",
		TypeID: func(t config.TypeIDs) ir.Hash { return t.AccountSaleCell },
		Source: src,
	}
}

func auctionCompanion(src tx.Source) *companion {
	return &companion{
		Name:   "account-auction-cell-type",
		TypeID: func(t config.TypeIDs) ir.Hash { return t.AccountAuctionCell },
		Source: src,
	}
}

var (
	offerCompanion = &companion{
		Name:   "offer-cell-type",
		TypeID: func(t config.TypeIDs) ir.Hash { return t.OfferCell },
		Source: tx.SourceInput,
	}
	proposalCompanion = &companion{
		Name:   "proposal-cell-type",
		TypeID: func(t config.TypeIDs) ir.Hash { return t.ProposalCell },
		Source: tx.SourceInput,
	}
	subAccountCompanion = &companion{
		Name:   "sub-account-cell-type",
		TypeID: func(t config.TypeIDs) ir.Hash { return t.SubAccountCell },
		Source: tx.SourceInput,
	}
)

// requireCompanion accepts a delegated action once its companion type
// script is present. The companion verifies the rest.
func (c *evalCtx) requireCompanion(comp *companion) error {
	found := false
	typeID := comp.TypeID(c.cfg.Main.TypeIDs)
	err := c.scan(comp.Source, func(_ int, cell tx.Cell) (bool, error) {
		found = cell.HasType(typeID)
		return !found, nil
	})
	if err != nil {
		return err
	}
	if !found {
		return newVerifyError(ErrCodeCompanionScriptRequired, "%s must be present in %ss", comp.Name, comp.Source)
	}
	c.step("companion script present", "script", comp.Name, "source", comp.Source.String())
	return nil
}
