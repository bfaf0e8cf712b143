package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// AuctionPremium is the Dutch auction premium elapsed seconds into the
// auction window. It halves every day, falling linearly within each day.
func AuctionPremium(start, elapsed uint64) uint64 {
	day := elapsed / config.DaySec
	if day >= 64 {
		return 0
	}
	high := start >> day
	low := high >> 1
	drop, _ := mulDiv(high-low, elapsed%config.DaySec, config.DaySec)
	return high - drop
}

// verifyBid hands an account in its auction window to the bidder who spent
// enough points.
func verifyBid(c *evalCtx) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	if err := requireStatus(in, ir.StatusNormal); err != nil {
		return err
	}
	now, err := c.timestamp()
	if err != nil {
		return err
	}
	if w := ClassifyExpiration(c.cfg.Account, in.Data.ExpiredAt, now); w != ExpirationAuction {
		return newVerifyError(ErrCodeAccountCellNotInAuctionPeriod, "%s is in its %s window", in, w).
			With("expired_at", in.Data.ExpiredAt).With("now", now)
	}
	if in.Args.OwnerIsBlackHole() {
		return newVerifyError(ErrCodeAccountOwnerIsBlackHole, "%s is owned by the black hole, check its cross-chain status", in)
	}

	ex := Exceptions{
		Lock: LockAny,
		Data: []string{ir.DataFieldExpiredAt},
		Witness: []string{
			ir.FieldRegisteredAt,
			ir.FieldLastTransferAccountAt,
			ir.FieldLastEditManagerAt,
			ir.FieldLastEditRecordsAt,
			ir.FieldRecords,
		},
	}
	if err := VerifyConsistency(in, out, ex); err != nil {
		return err
	}
	if err := c.verifyFee(in, out, feeCommon); err != nil {
		return err
	}
	if err := verifyRecordsEmpty(out); err != nil {
		return err
	}
	if !out.Args.OwnerIsManager() {
		return newVerifyError(ErrCodeAccountCellOwnerShouldBeManager, "owner and manager of %s should be the same", out)
	}
	for _, field := range ex.Witness[:4] {
		if ts, ok := timestampField(out.Record, field); !ok || ts != now {
			return newVerifyError(ErrCodeAccountCellTimestampMismatch, "%s of %s should be %d", field, out, now)
		}
	}
	if out.Data.ExpiredAt != now+config.YearSec {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "expired_at of %s should be %d", out, now+config.YearSec)
	}
	c.step("bid record reset")

	storage := StorageCapacity(c.cfg.Account, out.Args.OwnerKind, out.Data.Account)
	if out.Cell.Capacity < storage {
		return newVerifyError(ErrCodeCapacityBelowStorage, "%s holds %d, storage needs %d", out, out.Cell.Capacity, storage)
	}
	fee := c.cfg.Account.CommonFee
	var refund uint64
	if in.Cell.Capacity > fee {
		refund = in.Cell.Capacity - fee
	}
	if err := c.verifyUserChange(c.ownerLock(in), refund); err != nil {
		return err
	}

	quote, err := c.quoteCKB()
	if err != nil {
		return err
	}
	length := PricedLength(out.Data.Account)
	tier, ok := c.cfg.Price.Tier(length)
	if !ok {
		return newVerifyError(ErrCodePriceTierMissing, "no price tier for length %d", length)
	}
	storageUSD, ok := mulDiv(storage, quote, config.OneCKB)
	if !ok {
		return newVerifyError(ErrCodeBidPriceTooLow, "storage price overflows")
	}
	basic := storageUSD + tier.New
	auctionElapsed := now - in.Data.ExpiredAt - c.cfg.Account.ExpirationGracePeriod
	premium := AuctionPremium(c.cfg.Account.AuctionStartPremium, auctionElapsed)

	spent, err := c.verifyPointsLedger(out.Args)
	if err != nil {
		return err
	}
	if spent < basic+premium {
		return newVerifyError(ErrCodeBidPriceTooLow, "bid of %d is below %d", spent, basic+premium).
			With("basic", basic).With("premium", premium)
	}
	c.step("bid price verified", "spent", spent, "basic", basic, "premium", premium)
	return nil
}

// verifyPointsLedger checks the points moved by a bid and returns the amount
// spent. The bidder is the only input address; outputs hold at most the
// bidder's change and one collector, which receives exactly what was spent.
func (c *evalCtx) verifyPointsLedger(bidder ir.LockArgs) (uint64, error) {
	inSums, err := c.pointsBySource(tx.SourceInput)
	if err != nil {
		return 0, err
	}
	outSums, err := c.pointsBySource(tx.SourceOutput)
	if err != nil {
		return 0, err
	}
	if len(inSums) != 1 {
		return 0, newVerifyError(ErrCodePointsLedgerMismatch, "points come from %d addresses, expected one", len(inSums))
	}
	key := bidder.OwnerKey()
	paidIn, ok := inSums[key]
	if !ok {
		return 0, newVerifyError(ErrCodePointsLedgerMismatch, "points are not paid by the bidder")
	}
	if len(outSums) > 2 {
		return 0, newVerifyError(ErrCodePointsLedgerMismatch, "points go to %d addresses, expected at most two", len(outSums))
	}
	change := outSums[key]
	if change >= paidIn {
		return 0, newVerifyError(ErrCodePointsLedgerMismatch, "bidder spent no points")
	}
	spent := paidIn - change

	collectors := 0
	var gained uint64
	for k, v := range outSums {
		if k != key {
			collectors++
			gained = v
		}
	}
	if collectors != 1 || gained != spent {
		return 0, newVerifyError(ErrCodePointsLedgerMismatch, "collector receives %d of %d spent", gained, spent).
			With("collectors", collectors)
	}
	c.step("points ledger balanced", "spent", spent)
	return spent, nil
}

func (c *evalCtx) pointsBySource(src tx.Source) (map[string]uint64, error) {
	sums := make(map[string]uint64)
	pointsType := c.cfg.Main.TypeIDs.PointsCell
	err := c.scan(src, func(i int, cell tx.Cell) (bool, error) {
		if !cell.HasType(pointsType) {
			return true, nil
		}
		args, err := ir.ParseLockArgs(cell.Lock.Args)
		if err != nil {
			return false, newVerifyError(ErrCodeInvalidLockArgs, "points cell %s[%d]: %v", src, i, err)
		}
		value, err := ir.ParsePointsCellData(cell.Data)
		if err != nil {
			return false, newVerifyError(ErrCodeInvalidCellData, "points cell %s[%d]: %v", src, i, err)
		}
		sum, ok := addCapacity(sums[args.OwnerKey()], value)
		if !ok {
			return false, newVerifyError(ErrCodePointsLedgerMismatch, "points of %s overflow at %s[%d]", args.OwnerKey(), src, i)
		}
		sums[args.OwnerKey()] = sum
		return true, nil
	})
	return sums, err
}

// verifyConfirmAuction closes an auction nobody won: the keepers confirm,
// records are cleared and the owner is refunded with any sub-account profit.
func verifyConfirmAuction(c *evalCtx) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	if _, err := c.requireWindow(in, ExpirationConfirmation, ExpirationExpired); err != nil {
		return err
	}
	if err := requireStatus(in, ir.StatusNormal); err != nil {
		return err
	}
	if err := c.verifyFee(in, out, feeCommon); err != nil {
		return err
	}
	if err := VerifyConsistency(in, out, Exceptions{Witness: []string{ir.FieldRecords}}); err != nil {
		return err
	}
	if err := verifyRecordsEmpty(out); err != nil {
		return err
	}
	if err := c.verifyMultiSign(in); err != nil {
		return err
	}

	profit, err := c.collectedSubAccount(in)
	if err != nil {
		return err
	}
	if err := c.verifyUserChange(c.ownerLock(in), in.Cell.Capacity+profit.Owner); err != nil {
		return err
	}
	if profit.Platform >= config.CellBasic {
		return c.verifyPlatformChange(profit.Platform)
	}
	return nil
}
