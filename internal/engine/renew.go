package engine

import (
	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// verifyRenew extends expired_at by what the paid profit buys at the renew
// price of the name's tier. Renewal stays open through the grace period.
func verifyRenew(c *evalCtx) error {
	in, out, err := c.accountPair()
	if err != nil {
		return err
	}
	if _, err := c.requireWindow(in, ExpirationActive, ExpirationGrace); err != nil {
		return err
	}
	if err := VerifyConsistency(in, out, Exceptions{Data: []string{ir.DataFieldExpiredAt}}); err != nil {
		return err
	}
	if err := VerifyCapacityNotDecrease(in.Cell.Capacity, out.Cell.Capacity); err != nil {
		return err
	}

	quote, err := c.quoteCKB()
	if err != nil {
		return err
	}
	length := PricedLength(in.Data.Account)
	tier, ok := c.cfg.Price.Tier(length)
	if !ok {
		return newVerifyError(ErrCodePriceTierMissing, "no price tier for length %d", length)
	}
	yearly, ok := YearlyCapacity(tier.Renew, quote)
	if !ok || yearly == 0 {
		return newVerifyError(ErrCodePriceTierMissing, "renew price of length %d converts to no capacity", length)
	}

	paid, err := c.renewProfit()
	if err != nil {
		return err
	}
	c.step("renew profit found", "paid", paid, "yearly", yearly)

	if out.Data.ExpiredAt <= in.Data.ExpiredAt {
		return newVerifyError(ErrCodeRenewDurationMismatch, "expired_at of %s does not move forward", out)
	}
	duration := out.Data.ExpiredAt - in.Data.ExpiredAt
	if duration < config.YearSec {
		return newVerifyError(ErrCodeRenewDurationMustLongerThanYear, "renewal of %d seconds is shorter than a year", duration)
	}
	expected, ok := RenewDuration(paid, yearly)
	if !ok {
		return newVerifyError(ErrCodeRenewDurationMismatch, "paid %d overflows the duration", paid)
	}
	diff := duration - expected
	if expected > duration {
		diff = expected - duration
	}
	if diff > config.DaySec {
		return newVerifyError(ErrCodeRenewDurationMismatch, "renewal of %d seconds, paid for %d", duration, expected).
			With("paid", paid).With("yearly", yearly)
	}
	c.step("renew duration verified", "duration", duration, "expected", expected)

	return c.verifyPayerChange(paid)
}

// renewProfit returns the capacity credited to the platform wallet by the
// single income cell the renewal creates.
func (c *evalCtx) renewProfit() (uint64, error) {
	incomeType := c.cfg.Main.TypeIDs.IncomeCell
	ins, err := c.findByType(incomeType, tx.SourceInput)
	if err != nil {
		return 0, err
	}
	outs, err := c.findByType(incomeType, tx.SourceOutput)
	if err != nil {
		return 0, err
	}
	if len(ins) != 0 || len(outs) != 1 {
		return 0, newVerifyError(ErrCodeInvalidTransactionStructure,
			"renewal creates exactly one income cell, found %d in inputs and %d in outputs", len(ins), len(outs))
	}
	cell, err := c.load(tx.SourceOutput, outs[0])
	if err != nil {
		return 0, err
	}
	raw, ok := c.tx.Entity(tx.SourceOutput, outs[0], ir.EntityIncome)
	if !ok {
		return 0, newVerifyError(ErrCodeWitnessEntityMissing, "output[%d] has no income witness", outs[0])
	}
	income, err := c.decoder.DecodeIncome(raw)
	if err != nil {
		return 0, newVerifyError(ErrCodeWitnessReadingError, "output[%d]: %v", outs[0], err)
	}

	var total uint64
	for i, r := range income.Records {
		if !r.BelongTo.Equal(c.cfg.Main.PlatformWallet) {
			return 0, newVerifyError(ErrCodeIncomeCellProfitMismatch,
				"income record %d credits a lock other than the platform wallet", i)
		}
		var ok bool
		if total, ok = addCapacity(total, r.Capacity); !ok {
			return 0, newVerifyError(ErrCodeIncomeCellProfitMismatch, "income records overflow at record %d", i)
		}
	}
	if total == 0 || total != cell.Capacity {
		return 0, newVerifyError(ErrCodeIncomeCellProfitMismatch,
			"income records total %d, income cell holds %d", total, cell.Capacity)
	}
	return total, nil
}

// verifyPayerChange requires the payer, who owns input[1], to get back
// everything except paid and the common fee.
func (c *evalCtx) verifyPayerChange(paid uint64) error {
	payer, err := c.load(tx.SourceInput, 1)
	if err != nil {
		return newVerifyError(ErrCodeInvalidTransactionStructure, "renewal needs a payer cell at input[1]")
	}
	var balance uint64
	err = c.scan(tx.SourceInput, func(i int, cell tx.Cell) (bool, error) {
		if i > 0 && cell.Lock.Equal(payer.Lock) {
			var ok bool
			if balance, ok = addCapacity(balance, cell.Capacity); !ok {
				return false, newVerifyError(ErrCodeChangeError, "payer inputs overflow at input[%d]", i)
			}
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	spent, ok := addCapacity(paid, c.cfg.Account.CommonFee)
	if !ok {
		return newVerifyError(ErrCodeChangeError, "paid %d plus the fee overflows", paid)
	}
	var atLeast uint64
	if balance > spent {
		atLeast = balance - spent
	}
	return c.verifyUserChange(payer.Lock, atLeast)
}
