package engine

import (
	"math/bits"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// AccountSuffix is the top-level suffix every account name carries.
const AccountSuffix = ".bit"

// feeKey selects the fee an action pays from the account cell.
type feeKey uint8

const (
	feeCommon feeKey = iota
	feeTransferAccount
	feeEditManager
	feeEditRecords
)

func (k feeKey) amount(a config.Account) uint64 {
	switch k {
	case feeTransferAccount:
		return a.TransferAccountFee
	case feeEditManager:
		return a.EditManagerFee
	case feeEditRecords:
		return a.EditRecordsFee
	default:
		return a.CommonFee
	}
}

// StorageCapacity is the capacity an account cell must keep: the basic
// capacity of its owner lock kind plus one CKB per byte of the name.
func StorageCapacity(a config.Account, owner ir.LockKind, account string) uint64 {
	basic := a.BasicCapacity
	if owner == ir.LockMIXIN {
		basic = config.MixinBasicCapacity
	}
	return basic + uint64(len(account))*config.OneCKB
}

// PricedLength is the character count used to pick a price tier: the NFC
// normalized label without the suffix, capped at AccountMaxPricedLength.
func PricedLength(account string) int {
	label := norm.NFC.String(strings.TrimSuffix(account, AccountSuffix))
	n := utf8.RuneCountInString(label)
	if n > config.AccountMaxPricedLength {
		n = config.AccountMaxPricedLength
	}
	return n
}

// VerifyFeeSpent checks the capacity an account cell gives up. Below
// storage+fee the cell must keep all of its capacity.
func VerifyFeeSpent(in, out, storage, fee uint64) error {
	if in < storage {
		return newVerifyError(ErrCodeCapacityBelowStorage, "capacity %d is below storage capacity %d", in, storage)
	}
	if in >= storage+fee {
		if out+fee != in {
			return newVerifyError(ErrCodeTxFeeSpentError, "account cell should pay exactly %d, paid %d", fee, int64(in)-int64(out)).
				With("input", in).With("output", out)
		}
		return nil
	}
	if out != in {
		return newVerifyError(ErrCodeTxFeeSpentError, "account cell cannot afford the fee and should keep %d", in).
			With("output", out)
	}
	return nil
}

// VerifyCapacityNotDecrease requires out to keep at least the capacity of in.
func VerifyCapacityNotDecrease(in, out uint64) error {
	if out < in {
		return newVerifyError(ErrCodeAccountCellCapacityDecreased, "capacity decreased from %d to %d", in, out)
	}
	return nil
}

func (c *evalCtx) verifyFee(in, out *AccountCell, key feeKey) error {
	storage := StorageCapacity(c.cfg.Account, in.Args.OwnerKind, in.Data.Account)
	fee := key.amount(c.cfg.Account)
	if err := VerifyFeeSpent(in.Cell.Capacity, out.Cell.Capacity, storage, fee); err != nil {
		return err
	}
	c.step("fee spent correctly", "fee", fee, "storage", storage)
	return nil
}

// addCapacity returns a+b, or false when the sum leaves 64 bits.
func addCapacity(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// mulDiv returns a*b/d with a 128-bit intermediate product.
func mulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}

// YearlyCapacity converts a USD yearly price into shannons at quote.
func YearlyCapacity(priceUSD, quote uint64) (uint64, bool) {
	return mulDiv(priceUSD, config.OneCKB, quote)
}

// RenewDuration is the number of seconds paid shannons buy at yearly
// shannons per year.
func RenewDuration(paid, yearly uint64) (uint64, bool) {
	return mulDiv(paid, config.YearSec, yearly)
}

// payoutCells lists outputs locked by lock that carry no type script or the
// balance type, with their total capacity.
func (c *evalCtx) payoutCells(lock ir.Script) ([]int, uint64, error) {
	var (
		idx   []int
		total uint64
	)
	balance := c.cfg.Main.TypeIDs.BalanceCell
	err := c.scan(tx.SourceOutput, func(i int, cell tx.Cell) (bool, error) {
		if cell.Lock.Equal(lock) && (cell.Type == nil || cell.HasType(balance)) {
			var ok bool
			idx = append(idx, i)
			if total, ok = addCapacity(total, cell.Capacity); !ok {
				return false, newVerifyError(ErrCodeRefundError, "payouts overflow at output[%d]", i)
			}
		}
		return true, nil
	})
	return idx, total, err
}

// verifyRefund requires exactly one payout cell to lock carrying expected.
func (c *evalCtx) verifyRefund(lock ir.Script, expected uint64) error {
	idx, total, err := c.payoutCells(lock)
	if err != nil {
		return err
	}
	if len(idx) != 1 {
		return newVerifyError(ErrCodeRefundError, "expected one refund cell, found %d", len(idx)).
			With("lock", lock.Args)
	}
	if total != expected {
		return newVerifyError(ErrCodeRefundError, "refund is %d, expected %d", total, expected).
			With("index", idx[0])
	}
	c.step("refund verified", "capacity", expected)
	return nil
}

// verifyUserChange requires the payouts to lock to total at least atLeast.
func (c *evalCtx) verifyUserChange(lock ir.Script, atLeast uint64) error {
	_, total, err := c.payoutCells(lock)
	if err != nil {
		return err
	}
	if total < atLeast {
		return newVerifyError(ErrCodeChangeError, "change is %d, expected at least %d", total, atLeast).
			With("lock", lock.Args)
	}
	c.step("change verified", "capacity", total)
	return nil
}

// platformCells returns the outputs locked by the platform wallet.
// Platform wallet cells never carry a type script.
func (c *evalCtx) platformCells() ([]tx.Cell, error) {
	var cells []tx.Cell
	wallet := c.cfg.Main.PlatformWallet
	err := c.scan(tx.SourceOutput, func(i int, cell tx.Cell) (bool, error) {
		if !cell.Lock.Equal(wallet) {
			return true, nil
		}
		if cell.Type != nil {
			return false, newVerifyError(ErrCodeRefundError, "platform wallet cell output[%d] carries a type script", i)
		}
		cells = append(cells, cell)
		return true, nil
	})
	return cells, err
}

// verifyPlatformChange requires the platform wallet to receive at least atLeast.
func (c *evalCtx) verifyPlatformChange(atLeast uint64) error {
	cells, err := c.platformCells()
	if err != nil {
		return err
	}
	var total uint64
	for i, cell := range cells {
		var ok bool
		if total, ok = addCapacity(total, cell.Capacity); !ok {
			return newVerifyError(ErrCodeRefundError, "platform wallet payouts overflow at cell %d", i)
		}
	}
	if total < atLeast {
		return newVerifyError(ErrCodeRefundError, "platform wallet receives %d, expected at least %d", total, atLeast)
	}
	c.step("platform change verified", "capacity", total)
	return nil
}
