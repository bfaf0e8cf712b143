package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
)

func TestStorageCapacity(t *testing.T) {
	a := config.Default().Account

	assert.Equal(t, a.BasicCapacity+9*config.OneCKB, StorageCapacity(a, ir.LockCKBSingle, "alice.bit"))
	assert.Equal(t, config.MixinBasicCapacity+9*config.OneCKB, StorageCapacity(a, ir.LockMIXIN, "alice.bit"))
}

func TestPricedLength(t *testing.T) {
	tests := []struct {
		account string
		want    int
	}{
		{"a.bit", 1},
		{"alice.bit", 5},
		{"abcdefghijkl.bit", 8},
		{"café.bit", 4},
		{"cafe\u0301.bit", 4},
		{"\U0001F600\U0001F600.bit", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PricedLength(tt.account), tt.account)
	}
}

func TestVerifyFeeSpent(t *testing.T) {
	const storage, fee = 1_000, 10

	tests := []struct {
		name    string
		in, out uint64
		want    ErrorCode
	}{
		{name: "exact fee", in: 2_000, out: 1_990},
		{name: "fee too high", in: 2_000, out: 1_989, want: ErrCodeTxFeeSpentError},
		{name: "fee too low", in: 2_000, out: 1_995, want: ErrCodeTxFeeSpentError},
		{name: "cannot afford keeps capacity", in: 1_005, out: 1_005},
		{name: "cannot afford but pays", in: 1_005, out: 1_000, want: ErrCodeTxFeeSpentError},
		{name: "exactly storage plus fee", in: 1_010, out: 1_000},
		{name: "below storage", in: 999, out: 999, want: ErrCodeCapacityBelowStorage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireCode(t, tt.want, VerifyFeeSpent(tt.in, tt.out, storage, fee))
		})
	}
}

func TestVerifyCapacityNotDecrease(t *testing.T) {
	assert.NoError(t, VerifyCapacityNotDecrease(10, 10))
	assert.NoError(t, VerifyCapacityNotDecrease(10, 11))
	requireCode(t, ErrCodeAccountCellCapacityDecreased, VerifyCapacityNotDecrease(10, 9))
}

func TestMulDiv(t *testing.T) {
	q, ok := mulDiv(math.MaxUint64, 2, 4)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64/2), q)

	_, ok = mulDiv(math.MaxUint64, 2, 1)
	assert.False(t, ok)

	_, ok = mulDiv(1, 1, 0)
	assert.False(t, ok)
}

func TestAddCapacity(t *testing.T) {
	sum, ok := addCapacity(math.MaxUint64-1, 1)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), sum)

	_, ok = addCapacity(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestRenewArithmetic(t *testing.T) {
	// 5 USD a year at 0.01 USD per CKB is 500 CKB.
	yearly, ok := YearlyCapacity(5*config.OneUSD, 10_000)
	assert.True(t, ok)
	assert.Equal(t, 500*config.OneCKB, yearly)

	d, ok := RenewDuration(1_000*config.OneCKB, yearly)
	assert.True(t, ok)
	assert.Equal(t, 2*config.YearSec, d)

	d, ok = RenewDuration(250*config.OneCKB, yearly)
	assert.True(t, ok)
	assert.Equal(t, config.YearSec/2, d)
}
