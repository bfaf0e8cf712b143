package engine

import (
	"math"
	"testing"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
	"github.com/roach88/accountcell/internal/tx"
)

// One year of a five-letter name at the default quote.
const yearOfAlice = 500 * config.OneCKB

type renewCase struct {
	in, out  testutil.Account
	income   []ir.IncomeRecord
	payerIn  uint64
	payerOut uint64
	quote    bool
}

func newRenewCase(cfg *config.Config) *renewCase {
	in := testutil.NewAccount("alice.bit", alice)
	out := in.With(func(a *testutil.Account) { a.ExpiredAt += config.YearSec })
	return &renewCase{
		in:       in,
		out:      out,
		income:   []ir.IncomeRecord{{BelongTo: cfg.Main.PlatformWallet, Capacity: yearOfAlice}},
		payerIn:  600 * config.OneCKB,
		payerOut: 100*config.OneCKB - cfg.Account.CommonFee,
		quote:    true,
	}
}

func (rc *renewCase) build(cfg *config.Config) *tx.Transaction {
	payer := testutil.OwnerArgs("payer")
	income, entity := testutil.IncomeCell(cfg, rc.income...)
	b := testutil.NewBuilder(cfg, ir.ActionRenewAccount).Now(now)
	if rc.quote {
		b = b.Quote(testutil.Quote)
	}
	return b.InputAccount(rc.in).
		Input(testutil.BalanceCell(cfg, payer, rc.payerIn)).
		OutputAccount(rc.out).
		OutputWithEntity(income, ir.EntityIncome, entity).
		Output(testutil.BalanceCell(cfg, payer, rc.payerOut)).
		Build()
}

func TestRenewAccount(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *config.Config, rc *renewCase)
		want   ErrorCode
	}{
		{name: "one year"},
		{
			name: "income records wrap around",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.income = []ir.IncomeRecord{
					{BelongTo: cfg.Main.PlatformWallet, Capacity: math.MaxUint64},
					{BelongTo: cfg.Main.PlatformWallet, Capacity: yearOfAlice + 1},
				}
			},
			want: ErrCodeIncomeCellProfitMismatch,
		},
		{
			name: "two years",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.ExpiredAt = rc.in.ExpiredAt + 2*config.YearSec
				rc.income[0].Capacity = 2 * yearOfAlice
				rc.payerIn = 1_100 * config.OneCKB
			},
		},
		{
			name: "within a day of the paid duration",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.ExpiredAt += config.DaySec
			},
		},
		{
			name: "more than a day over",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.ExpiredAt += config.DaySec + 1
			},
			want: ErrCodeRenewDurationMismatch,
		},
		{
			name: "paid for two years, extended one",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.income[0].Capacity = 2 * yearOfAlice
				rc.payerIn = 1_100 * config.OneCKB
			},
			want: ErrCodeRenewDurationMismatch,
		},
		{
			name: "shorter than a year",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.ExpiredAt = rc.in.ExpiredAt + config.YearSec/2
				rc.income[0].Capacity = yearOfAlice / 2
			},
			want: ErrCodeRenewDurationMustLongerThanYear,
		},
		{
			name: "renewed in the grace period",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.in.ExpiredAt = now - 10*config.DaySec
				rc.out.ExpiredAt = rc.in.ExpiredAt + config.YearSec
			},
		},
		{
			name: "auction has started",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.in.ExpiredAt = now - cfg.Account.ExpirationGracePeriod - config.DaySec
				rc.out.ExpiredAt = rc.in.ExpiredAt + config.YearSec
			},
			want: ErrCodeAccountCellInAuctionPeriod,
		},
		{
			name: "profit credited elsewhere",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.income[0].BelongTo = testutil.OwnerLock(cfg, alice)
			},
			want: ErrCodeIncomeCellProfitMismatch,
		},
		{
			name: "account cell pays",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.Capacity--
			},
			want: ErrCodeAccountCellCapacityDecreased,
		},
		{
			name: "other fields modified",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.out.Fields.Status = ir.StatusSelling
			},
			want: ErrCodeAccountCellProtectFieldIsModified,
		},
		{
			name: "payer change short",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.payerOut -= 1
			},
			want: ErrCodeChangeError,
		},
		{
			name: "no quote",
			mutate: func(cfg *config.Config, rc *renewCase) {
				rc.quote = false
			},
			want: ErrCodeOracleCellIsRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			rc := newRenewCase(cfg)
			if tt.mutate != nil {
				tt.mutate(cfg, rc)
			}
			requireCode(t, tt.want, newTestVerifier(cfg).Verify(rc.build(cfg)))
		})
	}
}

func TestRenewAccountIncomeCellCount(t *testing.T) {
	cfg := config.Default()
	in := testutil.NewAccount("alice.bit", alice)
	out := in.With(func(a *testutil.Account) { a.ExpiredAt += config.YearSec })
	txn := testutil.NewBuilder(cfg, ir.ActionRenewAccount).
		Now(now).
		Quote(testutil.Quote).
		InputAccount(in).
		OutputAccount(out).
		Build()

	requireCode(t, ErrCodeInvalidTransactionStructure, newTestVerifier(cfg).Verify(txn))
}

func TestRenewAccountIncomeCapacityMismatch(t *testing.T) {
	cfg := config.Default()
	payer := testutil.OwnerArgs("payer")
	in := testutil.NewAccount("alice.bit", alice)
	out := in.With(func(a *testutil.Account) { a.ExpiredAt += config.YearSec })
	income, entity := testutil.IncomeCell(cfg, ir.IncomeRecord{BelongTo: cfg.Main.PlatformWallet, Capacity: yearOfAlice})
	income.Capacity += config.OneCKB
	txn := testutil.NewBuilder(cfg, ir.ActionRenewAccount).
		Now(now).
		Quote(testutil.Quote).
		InputAccount(in).
		Input(testutil.BalanceCell(cfg, payer, 600*config.OneCKB)).
		OutputAccount(out).
		OutputWithEntity(income, ir.EntityIncome, entity).
		Build()

	requireCode(t, ErrCodeIncomeCellProfitMismatch, newTestVerifier(cfg).Verify(txn))
}
