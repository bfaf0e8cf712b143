package engine

import (
	"strings"
	"testing"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
)

func transferFixture(cfg *config.Config) (in, out testutil.Account) {
	in = testutil.NewAccount("alice.bit", alice).With(func(a *testutil.Account) {
		a.Fields.Records = ir.Records{{Type: "text", Key: "email", Value: "alice@example.com"}}
		a.Fields.LastTransferAccountAt = now - 2*config.DaySec
	})
	out = in.With(func(a *testutil.Account) {
		a.Args = bob
		a.Capacity -= cfg.Account.TransferAccountFee
		a.Fields.Records = nil
		a.Fields.LastTransferAccountAt = now
	})
	return in, out
}

func TestTransferAccount(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in, out *testutil.Account)
		build  func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder
		want   ErrorCode
	}{
		{name: "accepted"},
		{
			name: "never transferred before",
			mutate: func(in, out *testutil.Account) {
				in.Fields.LastTransferAccountAt = 0
			},
		},
		{
			name: "owner unchanged",
			mutate: func(in, out *testutil.Account) {
				out.Args = testutil.Args("alice", "someone")
			},
			want: ErrCodeAccountCellOwnerLockShouldBeChanged,
		},
		{
			name: "records kept",
			mutate: func(in, out *testutil.Account) {
				out.Fields.Records = in.Fields.Records
			},
			want: ErrCodeAccountCellRecordNotEmpty,
		},
		{
			name: "throttled",
			mutate: func(in, out *testutil.Account) {
				in.Fields.LastTransferAccountAt = now - 3600
			},
			want: ErrCodeAccountCellThrottle,
		},
		{
			name: "exactly one interval since the last transfer",
			mutate: func(in, out *testutil.Account) {
				in.Fields.LastTransferAccountAt = now - config.Default().Account.TransferAccountThrottle
			},
		},
		{
			name: "one second short of the interval",
			mutate: func(in, out *testutil.Account) {
				in.Fields.LastTransferAccountAt = now - config.Default().Account.TransferAccountThrottle + 1
			},
			want: ErrCodeAccountCellThrottle,
		},
		{
			name: "timestamp not stamped",
			mutate: func(in, out *testutil.Account) {
				out.Fields.LastTransferAccountAt = now - 1
			},
			want: ErrCodeAccountCellTimestampMismatch,
		},
		{
			name: "fee overpaid",
			mutate: func(in, out *testutil.Account) {
				out.Capacity -= 1
			},
			want: ErrCodeTxFeeSpentError,
		},
		{
			name: "protected field modified",
			mutate: func(in, out *testutil.Account) {
				out.Fields.RegisteredAt++
			},
			want: ErrCodeAccountCellProtectFieldIsModified,
		},
		{
			name: "data field modified",
			mutate: func(in, out *testutil.Account) {
				out.ExpiredAt++
			},
			want: ErrCodeAccountCellDataNotConsistent,
		},
		{
			name: "record version downgraded",
			mutate: func(in, out *testutil.Account) {
				out.Version = 3
			},
			want: ErrCodeWitnessVersionUnsupported,
		},
		{
			name: "listed for sale",
			mutate: func(in, out *testutil.Account) {
				in.Fields.Status = ir.StatusSelling
				out.Fields.Status = ir.StatusSelling
			},
			want: ErrCodeAccountCellStatusLocked,
		},
		{
			name: "in grace period",
			mutate: func(in, out *testutil.Account) {
				in.ExpiredAt = now - config.DaySec
				out.ExpiredAt = in.ExpiredAt
			},
			want: ErrCodeAccountCellInGracePeriod,
		},
		{
			name: "role param missing",
			build: func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder {
				return b.Params().SignRole(0, alice, ir.RoleOwner)
			},
			want: ErrCodePermissionDenied,
		},
		{
			name: "manager role requested",
			build: func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder {
				return b.Role(ir.RoleManager).SignRole(0, alice, ir.RoleManager)
			},
			want: ErrCodePermissionDenied,
		},
		{
			name: "unsigned",
			build: func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder {
				return b
			},
			want: ErrCodeSignatureMissing,
		},
		{
			name: "signed by the manager",
			build: func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder {
				return b.SignRole(0, alice, ir.RoleManager)
			},
			want: ErrCodeSignatureVerifyFailed,
		},
		{
			name: "no time oracle",
			build: func(b *testutil.Builder, in, out testutil.Account) *testutil.Builder {
				return testutil.NewBuilder(config.Default(), ir.ActionTransferAccount).
					Role(ir.RoleOwner).
					InputAccount(in).
					OutputAccount(out).
					SignRole(0, alice, ir.RoleOwner)
			},
			want: ErrCodeOracleCellIsRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			in, out := transferFixture(cfg)
			if tt.mutate != nil {
				tt.mutate(&in, &out)
			}
			b := testutil.NewBuilder(cfg, ir.ActionTransferAccount).
				Role(ir.RoleOwner).
				Now(now).
				InputAccount(in).
				OutputAccount(out)
			if tt.build != nil {
				b = tt.build(b, in, out)
			} else {
				b = b.SignRole(0, alice, ir.RoleOwner)
			}

			requireCode(t, tt.want, newTestVerifier(cfg).Verify(b.Build()))
		})
	}
}

func TestEditManager(t *testing.T) {
	tests := []struct {
		name    string
		manager ir.LockArgs
		want    ErrorCode
	}{
		{name: "accepted", manager: testutil.Args("alice", "carol")},
		{name: "manager unchanged", manager: alice, want: ErrCodeAccountCellManagerLockShouldChange},
		{name: "owner changed", manager: testutil.Args("bob", "carol"), want: ErrCodeAccountCellLockShouldNotBeModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			in := testutil.NewAccount("alice.bit", alice)
			out := in.With(func(a *testutil.Account) {
				a.Args = tt.manager
				a.Capacity -= cfg.Account.EditManagerFee
				a.Fields.LastEditManagerAt = now
			})
			txn := testutil.NewBuilder(cfg, ir.ActionEditManager).
				Role(ir.RoleOwner).
				Now(now).
				InputAccount(in).
				OutputAccount(out).
				SignRole(0, alice, ir.RoleOwner).
				Build()

			requireCode(t, tt.want, newTestVerifier(cfg).Verify(txn))
		})
	}
}

func TestEditRecords(t *testing.T) {
	tests := []struct {
		name    string
		records ir.Records
		mutate  func(in, out *testutil.Account)
		byOwner bool
		want    ErrorCode
	}{
		{
			name:    "accepted",
			records: ir.Records{{Type: "profile", Key: "twitter", Value: "@alice"}, {Type: "address", Key: "60", Value: "0xabc"}},
		},
		{
			name:    "custom key",
			records: ir.Records{{Type: "custom_key", Key: "my_key_1", Value: "v"}},
		},
		{
			name:    "key outside namespace",
			records: ir.Records{{Type: "profile", Key: "myspace", Value: "x"}},
			want:    ErrCodeAccountCellRecordKeyInvalid,
		},
		{
			name:    "address key is not a coin type",
			records: ir.Records{{Type: "address", Key: "eth", Value: "0xabc"}},
			want:    ErrCodeAccountCellRecordKeyInvalid,
		},
		{
			name:    "records too large",
			records: ir.Records{{Type: "text", Key: "email", Value: strings.Repeat("x", 5000)}},
			want:    ErrCodeAccountCellRecordSizeTooLarge,
		},
		{
			name:    "approved transfer keeps records editable",
			records: ir.Records{{Type: "text", Key: "email", Value: "a@b.c"}},
			mutate: func(in, out *testutil.Account) {
				in.Fields.Status = ir.StatusApprovedTransfer
				out.Fields.Status = ir.StatusApprovedTransfer
			},
		},
		{
			name:    "throttled",
			records: ir.Records{{Type: "text", Key: "email", Value: "a@b.c"}},
			mutate: func(in, out *testutil.Account) {
				in.Fields.LastEditRecordsAt = now - 60
			},
			want: ErrCodeAccountCellThrottle,
		},
		{
			name:    "version 1 record has no throttle",
			records: ir.Records{{Type: "text", Key: "email", Value: "a@b.c"}},
			mutate: func(in, out *testutil.Account) {
				in.Version = 1
			},
			want: ErrCodeInvalidTransactionStructure,
		},
		{
			name:    "signed by the owner",
			records: ir.Records{{Type: "text", Key: "email", Value: "a@b.c"}},
			byOwner: true,
			want:    ErrCodeSignatureVerifyFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			in := testutil.NewAccount("alice.bit", alice)
			out := in.With(func(a *testutil.Account) {
				a.Capacity -= cfg.Account.EditRecordsFee
				a.Fields.Records = tt.records
				a.Fields.LastEditRecordsAt = now
			})
			if tt.mutate != nil {
				tt.mutate(&in, &out)
			}
			signer := ir.RoleManager
			if tt.byOwner {
				signer = ir.RoleOwner
			}
			txn := testutil.NewBuilder(cfg, ir.ActionEditRecords).
				Role(ir.RoleManager).
				Now(now).
				InputAccount(in).
				OutputAccount(out).
				SignRole(0, alice, signer).
				Build()

			requireCode(t, tt.want, newTestVerifier(cfg).Verify(txn))
		})
	}
}
