package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
	"github.com/roach88/accountcell/internal/tx"
)

const now = testutil.Now

var (
	alice = testutil.Args("alice", "alice-manager")
	bob   = testutil.OwnerArgs("bob")
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestVerifier(cfg *config.Config, opts ...Option) *Verifier {
	base := []Option{WithSignOracle(testutil.FakeOracle{}), WithLogger(quietLogger())}
	return New(cfg, append(base, opts...)...)
}

// requireCode asserts the verdict of err. Zero means accept.
func requireCode(t *testing.T, want ErrorCode, err error) {
	t.Helper()
	if want == 0 {
		require.NoError(t, err)
		return
	}
	require.Error(t, err)
	assert.Equal(t, want, CodeOf(err), "got %v", err)
}

// accountCellOf decodes a fixture the way the verifier would.
func accountCellOf(t *testing.T, cfg *config.Config, a testutil.Account, src tx.Source, index int) *AccountCell {
	t.Helper()
	cell, _ := a.Cell(cfg)
	data, err := ir.ParseAccountCellData(cell.Data)
	require.NoError(t, err)
	args, err := ir.ParseLockArgs(cell.Lock.Args)
	require.NoError(t, err)
	return &AccountCell{Source: src, Index: index, Cell: cell, Data: data, Args: args, Record: a.Record()}
}

// payCommonFee deducts the common fee from a fixture's capacity.
func payCommonFee(cfg *config.Config, a *testutil.Account) {
	a.Capacity -= cfg.Account.CommonFee
}
