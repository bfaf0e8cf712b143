package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
	"github.com/roach88/accountcell/internal/tx"
)

var alice = testutil.Args("alice", "alice-manager")

// transferTx builds a transfer of alice.bit to newOwner. Signed transfers
// paying the default fee are accepted under the default config.
func transferTx(newOwner string, signed bool) *tx.Transaction {
	cfg := config.Default()
	in := testutil.NewAccount("alice.bit", alice).With(func(a *testutil.Account) {
		a.Fields.LastTransferAccountAt = testutil.Now - 2*config.DaySec
	})
	out := in.With(func(a *testutil.Account) {
		a.Args = testutil.OwnerArgs(newOwner)
		a.Capacity -= cfg.Account.TransferAccountFee
		a.Fields.LastTransferAccountAt = testutil.Now
	})
	b := testutil.NewBuilder(cfg, ir.ActionTransferAccount).
		Role(ir.RoleOwner).
		Now(testutil.Now).
		InputAccount(in).
		OutputAccount(out)
	if signed {
		b.SignRole(0, alice, ir.RoleOwner)
	}
	return b.Build()
}

func writeSnapshot(t *testing.T, dir, name string, snap *tx.Transaction) string {
	t.Helper()
	data, err := tx.Marshal(snap)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// snapshotDir writes an accepted and a rejected snapshot.
func snapshotDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeSnapshot(t, dir, "01-accepted.yaml", transferTx("bob", true))
	writeSnapshot(t, dir, "02-unsigned.yaml", transferTx("carol", false))
	return dir
}

// testOpts returns root options with the fake signature oracle used by
// testutil signatures.
func testOpts(format string) *RootOptions {
	return &RootOptions{Format: format, Oracle: testutil.FakeOracle{}}
}

func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
