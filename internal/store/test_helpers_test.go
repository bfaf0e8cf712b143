package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/accountcell/internal/config"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/testutil"
)

// createTestStore opens a fresh journal in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testEntry builds a transfer snapshot for account and a journal entry
// carrying code.
func testEntry(t *testing.T, account string, code int) Entry {
	t.Helper()
	cfg := config.Default()
	a := testutil.NewAccount(account, testutil.Args("alice", "alice-manager"))
	built := testutil.NewBuilder(cfg, ir.ActionTransferAccount).
		Role(ir.RoleOwner).
		InputAccount(a).
		OutputAccount(a.With(func(a *testutil.Account) { a.Args = testutil.OwnerArgs("bob") })).
		Build()
	e, err := NewEntry(built, code, "code-name", "message", "cfg-digest")
	if err != nil {
		t.Fatalf("NewEntry() failed: %v", err)
	}
	return e
}
