package store

import (
	"context"
	"testing"

	"github.com/roach88/accountcell/internal/ir"
)

func TestNewEntry_ContentAddressed(t *testing.T) {
	a := testEntry(t, "alice.bit", 0)
	b := testEntry(t, "alice.bit", 0)

	if a.Verdict.ID != b.Verdict.ID {
		t.Errorf("same snapshot and code gave ids %s and %s", a.Verdict.ID, b.Verdict.ID)
	}
	if a.Verdict.SnapshotDigest != ir.SnapshotDigest(a.Snapshot) {
		t.Error("snapshot digest does not match the encoded body")
	}

	rejected := testEntry(t, "alice.bit", 102)
	if rejected.Verdict.ID == a.Verdict.ID {
		t.Error("a different code must give a different verdict id")
	}
	other := testEntry(t, "carol.bit", 0)
	if other.Verdict.ID == a.Verdict.ID {
		t.Error("a different transaction must give a different verdict id")
	}
}

func TestWriteSnapshot_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	body := []byte("action:\n  action: transfer_account\n")
	d1, err := s.WriteSnapshot(ctx, body)
	if err != nil {
		t.Fatalf("first WriteSnapshot() failed: %v", err)
	}
	d2, err := s.WriteSnapshot(ctx, body)
	if err != nil {
		t.Fatalf("second WriteSnapshot() failed: %v", err)
	}
	if d1 != d2 {
		t.Errorf("digests differ: %s vs %s", d1, d2)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("snapshots = %d, want 1", count)
	}
}

func TestWriteEntry_DeduplicatesVerdicts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	e := testEntry(t, "alice.bit", 0)
	for _, run := range []string{"run-1", "run-2"} {
		if err := s.BeginRun(ctx, run, "cfg-digest", "test"); err != nil {
			t.Fatalf("BeginRun(%s) failed: %v", run, err)
		}
	}

	inserted, err := s.WriteEntry(ctx, "run-1", 1, e)
	if err != nil {
		t.Fatalf("WriteEntry(run-1) failed: %v", err)
	}
	if !inserted {
		t.Error("first write should insert the verdict")
	}

	inserted, err = s.WriteEntry(ctx, "run-2", 1, e)
	if err != nil {
		t.Fatalf("WriteEntry(run-2) failed: %v", err)
	}
	if inserted {
		t.Error("second write of the same verdict should not insert")
	}

	n, err := s.CountVerdicts(ctx)
	if err != nil {
		t.Fatalf("CountVerdicts() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("verdicts = %d, want 1", n)
	}

	for _, run := range []string{"run-1", "run-2"} {
		entries, err := s.ReadRun(ctx, run)
		if err != nil {
			t.Fatalf("ReadRun(%s) failed: %v", run, err)
		}
		if len(entries) != 1 {
			t.Errorf("%s has %d entries, want 1", run, len(entries))
		}
	}
}

func TestWriteEntry_UnknownRun(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteEntry(context.Background(), "no-such-run", 1, testEntry(t, "alice.bit", 0))
	if err == nil {
		t.Fatal("expected foreign key error for an unknown run")
	}

	n, err := s.CountVerdicts(context.Background())
	if err != nil {
		t.Fatalf("CountVerdicts() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("failed write left %d verdicts behind", n)
	}
}

func TestWriteEntry_RejectsTamperedSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.BeginRun(ctx, "run-1", "cfg-digest", "test"); err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	e := testEntry(t, "alice.bit", 0)
	e.Snapshot = append(e.Snapshot, '\n')

	if _, err := s.WriteEntry(ctx, "run-1", 1, e); err == nil {
		t.Error("expected error for a body that does not match its digest")
	}
}

func TestBeginRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.BeginRun(ctx, "run-1", "cfg-digest", "test"); err != nil {
			t.Fatalf("BeginRun() iteration %d failed: %v", i, err)
		}
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("runs = %d, want 1", len(runs))
	}
}
