package store

import (
	"context"
	"fmt"

	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/tx"
)

// Verdict is one journaled verification result.
type Verdict struct {
	ID             string
	TxHash         ir.Hash
	Action         ir.Action
	Code           int
	Name           string
	Message        string
	ConfigDigest   string
	SnapshotDigest string
}

// Entry is a verdict written into a run together with the snapshot it was
// reached on.
type Entry struct {
	Verdict  Verdict
	Snapshot []byte
}

// NewEntry encodes t and derives the content-addressed verdict id.
func NewEntry(t *tx.Transaction, code int, name, message, configDigest string) (Entry, error) {
	body, err := tx.Marshal(t)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	id, err := ir.VerdictID(t.Hash, t.Action.Action, code, configDigest)
	if err != nil {
		return Entry{}, fmt.Errorf("new entry: %w", err)
	}
	return Entry{
		Verdict: Verdict{
			ID:             id,
			TxHash:         t.Hash,
			Action:         t.Action.Action,
			Code:           code,
			Name:           name,
			Message:        message,
			ConfigDigest:   configDigest,
			SnapshotDigest: ir.SnapshotDigest(body),
		},
		Snapshot: body,
	}, nil
}

// BeginRun records a new batch run. Writing the same run id twice is a no-op.
func (s *Store) BeginRun(ctx context.Context, runID, configDigest, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, config_digest, source)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, runID, configDigest, source)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// WriteSnapshot stores an encoded snapshot under its digest and returns the
// digest. Duplicate bodies are silently ignored.
func (s *Store) WriteSnapshot(ctx context.Context, body []byte) (string, error) {
	digest := ir.SnapshotDigest(body)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (digest, body)
		VALUES (?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, digest, body)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return digest, nil
}

// WriteEntry atomically stores the snapshot, the verdict and its position
// seq in the run. It reports whether the verdict was new to the journal.
//
// The run referenced by runID must exist (foreign key constraint).
func (s *Store) WriteEntry(ctx context.Context, runID string, seq int64, e Entry) (inserted bool, err error) {
	v := e.Verdict
	if got := ir.SnapshotDigest(e.Snapshot); got != v.SnapshotDigest {
		return false, fmt.Errorf("write entry: snapshot digest %s does not match body %s", v.SnapshotDigest, got)
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("write entry: begin tx: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, `
		INSERT INTO snapshots (digest, body)
		VALUES (?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, v.SnapshotDigest, e.Snapshot); err != nil {
		return false, fmt.Errorf("write entry: snapshot: %w", err)
	}

	result, err := dbtx.ExecContext(ctx, `
		INSERT INTO verdicts
		(id, tx_hash, action, code, name, message, config_digest, snapshot_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		v.ID,
		v.TxHash.String(),
		string(v.Action),
		v.Code,
		v.Name,
		v.Message,
		v.ConfigDigest,
		v.SnapshotDigest,
	)
	if err != nil {
		return false, fmt.Errorf("write entry: verdict: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write entry: rows affected: %w", err)
	}

	if _, err := dbtx.ExecContext(ctx, `
		INSERT INTO run_entries (run_id, seq, verdict_id)
		VALUES (?, ?, ?)
	`, runID, seq, v.ID); err != nil {
		return false, fmt.Errorf("write entry: run entry: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return false, fmt.Errorf("write entry: commit: %w", err)
	}
	return rows > 0, nil
}
