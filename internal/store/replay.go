package store

import (
	"context"
	"fmt"

	"github.com/roach88/accountcell/internal/tx"
)

// VerifyFunc re-verifies one snapshot and returns the verdict code and name.
type VerifyFunc func(t *tx.Transaction) (code int, name string)

// Mismatch is a journaled verdict that the replay did not reproduce.
type Mismatch struct {
	Seq          int64  `json:"seq"`
	VerdictID    string `json:"verdict_id"`
	TxHash       string `json:"tx_hash"`
	RecordedCode int    `json:"recorded_code"`
	RecordedName string `json:"recorded_name"`
	ReplayedCode int    `json:"replayed_code"`
	ReplayedName string `json:"replayed_name"`
}

// ReplayReport is the outcome of replaying one run.
type ReplayReport struct {
	RunID        string
	ConfigDigest string
	Total        int
	Matched      int
	Mismatches   []Mismatch
}

// OK reports whether every verdict was reproduced.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay loads every snapshot of a run in seq order, runs verify on it, and
// compares the result with the journaled code.
//
// A snapshot that no longer decodes is an error, not a mismatch: the journal
// is corrupt and no verdict can be compared.
func (s *Store) Replay(ctx context.Context, runID string, verify VerifyFunc) (ReplayReport, error) {
	run, err := s.ReadRunInfo(ctx, runID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay run %s: %w", runID, err)
	}
	entries, err := s.ReadRun(ctx, runID)
	if err != nil {
		return ReplayReport{}, fmt.Errorf("replay run %s: %w", runID, err)
	}

	report := ReplayReport{
		RunID:        run.ID,
		ConfigDigest: run.ConfigDigest,
		Mismatches:   []Mismatch{},
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		body, err := s.ReadSnapshot(ctx, e.Verdict.SnapshotDigest)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: snapshot %s: %w", e.Seq, e.Verdict.SnapshotDigest, err)
		}
		t, err := tx.Parse(body)
		if err != nil {
			return report, fmt.Errorf("replay seq %d: %w", e.Seq, err)
		}

		report.Total++
		code, name := verify(t)
		if code == e.Verdict.Code {
			report.Matched++
			continue
		}
		report.Mismatches = append(report.Mismatches, Mismatch{
			Seq:          e.Seq,
			VerdictID:    e.Verdict.ID,
			TxHash:       e.Verdict.TxHash.String(),
			RecordedCode: e.Verdict.Code,
			RecordedName: e.Verdict.Name,
			ReplayedCode: code,
			ReplayedName: name,
		})
	}
	return report, nil
}
