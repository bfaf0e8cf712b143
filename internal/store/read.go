package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/accountcell/internal/ir"
)

// Run is one batch run.
type Run struct {
	ID           string
	ConfigDigest string
	Source       string
	Entries      int
}

// RunEntry is a verdict at its position in a run.
type RunEntry struct {
	Seq     int64
	Verdict Verdict
}

// CodeCount is the number of verdicts of one action with one code.
type CodeCount struct {
	Action ir.Action `json:"action"`
	Code   int       `json:"code"`
	Name   string    `json:"name"`
	Count  int       `json:"count"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

const verdictColumns = `v.id, v.tx_hash, v.action, v.code, v.name, v.message, v.config_digest, v.snapshot_digest`

func scanVerdict(row rowScanner, extra ...any) (Verdict, error) {
	var (
		v      Verdict
		hash   string
		action string
	)
	dest := append(extra, &v.ID, &hash, &action, &v.Code, &v.Name, &v.Message, &v.ConfigDigest, &v.SnapshotDigest)
	if err := row.Scan(dest...); err != nil {
		return Verdict{}, err
	}
	h, err := ir.ParseHash(hash)
	if err != nil {
		return Verdict{}, fmt.Errorf("verdict %s: %w", v.ID, err)
	}
	v.TxHash = h
	v.Action = ir.Action(action)
	return v, nil
}

// ReadVerdict retrieves a verdict by id.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadVerdict(ctx context.Context, id string) (Verdict, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+verdictColumns+`
		FROM verdicts v
		WHERE v.id = ?
	`, id)
	return scanVerdict(row)
}

// ReadSnapshot returns the encoded snapshot stored under digest.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadSnapshot(ctx context.Context, digest string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE digest = ?`, digest).Scan(&body)
	return body, err
}

// ReadRun returns the verdicts of a run ordered by seq.
// Returns an empty slice, not nil, for an unknown or empty run.
func (s *Store) ReadRun(ctx context.Context, runID string) ([]RunEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.seq, `+verdictColumns+`
		FROM run_entries e
		JOIN verdicts v ON v.id = e.verdict_id
		WHERE e.run_id = ?
		ORDER BY e.seq ASC, v.id COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	entries := []RunEntry{}
	for rows.Next() {
		var e RunEntry
		v, err := scanVerdict(rows, &e.Seq)
		if err != nil {
			return nil, fmt.Errorf("scan run entry: %w", err)
		}
		e.Verdict = v
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run: %w", err)
	}
	return entries, nil
}

// ReadRunInfo returns one run.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRunInfo(ctx context.Context, runID string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT r.id, r.config_digest, r.source, COUNT(e.seq)
		FROM runs r
		LEFT JOIN run_entries e ON e.run_id = r.id
		WHERE r.id = ?
		GROUP BY r.id
	`, runID).Scan(&r.ID, &r.ConfigDigest, &r.Source, &r.Entries)
	return r, err
}

// ListRuns returns every run ordered by id. UUIDv7 ids sort by start time.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.config_digest, r.source, COUNT(e.seq)
		FROM runs r
		LEFT JOIN run_entries e ON e.run_id = r.id
		GROUP BY r.id
		ORDER BY r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.ConfigDigest, &r.Source, &r.Entries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// VerdictsForTx returns every verdict journaled for a transaction hash,
// across configs, ordered by id.
func (s *Store) VerdictsForTx(ctx context.Context, hash ir.Hash) ([]Verdict, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+verdictColumns+`
		FROM verdicts v
		WHERE v.tx_hash = ?
		ORDER BY v.id COLLATE BINARY ASC
	`, hash.String())
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	out := []Verdict{}
	for rows.Next() {
		v, err := scanVerdict(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return out, nil
}

// Summary counts the verdicts of a run by action and code.
func (s *Store) Summary(ctx context.Context, runID string) ([]CodeCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.action, v.code, v.name, COUNT(*)
		FROM run_entries e
		JOIN verdicts v ON v.id = e.verdict_id
		WHERE e.run_id = ?
		GROUP BY v.action, v.code, v.name
		ORDER BY v.action COLLATE BINARY ASC, v.code ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	out := []CodeCount{}
	for rows.Next() {
		var (
			c      CodeCount
			action string
		)
		if err := rows.Scan(&action, &c.Code, &c.Name, &c.Count); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		c.Action = ir.Action(action)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return out, nil
}

var (
	_ rowScanner = (*sql.Row)(nil)
	_ rowScanner = (*sql.Rows)(nil)
)
