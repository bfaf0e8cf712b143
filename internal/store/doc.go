// Package store is the SQLite verdict journal.
//
// The journal is append-only and content-addressed:
//   - snapshots: encoded transaction snapshots keyed by ir.SnapshotDigest
//   - verdicts: one row per (tx hash, action, code, config digest), keyed by
//     ir.VerdictID, so re-verifying the same snapshot under the same config
//     never adds a row
//   - runs: one row per batch run, keyed by a UUIDv7 run id
//   - run_entries: the ordered verdicts of a run
//
// Queries that return lists order by seq ASC or id ASC COLLATE BINARY, never
// by insertion time, so a replay reads the same sequence every time.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
