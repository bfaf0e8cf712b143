// Package ir provides the foundational value types for accountcell.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - capacities, prices and timestamps are integers
//   - Account records are a versioned tagged union behind AccountRecord
//   - Fields a version does not define are reported absent, never zero-filled
//   - All JSON tags use snake_case
//   - Canonical JSON (RFC 8785) is the only encoding used for hashing
package ir
