// Package engine verifies account cell transitions.
//
// A Verifier receives one immutable tx.Transaction, reads the action
// witness, and routes the transition through the rules registered for that
// action. The result is a single verdict: nil to accept, or a *VerifyError
// carrying one stable code.
//
// ARCHITECTURE:
//
// Action Table:
// Every action maps to one rule (router.go). A rule declares the role that
// must sign, the statuses the input record may hold, the fee key, the
// consistency exceptions, an optional throttle, an optional companion
// script, and a handler for anything the common pipeline does not cover.
//
// Transition Pipeline (transition in router.go):
//  1. Load exactly one account cell in inputs and outputs, both at index 0
//  2. Check the input status and the expiration window
//  3. Verify the role signature through the SignatureOracle
//  4. Check the fee spent from the account cell capacity
//  5. Diff the input and output records (VerifyConsistency)
//  6. Apply the throttle rule, if any
//  7. Run the action handler
//
// Sub-flows that do not fit the pipeline (recycle, bid, renew, unlock,
// approvals) load their own cells and reuse the same building blocks.
//
// DETERMINISM:
//
// Verification is a pure function of the snapshot, the config and the
// decoder. Time, height and quote come from oracle cells in the snapshot,
// never from the wall clock. The first violated rule aborts verification and
// is the only reported code.
//
// BUDGET:
//
// Every cell load is metered (budget.go). A snapshot that needs more loads
// than the configured budget is rejected with ErrCodeExecutionBudgetExceeded,
// standing in for the host's cycle limit.
package engine
