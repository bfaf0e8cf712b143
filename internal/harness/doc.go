// Package harness runs YAML conformance scenarios against the verifier.
//
// A scenario is a list of steps. Each step describes one account cell
// transition in domain terms; the harness builds the transaction with
// internal/testutil, verifies it, and compares the verdict with the step's
// expect clause.
//
// # Scenario Format
//
//	name: transfer_account
//	description: "Owner transfers an account"
//	config: ../configs/relaxed      # optional CUE package directory
//	steps:
//	  - name: accepted
//	    action: transfer_account
//	    role: owner                  # owner | manager | none
//	    sign: owner                  # defaults to role
//	    account:
//	      name: alice.bit
//	      owner: alice
//	      manager: alice-manager
//	      transferred_ago: 172800
//	    output:
//	      owner: bob
//	      records: []
//	      stamp: [last_transfer_account_at]
//	    expect:
//	      code: Accept
//	assertions:
//	  - type: verdict_count
//	    code: Accept
//	    count: 1
//
// # Assertion Types
//
//   - verdict_count: number of steps whose verdict is code
//   - family_count: number of steps whose verdict is in family
//   - journal_count: number of distinct verdicts journaled
//
// # Determinism
//
// Every step publishes the same oracle time, signatures come from
// testutil.FakeSign, and the run id is fixed. Each scenario journals into a
// fresh in-memory store and is replayed from it before the result is
// returned, so a verdict that depends on anything but the snapshot and the
// config fails the scenario.
//
// Golden files under testdata/golden hold the canonical JSON of the step
// verdicts. Regenerate them with:
//
//	go test ./internal/harness -update
package harness
