package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/store"
)

func sampleSteps() []StepResult {
	return []StepResult{
		{Name: "accepted", Action: ir.ActionTransferAccount, Code: 0},
		{Name: "throttled", Action: ir.ActionTransferAccount, Code: engine.ErrCodeAccountCellThrottle},
		{Name: "grace", Action: ir.ActionTransferAccount, Code: engine.ErrCodeAccountCellInGracePeriod},
		{Name: "fee", Action: ir.ActionEditRecords, Code: engine.ErrCodeTxFeeSpentError},
	}
}

func TestAssertVerdictCount(t *testing.T) {
	steps := sampleSteps()

	require.NoError(t, assertVerdictCount(steps, Assertion{Type: AssertVerdictCount, Code: "Accept", Count: 1}))
	require.NoError(t, assertVerdictCount(steps, Assertion{Type: AssertVerdictCount, Code: "AccountCellThrottle", Count: 1}))
	require.NoError(t, assertVerdictCount(steps, Assertion{Type: AssertVerdictCount, Code: "SignatureMissing", Count: 0}))

	err := assertVerdictCount(steps, Assertion{Type: AssertVerdictCount, Code: "Accept", Count: 3})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertVerdictCount, ae.Type)
	assert.Equal(t, "3 verdicts of Accept", ae.Expected)
	assert.Equal(t, "1 verdicts", ae.Actual)

	require.Error(t, assertVerdictCount(steps, Assertion{Type: AssertVerdictCount, Code: "Nope"}))
}

func TestAssertFamilyCount(t *testing.T) {
	steps := sampleSteps()

	require.NoError(t, assertFamilyCount(steps, Assertion{Family: string(engine.FamilyTemporal), Count: 2}))
	require.NoError(t, assertFamilyCount(steps, Assertion{Family: string(engine.FamilyEconomic), Count: 1}))
	require.NoError(t, assertFamilyCount(steps, Assertion{Family: string(engine.FamilyAccept), Count: 1}))
	require.NoError(t, assertFamilyCount(steps, Assertion{Family: string(engine.FamilySignature), Count: 0}))

	err := assertFamilyCount(steps, Assertion{Family: string(engine.FamilyTemporal), Count: 1})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "2 verdicts", ae.Actual)
}

func TestAssertJournalCount(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, assertJournalCount(ctx, st, nil, Assertion{Count: 0}))

	err = assertJournalCount(ctx, st, nil, Assertion{Count: 2})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "0 journaled verdicts", ae.Actual)

	require.Error(t, assertJournalCount(ctx, nil, nil, Assertion{Count: 0}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Steps = sampleSteps()

	failures := EvaluateAssertions(context.Background(), result, []Assertion{
		{Type: AssertVerdictCount, Code: "Accept", Count: 1},
		{Type: AssertFamilyCount, Family: "temporal", Count: 5},
		{Type: "trace_order"},
	}, nil)

	require.Len(t, failures, 2)
	assert.Contains(t, failures[0], "assertions[1]")
	assert.Contains(t, failures[0], "5 verdicts in family temporal")
	assert.Contains(t, failures[1], "assertions[2]")
	assert.Contains(t, failures[1], `unknown assertion type "trace_order"`)
}

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertVerdictCount,
		Expected: "2 verdicts of Accept",
		Actual:   "1 verdicts",
		Steps:    sampleSteps()[:2],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: verdict_count")
	assert.Contains(t, msg, "Expected: 2 verdicts of Accept")
	assert.Contains(t, msg, "Actual: 1 verdicts")
	assert.Contains(t, msg, "[1] accepted transfer_account -> Accept")
	assert.Contains(t, msg, "[2] throttled transfer_account -> AccountCellThrottle")
}

func TestResultAddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
