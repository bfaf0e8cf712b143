package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
)

func TestGoldenScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestVerdictSnapshotMarshal(t *testing.T) {
	snap := VerdictSnapshot{
		Scenario: "example",
		Steps: []StepResult{
			{Name: "ok", Action: ir.ActionEditManager, Code: 0, VerdictID: "ignored", Trace: []string{"ignored"}},
			{Name: "late", Action: ir.ActionTransferAccount, Code: engine.ErrCodeAccountCellHasExpired},
		},
	}

	got, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario":"example","steps":[`+
			`{"action":"edit_manager","code":0,"name":"ok","verdict":"Accept"},`+
			`{"action":"transfer_account","code":140,"name":"late","verdict":"AccountCellHasExpired"}]}`,
		string(got))
}

func TestVerdictSnapshotEmpty(t *testing.T) {
	got, err := VerdictSnapshot{Scenario: "empty"}.Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{"scenario":"empty","steps":[]}`, string(got))
}

func TestAssertGolden_FromResult(t *testing.T) {
	result := NewResult()
	result.Steps = []StepResult{
		{Name: "transfer an hour after the last", Action: ir.ActionTransferAccount, Code: 0},
		{Name: "default fee paid", Action: ir.ActionTransferAccount, Code: engine.ErrCodeTxFeeSpentError},
	}
	require.NoError(t, AssertGolden(t, "relaxed_config", result))
}
