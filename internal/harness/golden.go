package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/accountcell/internal/ir"
)

// VerdictSnapshot is the golden form of a scenario run: the verdict of
// every step in order. Verdict ids and trace steps are left out so that
// golden files only change when a verdict does.
type VerdictSnapshot struct {
	Scenario string
	Steps    []StepResult
}

// canonical converts the snapshot to IR values for ir.MarshalCanonical.
func (s VerdictSnapshot) canonical() ir.IRObject {
	steps := make(ir.IRArray, len(s.Steps))
	for i, st := range s.Steps {
		steps[i] = ir.IRObject{
			"name":    ir.IRString(st.Name),
			"action":  ir.IRString(st.Action),
			"code":    ir.IRInt(st.Code),
			"verdict": ir.IRString(st.Code.String()),
		}
	}
	return ir.IRObject{
		"scenario": ir.IRString(s.Scenario),
		"steps":    steps,
	}
}

// Marshal returns the canonical JSON of the snapshot.
func (s VerdictSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.canonical())
}

// RunWithGolden executes a scenario and compares its verdicts against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the verdicts of an existing result against the
// golden file of scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := VerdictSnapshot{Scenario: scenarioName, Steps: result.Steps}.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
