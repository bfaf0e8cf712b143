package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the step verdicts to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Steps    []StepResult
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nVerdicts:\n")
		for i, s := range e.Steps {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s\n", i+1, s.Name, s.Action, s.Code)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. The journal is only queried by journal_count.
func EvaluateAssertions(ctx context.Context, result *Result, assertions []Assertion, st *store.Store) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertVerdictCount:
			err = assertVerdictCount(result.Steps, a)
		case AssertFamilyCount:
			err = assertFamilyCount(result.Steps, a)
		case AssertJournalCount:
			err = assertJournalCount(ctx, st, result.Steps, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func assertVerdictCount(steps []StepResult, a Assertion) error {
	code, ok := engine.ParseErrorCode(a.Code)
	if !ok {
		return fmt.Errorf("unknown code %q", a.Code)
	}
	n := 0
	for _, s := range steps {
		if s.Code == code {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertVerdictCount,
			Expected: fmt.Sprintf("%d verdicts of %s", a.Count, code),
			Actual:   fmt.Sprintf("%d verdicts", n),
			Steps:    steps,
		}
	}
	return nil
}

func assertFamilyCount(steps []StepResult, a Assertion) error {
	n := 0
	for _, s := range steps {
		if s.Code.Family() == engine.Family(a.Family) {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertFamilyCount,
			Expected: fmt.Sprintf("%d verdicts in family %s", a.Count, a.Family),
			Actual:   fmt.Sprintf("%d verdicts", n),
			Steps:    steps,
		}
	}
	return nil
}

// assertJournalCount checks the number of distinct verdicts journaled.
// Steps that build the same transaction and reach the same code share one.
func assertJournalCount(ctx context.Context, st *store.Store, steps []StepResult, a Assertion) error {
	if st == nil {
		return fmt.Errorf("journal_count requires a store")
	}
	n, err := st.CountVerdicts(ctx)
	if err != nil {
		return err
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d journaled verdicts", a.Count),
			Actual:   fmt.Sprintf("%d journaled verdicts", n),
			Steps:    steps,
		}
	}
	return nil
}
