package harness

import (
	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
	"github.com/roach88/accountcell/internal/store"
)

// StepResult is the verdict of one scenario step.
type StepResult struct {
	Name      string           `json:"name"`
	Action    ir.Action        `json:"action"`
	Code      engine.ErrorCode `json:"code"`
	Expected  engine.ErrorCode `json:"expected"`
	VerdictID string           `json:"verdict_id"`
	Message   string           `json:"message,omitempty"`
	Trace     []string         `json:"trace,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step produced its expected verdict, every
	// assertion held and the replay reproduced the journal.
	Pass bool `json:"pass"`

	Steps  []StepResult       `json:"steps"`
	Errors []string           `json:"errors,omitempty"`
	Replay store.ReplayReport `json:"replay"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
