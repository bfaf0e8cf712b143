package engine

import (
	"errors"
	"fmt"
)

// DefaultLoadBudget is the default number of cell loads one verification
// may perform.
const DefaultLoadBudget = 4096

// LoadBudget meters cell loads within one verification.
//
// Each verification gets its own LoadBudget. Every load through the
// evaluation context is charged before the cell is read, so a snapshot with
// thousands of cells fails fast instead of scanning them all.
type LoadBudget struct {
	limit int
	used  int
}

// NewLoadBudget creates a budget allowing limit loads.
func NewLoadBudget(limit int) *LoadBudget {
	return &LoadBudget{limit: limit}
}

// Charge consumes one load.
//
// Returns a *BudgetExceededError once more than limit loads are charged.
func (b *LoadBudget) Charge(what string) error {
	b.used++
	if b.used > b.limit {
		return &BudgetExceededError{What: what, Used: b.used, Limit: b.limit}
	}
	return nil
}

// Used returns the number of loads charged so far.
func (b *LoadBudget) Used() int {
	return b.used
}

// Limit returns the configured limit.
func (b *LoadBudget) Limit() int {
	return b.limit
}

// BudgetExceededError is returned when a verification exceeds its load budget.
type BudgetExceededError struct {
	What  string // The load that crossed the limit
	Used  int    // Loads charged, including the failing one
	Limit int    // Maximum allowed loads
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("load of %s exceeded budget: %d loads > %d limit", e.What, e.Used, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}
