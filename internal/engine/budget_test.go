package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBudget_WithinLimit(t *testing.T) {
	b := NewLoadBudget(10)

	for i := 0; i < 10; i++ {
		assert.NoError(t, b.Charge(fmt.Sprintf("input[%d]", i)), "load %d should be allowed", i+1)
	}

	assert.Equal(t, 10, b.Used())
	assert.Equal(t, 10, b.Limit())
}

func TestLoadBudget_ExceedsLimit(t *testing.T) {
	b := NewLoadBudget(2)
	require.NoError(t, b.Charge("input[0]"))
	require.NoError(t, b.Charge("input[1]"))

	err := b.Charge("input[2]")
	require.Error(t, err)
	assert.True(t, IsBudgetExceededError(err))

	var be *BudgetExceededError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "input[2]", be.What)
	assert.Equal(t, 3, be.Used)
	assert.Equal(t, 2, be.Limit)
	assert.Contains(t, err.Error(), "3 loads > 2 limit")
}

func TestLoadBudget_WrappedError(t *testing.T) {
	err := fmt.Errorf("verify: %w", &BudgetExceededError{What: "x", Used: 2, Limit: 1})
	assert.True(t, IsBudgetExceededError(err))
	assert.False(t, IsBudgetExceededError(fmt.Errorf("plain")))
}
