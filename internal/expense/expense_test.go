package expense_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/barangaylink/treasury/internal/expense"
)

func TestStatus_CanTransition(t *testing.T) {
	type testCase struct {
		from expense.Status
		to   expense.Status
		want bool
	}

	tests := []testCase{
		{expense.StatusPending, expense.StatusApproved, true},
		{expense.StatusPending, expense.StatusRejected, true},
		{expense.StatusPending, expense.StatusReleased, false},
		{expense.StatusPending, expense.StatusCancelled, false},

		{expense.StatusApproved, expense.StatusReleased, true},
		{expense.StatusApproved, expense.StatusCancelled, true},
		{expense.StatusApproved, expense.StatusRejected, false},
		{expense.StatusApproved, expense.StatusPending, false},

		{expense.StatusReleased, expense.StatusCancelled, false},
		{expense.StatusRejected, expense.StatusApproved, false},
		{expense.StatusCancelled, expense.StatusPending, false},

		{expense.Status("bogus"), expense.StatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, expense.StatusPending.Terminal())
	assert.False(t, expense.StatusApproved.Terminal())
	assert.True(t, expense.StatusReleased.Terminal())
	assert.True(t, expense.StatusRejected.Terminal())
	assert.True(t, expense.StatusCancelled.Terminal())
}
