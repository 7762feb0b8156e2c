package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("saving booking: %w", NewConflictError("overlap", "a", "b"))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, kind)
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))
}

func TestNewInvalidStateError_CarriesStates(t *testing.T) {
	err := NewInvalidStateError("rejected", "confirmed")

	assert.Equal(t, "cannot transition from rejected to confirmed", err.Error())
	assert.Equal(t, "rejected", err.Details["current"])
	assert.Equal(t, "confirmed", err.Details["attempted"])
}

func TestNewConflictError_WithoutIDsHasNoDetails(t *testing.T) {
	err := NewConflictError("late fee already assessed")
	assert.Nil(t, err.Details)
}

func TestNewPaginatedResult(t *testing.T) {
	res := NewPaginatedResult[int](nil, 41, 2, 20)

	assert.Equal(t, 3, res.TotalPages)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
}
