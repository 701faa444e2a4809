package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "generic error", err: errors.New("some error"), expected: false},
		{name: "ErrNotFound", err: ErrNotFound, expected: true},
		{name: "wrapped ErrNotFound", err: fmt.Errorf("lookup: %w", ErrNotFound), expected: true},
		{name: "ErrCardNotFound", err: ErrCardNotFound, expected: true},
		{name: "ErrScheduleStateNotFound", err: ErrScheduleStateNotFound, expected: true},
		{
			name:     "store error wrapping not found",
			err:      NewStoreError("schedule_state", "update", "row vanished", ErrScheduleStateNotFound),
			expected: true,
		},
		{name: "duplicate is not not-found", err: ErrScheduleStateExists, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsNotFoundError(tt.err))
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDuplicateError(ErrDuplicate))
	assert.True(t, IsDuplicateError(ErrScheduleStateExists))
	assert.True(t, IsDuplicateError(fmt.Errorf("insert: %w", ErrScheduleStateExists)))
	assert.False(t, IsDuplicateError(ErrNotFound))
	assert.False(t, IsDuplicateError(nil))
}

func TestStoreError(t *testing.T) {
	t.Parallel()

	t.Run("with wrapped error", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("connection reset")
		err := NewStoreError("schedule_state", "update", "write failed", cause)

		assert.Equal(t, "update operation on schedule_state failed: write failed: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)

		var storeErr *StoreError
		assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &storeErr))
		assert.Equal(t, "schedule_state", storeErr.Entity)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		t.Parallel()
		err := NewStoreError("card", "create", "missing front", nil)
		assert.Equal(t, "create operation on card failed: missing front", err.Error())
		assert.Nil(t, err.Unwrap())
	})
}
