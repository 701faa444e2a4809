package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/phrazzld/scry-review/internal/service/review_session"
	"github.com/phrazzld/scry-review/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid grade", fmt.Errorf("%w: got 7", domain.ErrInvalidGrade), http.StatusBadRequest},
		{"invalid max cards", review_queue.ErrInvalidMaxCards, http.StatusBadRequest},
		{"validation", domain.NewValidationError("user_id", "bad", domain.ErrValidation), http.StatusBadRequest},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid session", review_session.ErrInvalidSession, http.StatusConflict},
		{"schedule missing", store.ErrScheduleStateNotFound, http.StatusNotFound},
		{
			"persistence",
			review_session.NewServiceError("grade_current_card", "save",
				fmt.Errorf("%w: %w", review_session.ErrPersistence, errors.New("io"))),
			http.StatusServiceUnavailable,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.status, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessageHidesDetails(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("pq: password authentication failed for user scry")))
	assert.Equal(t, "Invalid or inactive session", GetSafeErrorMessage(review_session.ErrInvalidSession))
	assert.Equal(t, "Schedule not found", GetSafeErrorMessage(store.ErrScheduleStateNotFound))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := shared.ValidateRequest(&CleanupRequest{})
	assert.Equal(t, "Invalid hours_old: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}
