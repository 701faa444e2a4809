package api

import (
	"github.com/google/uuid"
)

// StartSessionRequest is the payload of POST /api/sessions.
type StartSessionRequest struct {
	MaxCards int        `json:"max_cards" validate:"required,gte=1"`
	UserID   *uuid.UUID `json:"user_id,omitempty"`
}

// GradeRequest is the payload of POST /api/sessions/{id}/grade. The grade
// range is checked by the session manager so the error matches other
// callers.
type GradeRequest struct {
	Grade          *int   `json:"grade"                      validate:"required"`
	ResponseTimeMS *int64 `json:"response_time_ms,omitempty" validate:"omitempty,gte=0"`
}

// CleanupRequest is the payload of POST /api/sessions/cleanup.
type CleanupRequest struct {
	HoursOld *int `json:"hours_old" validate:"required,gte=0"`
}

// CleanupResponse reports how many sessions were removed.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// TransitionResponse is returned by pause, resume and cancel. Success is
// false when the session is unknown or in the wrong state.
type TransitionResponse struct {
	Success bool `json:"success"`
}
