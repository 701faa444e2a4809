package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Schedule defaults for a card that has never been reviewed.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	DefaultInterval   = 1
)

// Common validation errors for ScheduleState
var (
	ErrEmptyScheduleID     = errors.New("schedule state ID cannot be empty")
	ErrEmptyScheduleCardID = errors.New("schedule state card ID cannot be empty")
	ErrInvalidEaseFactor   = errors.New("ease factor must be at least 1.3")
	ErrInvalidInterval     = errors.New("interval must be at least 1 day")
	ErrInvalidRepetitions  = errors.New("repetitions cannot be negative")
)

// ScheduleState is the spaced-repetition bookkeeping for one card and
// (optionally) one user. It is created once alongside the card and only
// ever mutated by grading.
type ScheduleState struct {
	ID           uuid.UUID     `json:"id"`
	CardID       uuid.UUID     `json:"card_id"`
	UserID       uuid.NullUUID `json:"user_id"`
	EaseFactor   float64       `json:"ease_factor"`
	Interval     int           `json:"interval"` // days
	Repetitions  int           `json:"repetitions"`
	DueDate      time.Time     `json:"due_date"`
	LastReviewed *time.Time    `json:"last_reviewed,omitempty"`
	LastGrade    *int          `json:"last_grade,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewScheduleState creates the initial schedule for a card. The card is
// due immediately.
func NewScheduleState(cardID uuid.UUID, userID uuid.NullUUID, now time.Time) (*ScheduleState, error) {
	now = now.UTC()
	state := &ScheduleState{
		ID:          uuid.New(),
		CardID:      cardID,
		UserID:      userID,
		EaseFactor:  DefaultEaseFactor,
		Interval:    DefaultInterval,
		Repetitions: 0,
		DueDate:     now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks the schedule invariants.
func (s *ScheduleState) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptyScheduleID
	}

	if s.CardID == uuid.Nil {
		return ErrEmptyScheduleCardID
	}

	if s.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}

	if s.Interval < 1 {
		return ErrInvalidInterval
	}

	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	if s.LastGrade != nil {
		if err := Grade(*s.LastGrade).Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Clone returns a deep copy so callers can derive a new state without
// aliasing the pointer fields of the original.
func (s ScheduleState) Clone() ScheduleState {
	out := s
	if s.LastReviewed != nil {
		t := *s.LastReviewed
		out.LastReviewed = &t
	}
	if s.LastGrade != nil {
		g := *s.LastGrade
		out.LastGrade = &g
	}
	return out
}
