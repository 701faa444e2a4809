package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/scry-review/internal/domain"
)

// ErrNilState is returned when Advance is called without a schedule state.
var ErrNilState = errors.New("schedule state cannot be nil")

// Report exposes the outcome of a review for caller-side display.
type Report struct {
	NewDueDate  time.Time `json:"new_due_date"`
	NewInterval int       `json:"new_interval"`
	EaseFactor  float64   `json:"ease_factor"`
}

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Advance computes the schedule that follows grading a card.
	// It performs no I/O and returns domain.ErrInvalidGrade for grades
	// outside [0,5] without touching the input.
	Advance(
		state *domain.ScheduleState,
		grade domain.Grade,
		now time.Time,
	) (*domain.ScheduleState, Report, error)

	// Params returns a copy of the parameters in use.
	Params() Params
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Advance implements the Service interface
func (s *defaultService) Advance(
	state *domain.ScheduleState,
	grade domain.Grade,
	now time.Time,
) (*domain.ScheduleState, Report, error) {
	if err := grade.Validate(); err != nil {
		return nil, Report{}, err
	}

	if state == nil {
		return nil, Report{}, ErrNilState
	}

	next := calculateNextState(*state, grade, now.UTC(), s.params)

	return &next, Report{
		NewDueDate:  next.DueDate,
		NewInterval: next.Interval,
		EaseFactor:  next.EaseFactor,
	}, nil
}

// Params implements the Service interface
func (s *defaultService) Params() Params {
	return *s.params
}
