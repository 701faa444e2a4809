package srs

import (
	"errors"

	"github.com/phrazzld/scry-review/internal/domain"
)

// ErrInvalidParams is returned when a Params value would break the
// scheduling invariants (ease floor, positive intervals, grade bounds).
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines all configurable parameters for the SRS algorithm.
//
// The ease update is
//
//	ease' = max(MinEaseFactor, ease + (EaseBonus - d*(LinearPenalty + d*QuadraticPenalty)))
//
// where d = MaxGrade - grade.
type Params struct {
	// Core limits
	MinEaseFactor float64

	// Ease factor update coefficients
	EaseBonus        float64
	LinearPenalty    float64
	QuadraticPenalty float64

	// Grades at or above PassingGrade count as a successful recall
	PassingGrade domain.Grade

	// Intervals (days) for the first and second consecutive success
	FirstInterval  int
	SecondInterval int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the defaults.
type ParamsConfig struct {
	MinEaseFactor float64

	EaseBonus        float64
	LinearPenalty    float64
	QuadraticPenalty float64

	PassingGrade int

	FirstInterval  int
	SecondInterval int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: domain.MinEaseFactor,

		EaseBonus:        0.1,
		LinearPenalty:    0.08,
		QuadraticPenalty: 0.02,

		PassingGrade: domain.PassingGrade,

		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// NewParams creates a new Params instance with custom configuration.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}

	if config.EaseBonus != 0 {
		params.EaseBonus = config.EaseBonus
	}
	if config.LinearPenalty != 0 {
		params.LinearPenalty = config.LinearPenalty
	}
	if config.QuadraticPenalty != 0 {
		params.QuadraticPenalty = config.QuadraticPenalty
	}

	if config.PassingGrade > 0 {
		params.PassingGrade = domain.Grade(config.PassingGrade)
	}

	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// Validate checks that the parameters preserve the scheduling invariants.
func (p *Params) Validate() error {
	switch {
	case p.MinEaseFactor < domain.MinEaseFactor:
		return errors.Join(ErrInvalidParams, errors.New("min ease factor must be at least 1.3"))
	case p.LinearPenalty < 0 || p.QuadraticPenalty < 0:
		return errors.Join(ErrInvalidParams, errors.New("ease penalties cannot be negative"))
	case p.PassingGrade <= domain.MinGrade || p.PassingGrade > domain.MaxGrade:
		return errors.Join(ErrInvalidParams, errors.New("passing grade must be between 1 and 5"))
	case p.FirstInterval < 1 || p.SecondInterval < 1:
		return errors.Join(ErrInvalidParams, errors.New("intervals must be at least 1 day"))
	}
	return nil
}
