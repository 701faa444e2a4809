package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-review/internal/domain"
)

// calculateNewEaseFactor applies the SM-2 ease update for a grade.
//
// A perfect grade raises the ease by EaseBonus; each step below the
// maximum subtracts a penalty that grows quadratically. The result never
// drops below params.MinEaseFactor. The update applies to failing grades
// too, so repeated lapses steadily flatten future interval growth.
func calculateNewEaseFactor(currentEF float64, grade domain.Grade, params *Params) float64 {
	d := float64(domain.MaxGrade - grade)
	newEF := currentEF + (params.EaseBonus - d*(params.LinearPenalty+d*params.QuadraticPenalty))

	if newEF < params.MinEaseFactor {
		newEF = params.MinEaseFactor
	}

	return newEF
}

// calculateNewInterval determines the next interval in days.
//
// Parameters:
//   - previousInterval: the interval before this review
//   - repetitions: the consecutive success count after this review
//   - easeFactor: the ease factor held before this review
//
// A lapse (repetitions == 0) always resets to one day. The first success
// uses FirstInterval, the second SecondInterval, and every later success
// multiplies the previous interval by the ease factor, rounded to the
// nearest day.
func calculateNewInterval(previousInterval, repetitions int, easeFactor float64, params *Params) int {
	var interval int
	switch repetitions {
	case 0:
		interval = 1
	case 1:
		interval = params.FirstInterval
	case 2:
		interval = params.SecondInterval
	default:
		interval = int(math.Round(float64(previousInterval) * easeFactor))
	}

	if interval < 1 {
		interval = 1
	}

	return interval
}

// calculateNextState derives the schedule that follows a review. The input
// is never modified; a new value is returned.
func calculateNextState(
	state domain.ScheduleState,
	grade domain.Grade,
	now time.Time,
	params *Params,
) domain.ScheduleState {
	next := state.Clone()

	if grade >= params.PassingGrade {
		next.Repetitions = state.Repetitions + 1
	} else {
		next.Repetitions = 0
	}

	next.Interval = calculateNewInterval(state.Interval, next.Repetitions, state.EaseFactor, params)
	next.EaseFactor = calculateNewEaseFactor(state.EaseFactor, grade, params)
	next.DueDate = now.AddDate(0, 0, next.Interval)

	reviewed := now
	g := int(grade)
	next.LastReviewed = &reviewed
	next.LastGrade = &g
	next.UpdatedAt = now

	return next
}
