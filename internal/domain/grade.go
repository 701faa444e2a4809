package domain

import "fmt"

// Grade is a 0-5 recall quality rating. Grades below PassingGrade count
// as a lapse.
type Grade int

// Grade bounds
const (
	MinGrade     Grade = 0
	MaxGrade     Grade = 5
	PassingGrade Grade = 3
)

// Validate returns ErrInvalidGrade when g is outside [0,5].
func (g Grade) Validate() error {
	if g < MinGrade || g > MaxGrade {
		return fmt.Errorf("%w: got %d", ErrInvalidGrade, int(g))
	}
	return nil
}

// Passed reports whether the grade counts as a successful recall.
func (g Grade) Passed() bool {
	return g >= PassingGrade
}
