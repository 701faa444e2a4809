package domain

import "errors"

// LoadCategory buckets the number of cards awaiting review.
type LoadCategory string

// Review load buckets, lightest first
const (
	LoadNone         LoadCategory = "none"
	LoadLight        LoadCategory = "light"
	LoadModerate     LoadCategory = "moderate"
	LoadHeavy        LoadCategory = "heavy"
	LoadOverwhelming LoadCategory = "overwhelming"
)

// ErrInvalidLoadThresholds is returned when thresholds are not strictly increasing.
var ErrInvalidLoadThresholds = errors.New("load thresholds must be positive and strictly increasing")

// LoadThresholds holds the inclusive upper bound of each non-empty bucket.
// Anything above Heavy is overwhelming.
type LoadThresholds struct {
	Light    int `json:"light"`
	Moderate int `json:"moderate"`
	Heavy    int `json:"heavy"`
}

// DefaultLoadThresholds returns 10 / 30 / 60.
func DefaultLoadThresholds() LoadThresholds {
	return LoadThresholds{Light: 10, Moderate: 30, Heavy: 60}
}

// Validate checks that 0 < Light < Moderate < Heavy.
func (t LoadThresholds) Validate() error {
	if t.Light < 1 || t.Moderate <= t.Light || t.Heavy <= t.Moderate {
		return ErrInvalidLoadThresholds
	}
	return nil
}

// Categorize maps a card count to its bucket.
func (t LoadThresholds) Categorize(n int) LoadCategory {
	switch {
	case n <= 0:
		return LoadNone
	case n <= t.Light:
		return LoadLight
	case n <= t.Moderate:
		return LoadModerate
	case n <= t.Heavy:
		return LoadHeavy
	default:
		return LoadOverwhelming
	}
}
