package domain

import "testing"

func TestLoadThresholdsCategorize(t *testing.T) {
	t.Parallel()
	thresholds := DefaultLoadThresholds()

	tests := []struct {
		count    int
		expected LoadCategory
	}{
		{0, LoadNone},
		{1, LoadLight},
		{10, LoadLight},
		{11, LoadModerate},
		{30, LoadModerate},
		{31, LoadHeavy},
		{60, LoadHeavy},
		{61, LoadOverwhelming},
		{500, LoadOverwhelming},
	}

	for _, tt := range tests {
		if got := thresholds.Categorize(tt.count); got != tt.expected {
			t.Errorf("Categorize(%d) = %q, want %q", tt.count, got, tt.expected)
		}
	}
}

func TestLoadThresholdsValidate(t *testing.T) {
	t.Parallel()

	if err := DefaultLoadThresholds().Validate(); err != nil {
		t.Errorf("default thresholds should be valid, got %v", err)
	}

	invalid := []LoadThresholds{
		{Light: 0, Moderate: 30, Heavy: 60},
		{Light: 10, Moderate: 10, Heavy: 60},
		{Light: 10, Moderate: 30, Heavy: 20},
	}
	for _, th := range invalid {
		if err := th.Validate(); err != ErrInvalidLoadThresholds {
			t.Errorf("expected ErrInvalidLoadThresholds for %+v, got %v", th, err)
		}
	}
}
