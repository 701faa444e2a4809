// Package review_stats computes daily review statistics from persisted
// schedule state. It never looks at live sessions.
package review_stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

// Card maturity thresholds
const (
	// LearningRepetitions is the success count below which a card is still learning.
	LearningRepetitions = 2
	// MatureIntervalDays is the interval at which a card counts as mature.
	MatureIntervalDays = 21
	// UpcomingDays is how far ahead UpcomingReviews looks.
	UpcomingDays = 7
)

// DayCount is the number of cards due on one calendar day.
type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD in the aggregator's time zone
	Count int    `json:"count"`
}

// UpcomingReviews counts cards due on each of the next UpcomingDays days.
type UpcomingReviews struct {
	Days  []DayCount `json:"days"`
	Total int        `json:"total"`
}

// TodayPerformance aggregates the last grade of every card reviewed today.
type TodayPerformance struct {
	CardsReviewed     int         `json:"cards_reviewed"`
	AverageGrade      float64     `json:"average_grade"`
	Accuracy          float64     `json:"accuracy"`
	GradeDistribution map[int]int `json:"grade_distribution"`
}

// ReviewLoad classifies how much review work is pending today.
type ReviewLoad struct {
	CurrentLoad  int                 `json:"current_load"`
	LoadCategory domain.LoadCategory `json:"load_category"`
}

// DailyStats is the statistics view for one user (or everyone) on one day.
type DailyStats struct {
	Date              string           `json:"date"`
	TotalCards        int              `json:"total_cards"`
	DueToday          int              `json:"due_today"`
	Overdue           int              `json:"overdue"`
	Learning          int              `json:"learning"`
	Mature            int              `json:"mature"`
	AverageEaseFactor float64          `json:"average_ease_factor"`
	AverageInterval   float64          `json:"average_interval"`
	TodayPerformance  TodayPerformance `json:"today_performance"`
	UpcomingReviews   UpcomingReviews  `json:"upcoming_reviews"`
	ReviewLoad        ReviewLoad       `json:"review_load"`
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithThresholds overrides the default load buckets. Invalid thresholds
// are ignored.
func WithThresholds(t domain.LoadThresholds) Option {
	return func(a *Aggregator) {
		if t.Validate() == nil {
			a.thresholds = t
		}
	}
}

// Aggregator computes DailyStats.
type Aggregator struct {
	states     store.ScheduleStateLister
	loc        *time.Location
	now        func() time.Time
	thresholds domain.LoadThresholds
	logger     *slog.Logger
}

// NewAggregator creates an Aggregator reading from states.
func NewAggregator(states store.ScheduleStateLister, logger *slog.Logger, opts ...Option) *Aggregator {
	if states == nil {
		panic("states cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Aggregator{
		states:     states,
		loc:        time.UTC,
		now:        time.Now,
		thresholds: domain.DefaultLoadThresholds(),
		logger:     logger.With(slog.String("component", "review_stats")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DailyStats computes statistics for userID, or for every schedule when
// userID is not Valid. Days are calendar days in the configured zone:
// a card is due today when its due date falls on today, and overdue when
// it fell on an earlier day.
func (a *Aggregator) DailyStats(ctx context.Context, userID uuid.NullUUID) (*DailyStats, error) {
	log := logger.FromContextOrDefault(ctx, a.logger)

	states, err := a.states.ListByUser(ctx, userID)
	if err != nil {
		log.Error("failed to list schedule states", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list schedule states: %w", err)
	}

	now := a.now()
	today := domain.StartOfDay(now, a.loc)
	stats := &DailyStats{
		Date:       today.Format(time.DateOnly),
		TotalCards: len(states),
	}

	upcoming := make([]int, UpcomingDays+1)
	var easeSum float64
	var intervalSum int
	var reviewed []int

	for _, s := range states {
		easeSum += s.EaseFactor
		intervalSum += s.Interval

		if s.Repetitions < LearningRepetitions {
			stats.Learning++
		}
		if s.Interval >= MatureIntervalDays {
			stats.Mature++
		}

		switch days := domain.DaysBetween(now, s.DueDate, a.loc); {
		case days < 0:
			stats.Overdue++
		case days == 0:
			stats.DueToday++
		case days <= UpcomingDays:
			upcoming[days]++
		}

		if s.LastReviewed != nil && s.LastGrade != nil && domain.SameDay(*s.LastReviewed, now, a.loc) {
			reviewed = append(reviewed, *s.LastGrade)
		}
	}

	if len(states) > 0 {
		stats.AverageEaseFactor = easeSum / float64(len(states))
		stats.AverageInterval = float64(intervalSum) / float64(len(states))
	}

	stats.TodayPerformance = todayPerformance(reviewed)
	stats.UpcomingReviews = upcomingReviews(today, upcoming)

	load := stats.DueToday + stats.Overdue
	stats.ReviewLoad = ReviewLoad{
		CurrentLoad:  load,
		LoadCategory: a.thresholds.Categorize(load),
	}

	log.Debug("computed daily stats",
		slog.Int("total_cards", stats.TotalCards),
		slog.Int("current_load", load),
		slog.String("load_category", string(stats.ReviewLoad.LoadCategory)))
	return stats, nil
}

func todayPerformance(grades []int) TodayPerformance {
	p := TodayPerformance{
		CardsReviewed:     len(grades),
		GradeDistribution: make(map[int]int, int(domain.MaxGrade)+1),
	}
	for g := domain.MinGrade; g <= domain.MaxGrade; g++ {
		p.GradeDistribution[int(g)] = 0
	}
	if len(grades) == 0 {
		return p
	}

	var sum, passed int
	for _, g := range grades {
		sum += g
		p.GradeDistribution[g]++
		if domain.Grade(g).Passed() {
			passed++
		}
	}
	p.AverageGrade = float64(sum) / float64(len(grades))
	p.Accuracy = float64(passed) / float64(len(grades)) * 100
	return p
}

// upcomingReviews turns per-offset counts (index 1..UpcomingDays) into
// dated buckets.
func upcomingReviews(today time.Time, counts []int) UpcomingReviews {
	out := UpcomingReviews{Days: make([]DayCount, 0, UpcomingDays)}
	for d := 1; d <= UpcomingDays; d++ {
		out.Days = append(out.Days, DayCount{
			Date:  today.AddDate(0, 0, d).Format(time.DateOnly),
			Count: counts[d],
		})
		out.Total += counts[d]
	}
	return out
}
