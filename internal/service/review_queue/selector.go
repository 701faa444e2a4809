// Package review_queue selects the cards a review session will present.
package review_queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/store"
)

// DefaultMaxCardsCeiling caps MaxCards when no other ceiling is configured.
const DefaultMaxCardsCeiling = 200

// ErrInvalidMaxCards is returned when fewer than one card is requested.
var ErrInvalidMaxCards = errors.New("max cards must be at least 1")

// SelectOptions controls a single selection.
type SelectOptions struct {
	// Now is the reference instant; zero means the selector's clock.
	Now time.Time
	// MaxCards must be >= 1. Values above the ceiling are capped.
	MaxCards int
	// PrioritizeOverdue puts cards from earlier days ahead of today's.
	PrioritizeOverdue bool
	// UserID restricts selection to one user when Valid.
	UserID uuid.NullUUID
}

// Selector builds the ordered queue of due cards.
type Selector interface {
	// SelectDueCards returns at most MaxCards due cards, freshly read from
	// storage on every call.
	SelectDueCards(ctx context.Context, opts SelectOptions) ([]domain.DailyReviewCard, error)
}

// Option configures a selector.
type Option func(*selector)

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *selector) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithMaxCardsCeiling overrides DefaultMaxCardsCeiling.
func WithMaxCardsCeiling(n int) Option {
	return func(s *selector) {
		if n > 0 {
			s.ceiling = n
		}
	}
}

// WithClock replaces time.Now for callers that leave SelectOptions.Now unset.
func WithClock(now func() time.Time) Option {
	return func(s *selector) {
		if now != nil {
			s.now = now
		}
	}
}

type selector struct {
	cards   store.DueCardLister
	loc     *time.Location
	ceiling int
	now     func() time.Time
	logger  *slog.Logger
}

var _ Selector = (*selector)(nil)

// NewSelector creates a Selector reading from cards.
func NewSelector(cards store.DueCardLister, logger *slog.Logger, opts ...Option) Selector {
	if cards == nil {
		panic("cards cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &selector{
		cards:   cards,
		loc:     time.UTC,
		ceiling: DefaultMaxCardsCeiling,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "review_queue")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectDueCards implements Selector.
func (s *selector) SelectDueCards(ctx context.Context, opts SelectOptions) ([]domain.DailyReviewCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if opts.MaxCards < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxCards, opts.MaxCards)
	}
	limit := opts.MaxCards
	if limit > s.ceiling {
		log.Debug("capping requested card count",
			slog.Int("requested", limit),
			slog.Int("ceiling", s.ceiling))
		limit = s.ceiling
	}

	now := opts.Now
	if now.IsZero() {
		now = s.now()
	}

	// Storage returns rows by due date then card id, which agrees with both
	// orderings below, so the limit can be applied there.
	records, err := s.cards.ListDue(ctx, store.DueQuery{
		Now:    now,
		UserID: opts.UserID,
		Limit:  limit,
	})
	if err != nil {
		log.Error("failed to list due cards", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list due cards: %w", err)
	}

	queue := make([]domain.DailyReviewCard, 0, len(records))
	for _, rec := range records {
		queue = append(queue, domain.NewDailyReviewCard(rec.Card, rec.State, now, s.loc))
	}

	if opts.PrioritizeOverdue {
		sort.SliceStable(queue, func(i, j int) bool { return overdueFirst(queue[i], queue[j]) })
	} else {
		sort.SliceStable(queue, func(i, j int) bool { return byDueDate(queue[i], queue[j]) })
	}

	if len(queue) > limit {
		queue = queue[:limit]
	}

	log.Debug("selected due cards",
		slog.Int("count", len(queue)),
		slog.Bool("prioritize_overdue", opts.PrioritizeOverdue))
	return queue, nil
}

// overdueFirst orders overdue cards by days overdue (most first), then
// cards due today, each group by due date.
func overdueFirst(a, b domain.DailyReviewCard) bool {
	if a.Overdue() != b.Overdue() {
		return a.Overdue()
	}
	if a.DaysOverdue != b.DaysOverdue {
		return a.DaysOverdue > b.DaysOverdue
	}
	return byDueDate(a, b)
}

func byDueDate(a, b domain.DailyReviewCard) bool {
	if !a.DueDate.Equal(b.DueDate) {
		return a.DueDate.Before(b.DueDate)
	}
	return a.CardID.String() < b.CardID.String()
}
