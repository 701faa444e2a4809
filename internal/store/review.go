package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// DueQuery selects schedule states that are due for review.
type DueQuery struct {
	// Now is the cut-off: rows with due_date <= Now are returned.
	Now time.Time
	// UserID restricts the result to one user when Valid.
	UserID uuid.NullUUID
	// Limit caps the number of rows; zero means unlimited.
	Limit int
}

// DueRecord pairs a due schedule state with its card.
type DueRecord struct {
	Card  domain.Card
	State domain.ScheduleState
}

// DueCardLister lists due cards.
type DueCardLister interface {
	// ListDue returns due rows ordered by due_date ascending, then card id.
	ListDue(ctx context.Context, q DueQuery) ([]DueRecord, error)
}

// ScheduleStateStore reads and writes individual schedule states.
type ScheduleStateStore interface {
	// GetByCardID returns the schedule for a card. When userID is not Valid
	// the row with a NULL user is returned.
	// Returns ErrScheduleStateNotFound if no row matches.
	GetByCardID(ctx context.Context, cardID uuid.UUID, userID uuid.NullUUID) (*domain.ScheduleState, error)

	// Update overwrites the mutable scheduling fields of the row identified
	// by state.ID. Returns ErrScheduleStateNotFound if the row is gone.
	Update(ctx context.Context, state *domain.ScheduleState) error
}

// ScheduleStateLister feeds the statistics aggregator.
type ScheduleStateLister interface {
	// ListByUser returns every schedule state for a user, or all states
	// when userID is not Valid.
	ListByUser(ctx context.Context, userID uuid.NullUUID) ([]domain.ScheduleState, error)
}

// CardCreator seeds new cards together with their initial schedule.
type CardCreator interface {
	// CreateCard inserts the card and its schedule state atomically.
	CreateCard(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error
}

// ReviewStore is the complete storage collaborator of the review engine.
type ReviewStore interface {
	DueCardLister
	ScheduleStateStore
	ScheduleStateLister
	CardCreator
}
