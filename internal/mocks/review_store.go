package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/store"
)

// MockReviewStore implements store.ReviewStore for testing
type MockReviewStore struct {
	// Function fields for customizable behavior
	ListDueFn     func(ctx context.Context, q store.DueQuery) ([]store.DueRecord, error)
	GetByCardIDFn func(ctx context.Context, cardID uuid.UUID, userID uuid.NullUUID) (*domain.ScheduleState, error)
	UpdateFn      func(ctx context.Context, state *domain.ScheduleState) error
	ListByUserFn  func(ctx context.Context, userID uuid.NullUUID) ([]domain.ScheduleState, error)
	CreateCardFn  func(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error

	// Injected failures for the default implementation
	ListDueError     error
	GetByCardIDError error
	UpdateError      error
	ListByUserError  error

	mu          sync.Mutex
	cards       map[uuid.UUID]domain.Card
	states      map[uuid.UUID]domain.ScheduleState // keyed by state ID
	updateCalls int
}

var _ store.ReviewStore = (*MockReviewStore)(nil)

// NewMockReviewStore creates an empty in-memory store.
func NewMockReviewStore() *MockReviewStore {
	return &MockReviewStore{
		cards:  make(map[uuid.UUID]domain.Card),
		states: make(map[uuid.UUID]domain.ScheduleState),
	}
}

// Seed inserts a card and its state without validation.
func (m *MockReviewStore) Seed(card domain.Card, state domain.ScheduleState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.ID] = card
	m.states[state.ID] = state.Clone()
}

// State returns a copy of the stored state with the given ID.
func (m *MockReviewStore) State(id uuid.UUID) (domain.ScheduleState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	return s.Clone(), ok
}

// UpdateCalls reports how many times Update reached the default implementation.
func (m *MockReviewStore) UpdateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

// ListDue implements store.DueCardLister
func (m *MockReviewStore) ListDue(ctx context.Context, q store.DueQuery) ([]store.DueRecord, error) {
	if m.ListDueFn != nil {
		return m.ListDueFn(ctx, q)
	}
	if m.ListDueError != nil {
		return nil, m.ListDueError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []store.DueRecord
	for _, s := range m.states {
		if s.DueDate.After(q.Now) {
			continue
		}
		if q.UserID.Valid && s.UserID != q.UserID {
			continue
		}
		card, ok := m.cards[s.CardID]
		if !ok {
			continue
		}
		out = append(out, store.DueRecord{Card: card, State: s.Clone()})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].State, out[j].State
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.CardID.String() < b.CardID.String()
	})

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// GetByCardID implements store.ScheduleStateStore
func (m *MockReviewStore) GetByCardID(
	ctx context.Context,
	cardID uuid.UUID,
	userID uuid.NullUUID,
) (*domain.ScheduleState, error) {
	if m.GetByCardIDFn != nil {
		return m.GetByCardIDFn(ctx, cardID, userID)
	}
	if m.GetByCardIDError != nil {
		return nil, m.GetByCardIDError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.states {
		if s.CardID == cardID && s.UserID == userID {
			c := s.Clone()
			return &c, nil
		}
	}
	return nil, store.ErrScheduleStateNotFound
}

// Update implements store.ScheduleStateStore
func (m *MockReviewStore) Update(ctx context.Context, state *domain.ScheduleState) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	if m.UpdateError != nil {
		return m.UpdateError
	}
	if _, ok := m.states[state.ID]; !ok {
		return store.ErrScheduleStateNotFound
	}
	m.states[state.ID] = state.Clone()
	return nil
}

// ListByUser implements store.ScheduleStateLister
func (m *MockReviewStore) ListByUser(ctx context.Context, userID uuid.NullUUID) ([]domain.ScheduleState, error) {
	if m.ListByUserFn != nil {
		return m.ListByUserFn(ctx, userID)
	}
	if m.ListByUserError != nil {
		return nil, m.ListByUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ScheduleState
	for _, s := range m.states {
		if userID.Valid && s.UserID != userID {
			continue
		}
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// CreateCard implements store.CardCreator
func (m *MockReviewStore) CreateCard(ctx context.Context, card *domain.Card, state *domain.ScheduleState) error {
	if m.CreateCardFn != nil {
		return m.CreateCardFn(ctx, card, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.cards[card.ID]; exists {
		return store.ErrDuplicate
	}
	for _, s := range m.states {
		if s.CardID == state.CardID && s.UserID == state.UserID {
			return store.ErrScheduleStateExists
		}
	}

	m.cards[card.ID] = *card
	m.states[state.ID] = state.Clone()
	return nil
}
