// Package review_session runs review sessions: bounded, ordered passes
// through a snapshot of due cards with pause, resume and cancel.
package review_session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/domain/srs"
	"github.com/phrazzld/scry-review/internal/events"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/phrazzld/scry-review/internal/store"
)

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithEmitter publishes session lifecycle events to emitter.
func WithEmitter(emitter events.EventEmitter) Option {
	return func(m *Manager) {
		if emitter != nil {
			m.emitter = emitter
		}
	}
}

// WithPrioritizeOverdue sets whether new sessions put overdue cards first.
// Defaults to true.
func WithPrioritizeOverdue(prioritize bool) Option {
	return func(m *Manager) {
		m.prioritizeOverdue = prioritize
	}
}

// Manager drives review sessions. It is safe for concurrent use; calls on
// different sessions never contend beyond the registry lookup.
type Manager struct {
	selector          review_queue.Selector
	states            store.ScheduleStateStore
	srsService        srs.Service
	sessions          *SessionStore
	emitter           events.EventEmitter
	prioritizeOverdue bool
	now               func() time.Time
	logger            *slog.Logger
}

// NewManager creates a Manager. A nil sessions registry gets a fresh one.
func NewManager(
	selector review_queue.Selector,
	states store.ScheduleStateStore,
	srsService srs.Service,
	sessions *SessionStore,
	logger *slog.Logger,
	opts ...Option,
) *Manager {
	if selector == nil {
		panic("selector cannot be nil")
	}
	if states == nil {
		panic("states cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}
	if sessions == nil {
		sessions = NewSessionStore()
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		selector:          selector,
		states:            states,
		srsService:        srsService,
		sessions:          sessions,
		emitter:           events.NopEmitter{},
		prioritizeOverdue: true,
		now:               time.Now,
		logger:            logger.With(slog.String("component", "review_session")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartSession snapshots the due queue and registers a new session. A
// session with no due cards is created already completed.
func (m *Manager) StartSession(ctx context.Context, maxCards int, userID uuid.NullUUID) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)
	now := m.now().UTC()

	cards, err := m.selector.SelectDueCards(ctx, review_queue.SelectOptions{
		Now:               now,
		MaxCards:          maxCards,
		PrioritizeOverdue: m.prioritizeOverdue,
		UserID:            userID,
	})
	if err != nil {
		if errors.Is(err, review_queue.ErrInvalidMaxCards) {
			return nil, err
		}
		return nil, NewServiceError("start_session", "failed to select due cards", err)
	}

	s := newSession(userID, cards, now)
	m.sessions.add(s)

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	log.Info("review session started",
		slog.String("session_id", snap.ID),
		slog.Int("total_cards", snap.TotalCards),
		slog.String("status", string(snap.Status)))

	m.emit(ctx, events.TypeSessionStarted, snap.ID, userID, map[string]any{
		"total_cards": snap.TotalCards,
	})
	if snap.Status == StatusCompleted {
		m.emit(ctx, events.TypeSessionCompleted, snap.ID, userID, map[string]any{
			"completed_cards": 0,
		})
	}
	return snap, nil
}

// GetSession returns a copy of the session, or nil if the id is unknown.
func (m *Manager) GetSession(sessionID string) *Session {
	s, ok := m.sessions.get(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// GetCurrentCard returns the card awaiting a grade. It returns nil when
// the session is unknown, not active or exhausted.
func (m *Manager) GetCurrentCard(sessionID string) *domain.DailyReviewCard {
	s, ok := m.sessions.get(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.current()
	if !ok {
		return nil
	}
	return &card
}

// GradeCurrentCard grades the current card, writes the new schedule and
// advances the session. The session only moves after the write succeeds;
// on any error it is left untouched.
func (m *Manager) GradeCurrentCard(
	ctx context.Context,
	sessionID string,
	grade domain.Grade,
	responseTimeMS *int64,
) (*GradeResult, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With(slog.String("session_id", sessionID))

	s, ok := m.sessions.get(sessionID)
	if !ok {
		return nil, ErrInvalidSession
	}

	s.mu.Lock()
	card, ok := s.current()
	if !ok {
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}
	if err := grade.Validate(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	result, err := m.gradeLocked(ctx, s, card, grade, responseTimeMS)
	s.mu.Unlock()

	if err != nil {
		log.Error("failed to grade card",
			slog.String("card_id", card.CardID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	log.Debug("card graded",
		slog.String("card_id", card.CardID.String()),
		slog.Int("grade", int(grade)),
		slog.Int("completed", result.SessionProgress.Completed),
		slog.Int("total", result.SessionProgress.Total))

	m.emit(ctx, events.TypeCardGraded, sessionID, s.userID, map[string]any{
		"card_id":      card.CardID,
		"grade":        int(grade),
		"new_interval": result.GradedCard.NewInterval,
		"new_due_date": result.GradedCard.NewDueDate,
	})
	if result.SessionComplete {
		log.Info("review session completed", slog.Int("completed_cards", result.SessionProgress.Completed))
		m.emit(ctx, events.TypeSessionCompleted, sessionID, s.userID, map[string]any{
			"completed_cards": result.SessionProgress.Completed,
		})
	}
	return result, nil
}

// gradeLocked runs the read-compute-write cycle for card. The caller
// holds s.mu for the whole call.
func (m *Manager) gradeLocked(
	ctx context.Context,
	s *session,
	card domain.DailyReviewCard,
	grade domain.Grade,
	responseTimeMS *int64,
) (*GradeResult, error) {
	now := m.now().UTC()

	state, err := m.states.GetByCardID(ctx, card.CardID, card.UserID)
	if err != nil {
		return nil, NewServiceError("grade_current_card", "failed to load schedule state", err)
	}

	next, report, err := m.srsService.Advance(state, grade, now)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGrade) {
			return nil, err
		}
		return nil, NewServiceError("grade_current_card", "failed to calculate next review", err)
	}

	if err := m.states.Update(ctx, next); err != nil {
		return nil, NewServiceError("grade_current_card", "failed to save schedule state",
			fmt.Errorf("%w: %w", ErrPersistence, err))
	}

	complete := s.advance(GradeEntry{
		CardID:         card.CardID,
		Grade:          int(grade),
		ResponseTimeMS: responseTimeMS,
		Timestamp:      now,
	})

	return &GradeResult{
		Success: true,
		GradedCard: GradedCard{
			CardID:      card.CardID,
			NewDueDate:  report.NewDueDate,
			NewInterval: report.NewInterval,
			EaseFactor:  report.EaseFactor,
		},
		SessionProgress: sessionProgress(s),
		SessionComplete: complete,
	}, nil
}

// PauseSession moves an active session to paused. It returns false if the
// session is unknown or not active.
func (m *Manager) PauseSession(ctx context.Context, sessionID string) bool {
	return m.transition(ctx, sessionID, events.TypeSessionPaused, func(s *session) bool {
		return s.pause()
	})
}

// ResumeSession moves a paused session back to active. It returns false if
// the session is unknown or not paused.
func (m *Manager) ResumeSession(ctx context.Context, sessionID string) bool {
	return m.transition(ctx, sessionID, events.TypeSessionResumed, func(s *session) bool {
		return s.resume()
	})
}

// CancelSession ends a non-terminal session. Grades already written are
// kept. It returns false if the session is unknown or already terminal.
func (m *Manager) CancelSession(ctx context.Context, sessionID string) bool {
	return m.transition(ctx, sessionID, events.TypeSessionCancelled, func(s *session) bool {
		return s.cancel(m.now().UTC())
	})
}

func (m *Manager) transition(ctx context.Context, sessionID, eventType string, apply func(*session) bool) bool {
	s, ok := m.sessions.get(sessionID)
	if !ok {
		return false
	}

	s.mu.Lock()
	changed := apply(s)
	status := s.status
	completed := s.index
	s.mu.Unlock()

	if !changed {
		return false
	}

	logger.FromContextOrDefault(ctx, m.logger).Info("review session status changed",
		slog.String("session_id", sessionID),
		slog.String("status", string(status)))
	m.emit(ctx, eventType, sessionID, s.userID, map[string]any{
		"status":          status,
		"completed_cards": completed,
	})
	return true
}

// GetSessionProgress reports progress, timing and performance for a
// session, or nil if the id is unknown.
func (m *Manager) GetSessionProgress(sessionID string) *ProgressView {
	s, ok := m.sessions.get(sessionID)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return progressView(s, m.now().UTC())
}

// CleanupCompletedSessions removes completed and cancelled sessions that
// ended more than hoursOld hours ago. Active and paused sessions are never
// removed.
func (m *Manager) CleanupCompletedSessions(ctx context.Context, hoursOld int) int {
	cutoff := m.now().UTC().Add(-time.Duration(hoursOld) * time.Hour)
	removed := m.sessions.removeExpired(cutoff)

	if removed > 0 {
		logger.FromContextOrDefault(ctx, m.logger).Info("cleaned up review sessions",
			slog.Int("removed", removed),
			slog.Int("hours_old", hoursOld))
	}
	return removed
}

// emit publishes an event without failing the caller.
func (m *Manager) emit(ctx context.Context, eventType, sessionID string, userID uuid.NullUUID, payload any) {
	log := logger.FromContextOrDefault(ctx, m.logger)

	event, err := events.NewReviewEvent(eventType, sessionID, userID, payload, m.now())
	if err != nil {
		log.Warn("failed to build review event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := m.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit review event",
			slog.String("event_type", eventType),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
	}
}
