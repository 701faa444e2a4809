package review_session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/domain"
)

// Status is the lifecycle state of a review session.
type Status string

// Session statuses. Completed and cancelled are terminal.
const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// GradeEntry records one grading call.
type GradeEntry struct {
	CardID         uuid.UUID `json:"card_id"`
	Grade          int       `json:"grade"`
	ResponseTimeMS *int64    `json:"response_time_ms,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Session is a point-in-time copy of a review session.
type Session struct {
	ID             string                   `json:"session_id"`
	UserID         uuid.NullUUID            `json:"user_id"`
	Status         Status                   `json:"status"`
	Cards          []domain.DailyReviewCard `json:"cards"`
	CurrentIndex   int                      `json:"current_index"`
	CompletedCards int                      `json:"completed_cards"`
	TotalCards     int                      `json:"total_cards"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        *time.Time               `json:"end_time,omitempty"`
	Grades         []GradeEntry             `json:"grades"`
}

// session is the live state machine held in the registry. All fields
// after mu are guarded by it; cards never changes after creation.
type session struct {
	id     string
	userID uuid.NullUUID
	cards  []domain.DailyReviewCard

	mu        sync.Mutex
	status    Status
	index     int
	startTime time.Time
	endTime   *time.Time
	grades    []GradeEntry
}

func newSession(userID uuid.NullUUID, cards []domain.DailyReviewCard, now time.Time) *session {
	s := &session{
		id:        uuid.NewString(),
		userID:    userID,
		cards:     cards,
		status:    StatusActive,
		startTime: now,
	}
	if len(cards) == 0 {
		s.finish(StatusCompleted, now)
	}
	return s
}

func (s *session) total() int {
	return len(s.cards)
}

// current returns the card awaiting a grade, if the session is active.
func (s *session) current() (domain.DailyReviewCard, bool) {
	if s.status != StatusActive || s.index >= len(s.cards) {
		return domain.DailyReviewCard{}, false
	}
	return s.cards[s.index], true
}

func (s *session) pause() bool {
	if s.status != StatusActive {
		return false
	}
	s.status = StatusPaused
	return true
}

func (s *session) resume() bool {
	if s.status != StatusPaused {
		return false
	}
	s.status = StatusActive
	return true
}

func (s *session) cancel(now time.Time) bool {
	if s.status.Terminal() {
		return false
	}
	s.finish(StatusCancelled, now)
	return true
}

// advance records a successful grade and moves to the next card. It
// reports whether the session just completed.
func (s *session) advance(entry GradeEntry) bool {
	s.grades = append(s.grades, entry)
	s.index++
	if s.index >= len(s.cards) {
		s.finish(StatusCompleted, entry.Timestamp)
		return true
	}
	return false
}

func (s *session) finish(status Status, now time.Time) {
	end := now
	s.status = status
	s.endTime = &end
}

// expired reports whether a terminal session ended before cutoff.
func (s *session) expired(cutoff time.Time) bool {
	return s.status.Terminal() && s.endTime != nil && s.endTime.Before(cutoff)
}

func (s *session) snapshot() *Session {
	out := &Session{
		ID:             s.id,
		UserID:         s.userID,
		Status:         s.status,
		Cards:          make([]domain.DailyReviewCard, len(s.cards)),
		CurrentIndex:   s.index,
		CompletedCards: s.index,
		TotalCards:     len(s.cards),
		StartTime:      s.startTime,
		Grades:         make([]GradeEntry, len(s.grades)),
	}
	copy(out.Cards, s.cards)
	copy(out.Grades, s.grades)
	if s.endTime != nil {
		end := *s.endTime
		out.EndTime = &end
	}
	return out
}
