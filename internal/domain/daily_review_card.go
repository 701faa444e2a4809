package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyReviewCard is the presentation view of a due card. It is built
// fresh on every queue selection and never persisted.
type DailyReviewCard struct {
	SRSID       uuid.UUID      `json:"srs_id"`
	CardID      uuid.UUID      `json:"card_id"`
	UserID      uuid.NullUUID  `json:"user_id"`
	CardType    CardType       `json:"card_type"`
	Front       string         `json:"front"`
	Back        string         `json:"back"`
	Difficulty  float64        `json:"difficulty"`
	DueDate     time.Time      `json:"due_date"`
	DaysOverdue int            `json:"days_overdue"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// NewDailyReviewCard joins a card with its schedule state. DaysOverdue is
// the number of whole calendar days between the due date and today,
// floored at zero.
func NewDailyReviewCard(card Card, state ScheduleState, now time.Time, loc *time.Location) DailyReviewCard {
	overdue := DaysBetween(state.DueDate, now, loc)
	if overdue < 0 {
		overdue = 0
	}

	return DailyReviewCard{
		SRSID:       state.ID,
		CardID:      card.ID,
		UserID:      state.UserID,
		CardType:    card.Type,
		Front:       card.Front,
		Back:        card.Back,
		Difficulty:  card.Difficulty,
		DueDate:     state.DueDate,
		DaysOverdue: overdue,
		Metadata:    copyMetadata(card.Metadata),
	}
}

func copyMetadata(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Overdue reports whether the card was due on an earlier calendar day.
func (c DailyReviewCard) Overdue() bool {
	return c.DaysOverdue > 0
}
