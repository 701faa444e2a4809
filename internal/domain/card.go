package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CardType identifies the flashcard variant. Every variant shares the
// front/back/metadata shape; type-specific rendering happens upstream in
// the card generation pipeline.
type CardType string

// Known card variants
const (
	CardTypeQA           CardType = "qa"
	CardTypeCloze        CardType = "cloze"
	CardTypeImageHotspot CardType = "image_hotspot"
)

// Valid reports whether t is one of the known card variants.
func (t CardType) Valid() bool {
	switch t {
	case CardTypeQA, CardTypeCloze, CardTypeImageHotspot:
		return true
	default:
		return false
	}
}

// ParseCardType converts a raw string into a CardType.
func ParseCardType(s string) (CardType, error) {
	t := CardType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCardType, s)
	}
	return t, nil
}

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card has no front side.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")
)

// Card is a generated flashcard. Cards are produced by the generation
// subsystem and are read-only to the scheduler.
type Card struct {
	ID          uuid.UUID      `json:"id"`
	KnowledgeID uuid.UUID      `json:"knowledge_id"`
	Type        CardType       `json:"card_type"`
	Front       string         `json:"front"`
	Back        string         `json:"back"`
	Difficulty  float64        `json:"difficulty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewCard creates a new Card with a fresh ID.
// Returns an error if validation fails.
func NewCard(knowledgeID uuid.UUID, cardType CardType, front, back string) (*Card, error) {
	card := &Card{
		ID:          uuid.New(),
		KnowledgeID: knowledgeID,
		Type:        cardType,
		Front:       front,
		Back:        back,
		Metadata:    map[string]any{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if !c.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCardType, c.Type)
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	return nil
}
