package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	knowledgeID := uuid.New()

	card, err := NewCard(knowledgeID, CardTypeQA, "What is Go?", "A programming language")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if card.KnowledgeID != knowledgeID {
		t.Errorf("Expected knowledge ID %s, got %s", knowledgeID, card.KnowledgeID)
	}

	if card.Type != CardTypeQA {
		t.Errorf("Expected card type %q, got %q", CardTypeQA, card.Type)
	}

	if card.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Empty front
	_, err = NewCard(knowledgeID, CardTypeCloze, "", "answer")
	if !errors.Is(err, ErrCardFrontEmpty) {
		t.Errorf("Expected error %v, got %v", ErrCardFrontEmpty, err)
	}

	// Unknown variant
	_, err = NewCard(knowledgeID, CardType("essay"), "front", "back")
	if !errors.Is(err, ErrInvalidCardType) {
		t.Errorf("Expected error %v, got %v", ErrInvalidCardType, err)
	}
}

func TestParseCardType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    CardType
		wantErr bool
	}{
		{"qa", CardTypeQA, false},
		{"cloze", CardTypeCloze, false},
		{"image_hotspot", CardTypeImageHotspot, false},
		{"QA", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCardType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCardType) {
				t.Errorf("ParseCardType(%q): expected ErrInvalidCardType, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCardType(%q): unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseCardType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
