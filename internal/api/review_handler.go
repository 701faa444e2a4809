package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/service/review_queue"
	"github.com/phrazzld/scry-review/internal/service/review_stats"
)

// DefaultDueLimit is used when GET /reviews/due has no max_cards.
const DefaultDueLimit = 20

// StatsProvider computes daily statistics.
type StatsProvider interface {
	DailyStats(ctx context.Context, userID uuid.NullUUID) (*review_stats.DailyStats, error)
}

// ReviewHandler serves the read-only queue and statistics endpoints.
type ReviewHandler struct {
	selector          review_queue.Selector
	stats             StatsProvider
	defaultLimit      int
	prioritizeOverdue bool
	logger            *slog.Logger
}

// NewReviewHandler creates a ReviewHandler. defaultLimit applies when the
// caller omits max_cards; values below one fall back to DefaultDueLimit.
func NewReviewHandler(
	selector review_queue.Selector,
	stats StatsProvider,
	defaultLimit int,
	prioritizeOverdue bool,
	logger *slog.Logger,
) *ReviewHandler {
	if selector == nil {
		panic("selector cannot be nil for ReviewHandler")
	}
	if stats == nil {
		panic("stats cannot be nil for ReviewHandler")
	}
	if defaultLimit < 1 {
		defaultLimit = DefaultDueLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		selector:          selector,
		stats:             stats,
		defaultLimit:      defaultLimit,
		prioritizeOverdue: prioritizeOverdue,
		logger:            logger.With(slog.String("component", "review_handler")),
	}
}

// RegisterRoutes mounts the review endpoints on r.
func (h *ReviewHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reviews/due", h.GetDueCards)
	r.Get("/stats/daily", h.GetDailyStats)
}

// GetDueCards handles GET /reviews/due?max_cards=&prioritize_overdue=&user_id=
func (h *ReviewHandler) GetDueCards(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid user_id")
		return
	}
	maxCards, err := queryInt(r, "max_cards", h.defaultLimit)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid max_cards")
		return
	}
	prioritize, err := queryBool(r, "prioritize_overdue", h.prioritizeOverdue)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid prioritize_overdue")
		return
	}

	cards, err := h.selector.SelectDueCards(r.Context(), review_queue.SelectOptions{
		MaxCards:          maxCards,
		PrioritizeOverdue: prioritize,
		UserID:            userID,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, cards)
}

// GetDailyStats handles GET /stats/daily?user_id=
func (h *ReviewHandler) GetDailyStats(w http.ResponseWriter, r *http.Request) {
	userID, err := queryUserID(r)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid user_id")
		return
	}

	stats, err := h.stats.DailyStats(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute statistics")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
