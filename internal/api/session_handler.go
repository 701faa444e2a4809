package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-review/internal/api/shared"
	"github.com/phrazzld/scry-review/internal/domain"
	"github.com/phrazzld/scry-review/internal/platform/logger"
	"github.com/phrazzld/scry-review/internal/service/review_session"
)

// SessionManager is the subset of review_session.Manager the handlers use.
type SessionManager interface {
	StartSession(ctx context.Context, maxCards int, userID uuid.NullUUID) (*review_session.Session, error)
	GetSession(sessionID string) *review_session.Session
	GetCurrentCard(sessionID string) *domain.DailyReviewCard
	GradeCurrentCard(
		ctx context.Context,
		sessionID string,
		grade domain.Grade,
		responseTimeMS *int64,
	) (*review_session.GradeResult, error)
	PauseSession(ctx context.Context, sessionID string) bool
	ResumeSession(ctx context.Context, sessionID string) bool
	CancelSession(ctx context.Context, sessionID string) bool
	GetSessionProgress(sessionID string) *review_session.ProgressView
	CleanupCompletedSessions(ctx context.Context, hoursOld int) int
}

var _ SessionManager = (*review_session.Manager)(nil)

// SessionHandler serves the review session endpoints.
type SessionHandler struct {
	sessions SessionManager
	logger   *slog.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions SessionManager, logger *slog.Logger) *SessionHandler {
	if sessions == nil {
		panic("sessions cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// RegisterRoutes mounts the session endpoints on r.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.StartSession)
	r.Post("/sessions/cleanup", h.CleanupSessions)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Get("/current", h.GetCurrentCard)
		r.Post("/grade", h.GradeCurrentCard)
		r.Post("/pause", h.PauseSession)
		r.Post("/resume", h.ResumeSession)
		r.Post("/cancel", h.CancelSession)
		r.Get("/progress", h.GetProgress)
	})
}

// StartSession handles POST /sessions
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	session, err := h.sessions.StartSession(r.Context(), req.MaxCards, optionalUUID(req.UserID))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, session)
}

// GetSession handles GET /sessions/{id}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetSession(chi.URLParam(r, "id"))
	if session == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Session not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// GetCurrentCard handles GET /sessions/{id}/current. It answers 204 when
// there is no card to show.
func (h *SessionHandler) GetCurrentCard(w http.ResponseWriter, r *http.Request) {
	card := h.sessions.GetCurrentCard(chi.URLParam(r, "id"))
	if card == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// GradeCurrentCard handles POST /sessions/{id}/grade
func (h *SessionHandler) GradeCurrentCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	sessionID := chi.URLParam(r, "id")

	var req GradeRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.sessions.GradeCurrentCard(r.Context(), sessionID, domain.Grade(*req.Grade), req.ResponseTimeMS)
	if err != nil {
		if errors.Is(err, review_session.ErrPersistence) {
			log.Warn("grade not persisted", slog.String("session_id", sessionID))
		}
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// PauseSession handles POST /sessions/{id}/pause
func (h *SessionHandler) PauseSession(w http.ResponseWriter, r *http.Request) {
	ok := h.sessions.PauseSession(r.Context(), chi.URLParam(r, "id"))
	shared.RespondWithJSON(w, r, http.StatusOK, TransitionResponse{Success: ok})
}

// ResumeSession handles POST /sessions/{id}/resume
func (h *SessionHandler) ResumeSession(w http.ResponseWriter, r *http.Request) {
	ok := h.sessions.ResumeSession(r.Context(), chi.URLParam(r, "id"))
	shared.RespondWithJSON(w, r, http.StatusOK, TransitionResponse{Success: ok})
}

// CancelSession handles POST /sessions/{id}/cancel
func (h *SessionHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	ok := h.sessions.CancelSession(r.Context(), chi.URLParam(r, "id"))
	shared.RespondWithJSON(w, r, http.StatusOK, TransitionResponse{Success: ok})
}

// GetProgress handles GET /sessions/{id}/progress
func (h *SessionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	view := h.sessions.GetSessionProgress(chi.URLParam(r, "id"))
	if view == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Session not found")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// CleanupSessions handles POST /sessions/cleanup
func (h *SessionHandler) CleanupSessions(w http.ResponseWriter, r *http.Request) {
	var req CleanupRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	removed := h.sessions.CleanupCompletedSessions(r.Context(), *req.HoursOld)
	shared.RespondWithJSON(w, r, http.StatusOK, CleanupResponse{Removed: removed})
}
