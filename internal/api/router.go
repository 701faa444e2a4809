package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	apiMiddleware "github.com/phrazzld/scry-review/internal/api/middleware"
)

// NewRouter builds the HTTP handler for the review API.
func NewRouter(logger *slog.Logger, sessions *SessionHandler, reviews *ReviewHandler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(logger))
	r.Use(chimw.Recoverer)

	r.Route("/api", func(r chi.Router) {
		sessions.RegisterRoutes(r)
		reviews.RegisterRoutes(r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
