package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Lock endpoints
		r.Route("/locks", func(r chi.Router) {
			r.Get("/", s.handleListLocks)
			r.Post("/", s.handleCreateLock)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetLock)
				r.Patch("/", s.handleUpdateLock)
				r.Delete("/", s.handleDeleteLock)
				r.Post("/command", s.handleLockCommand)
				r.Post("/sync", s.handleLockSync)
				r.Get("/access-logs", s.handleListLockAccessLogs)
			})
		})

		// Credential endpoints
		r.Route("/access-codes", func(r chi.Router) {
			r.Get("/", s.handleListCodes)
			r.Post("/", s.handleCreateCode)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCode)
				r.Patch("/", s.handleUpdateCode)
				r.Delete("/", s.handleDeleteCode)
			})
		})

		r.Route("/rfid-cards", func(r chi.Router) {
			r.Get("/", s.handleListCards)
			r.Post("/", s.handleCreateCard)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCard)
				r.Patch("/", s.handleUpdateCard)
				r.Delete("/", s.handleDeleteCard)
			})
		})

		// Access log endpoints
		r.Get("/access-logs", s.handleListAccessLogs)

		// Pending device endpoints
		r.Route("/pending-devices", func(r chi.Router) {
			r.Get("/", s.handleListPending)
			r.Delete("/{deviceID}", s.handleDeletePending)
		})

		// Event stream
		r.Get("/events", s.handleEvents)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	mqttConnected := s.commander != nil && s.commander.IsConnected()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"mqtt":    mqttConnected,
	})
}
