package report

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minewatch/minewatch-api/internal/middleware"
)

// Routes returns report router. optionalAuth identifies callers without
// rejecting anonymous ones; authMiddleware requires a valid token.
// The live feed is mounted separately since it must bypass compression.
func (h *Handler) Routes(optionalAuth, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/map", h.Map)
	r.Get("/{id}", h.GetByID)

	r.With(optionalAuth).Post("/", h.Create)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAuthority())
		r.Patch("/{id}/status", h.UpdateStatus)
	})

	return r
}
