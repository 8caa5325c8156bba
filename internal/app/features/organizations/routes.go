// internal/app/features/organizations/routes.go
package organizations

import "github.com/go-chi/chi/v5"

// Routes mounts the organization routes (typically under "/api/organizations").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)
	r.Get("/{id}/reviews", h.ServeReviews)
	r.Get("/{id}/reviews/count", h.ServeCount)
	r.Get("/{id}/stats", h.ServeStats)
	return r
}
