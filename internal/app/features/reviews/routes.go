// internal/app/features/reviews/routes.go
package reviews

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the review routes (typically under "/api/reviews").
// write, when non-nil, wraps the mutating routes.
func Routes(h *Handler, write func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{id}", h.ServeExists)
	r.Group(func(wr chi.Router) {
		if write != nil {
			wr.Use(write)
		}
		wr.Post("/", h.HandleCreate)
	})
	return r
}
