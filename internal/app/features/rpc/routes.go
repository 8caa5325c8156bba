// internal/app/features/rpc/routes.go
package rpc

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the rpc routes (typically under "/rpc"). write, when
// non-nil, wraps the operations that change state.
func Routes(h *Handler, write func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/check_can_submit", h.HandleCheckCanSubmit)
	r.Post("/get_review_stats", h.HandleGetReviewStats)
	r.Group(func(wr chi.Router) {
		if write != nil {
			wr.Use(write)
		}
		wr.Post("/record_submission", h.HandleRecordSubmission)
		wr.Post("/mark_review_flagged", h.HandleMarkReviewFlagged)
	})
	return r
}
