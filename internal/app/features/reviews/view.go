// internal/app/features/reviews/view.go
package reviews

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type existsResponse struct {
	ID     string `json:"id"`
	Exists bool   `json:"exists"`
}

// ServeExists handles GET /api/reviews/{id}. It answers 200 when the review
// is stored (flagged or not) and 404 otherwise, so a client can tell a
// stale receipt from a live one.
func (h *Handler) ServeExists(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.WriteError(w, http.StatusNotFound, "Review not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ok, err := h.Reviews.Exists(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "review lookup failed", err, "Unable to look up review.")
		return
	}
	if !ok {
		uierrors.WriteError(w, http.StatusNotFound, "Review not found.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, existsResponse{ID: id.Hex(), Exists: true})
}
