// internal/app/features/reviews/create.go
package reviews

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/inputval"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"go.uber.org/zap"
)

type createResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// HandleCreate handles POST /api/reviews.
//
// The body is a models.ReviewDraft. Invalid drafts get a 422 with per-field
// messages and nothing is stored. The response carries the assigned id.
// This endpoint does not consult the submissions ledger; the client checks
// and records eligibility through the rpc endpoints around this call.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var draft models.ReviewDraft
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&draft); err != nil {
		uierrors.WriteError(w, http.StatusBadRequest, "Request body must be a JSON review.")
		return
	}
	draft.OrganizationID = strings.TrimSpace(draft.OrganizationID)
	draft.TextContent = strings.TrimSpace(draft.TextContent)
	draft.UserMajor = strings.TrimSpace(draft.UserMajor)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if res := inputval.Validate(draft); res.HasErrors() {
		h.Audit.ReviewRejected(ctx, r, draft.OrganizationID, res.All())
		uierrors.WriteJSON(w, http.StatusUnprocessableEntity, uierrors.Body{
			Error:  res.First(),
			Fields: res.Fields(),
		})
		return
	}
	if _, ok := h.Catalog.ByID(draft.OrganizationID); !ok {
		h.Audit.ReviewRejected(ctx, r, draft.OrganizationID, "unknown organization")
		uierrors.WriteJSON(w, http.StatusUnprocessableEntity, uierrors.Body{
			Error:  "Organization not found.",
			Fields: map[string]string{"OrganizationID": "Organization not found."},
		})
		return
	}

	saved, err := h.Reviews.Insert(ctx, draft.Review())
	if err != nil {
		h.ErrLog.LogServerError(w, r, "insert review failed", err, "Unable to save your review. Please try again.")
		return
	}

	h.Log.Info("review created",
		zap.String("organization_id", saved.OrganizationID),
		zap.String("review_id", saved.ID.Hex()))
	h.Audit.ReviewCreated(ctx, r, saved.OrganizationID, saved.ID.Hex())
	if h.Stats != nil {
		h.Stats.Invalidate(ctx)
	}

	uierrors.WriteJSON(w, http.StatusCreated, createResponse{ID: saved.ID.Hex(), CreatedAt: saved.CreatedAt})
}
