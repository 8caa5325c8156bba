// internal/app/features/rpc/moderation.go
package rpc

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	reviewstore "github.com/dalemusser/clubreviews/internal/app/store/reviews"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type flagRequest struct {
	ReviewID string `json:"review_id"`
}

type flagResponse struct {
	Flagged bool `json:"flagged"`
}

// HandleMarkReviewFlagged handles POST /rpc/mark_review_flagged.
// There is no operation that clears the flag.
func (h *Handler) HandleMarkReviewFlagged(w http.ResponseWriter, r *http.Request) {
	var req flagRequest
	if !decode(w, r, &req) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	id, err := primitive.ObjectIDFromHex(req.ReviewID)
	if err != nil {
		h.Audit.ReviewFlagFailed(ctx, r, req.ReviewID, "invalid review id")
		uierrors.WriteError(w, http.StatusBadRequest, "review_id is not a valid id.")
		return
	}

	rev, err := h.Reviews.GetByID(ctx, id)
	if err == nil {
		err = h.Reviews.MarkFlagged(ctx, id)
	}
	switch {
	case errors.Is(err, reviewstore.ErrNotFound):
		h.Audit.ReviewFlagFailed(ctx, r, req.ReviewID, "not found")
		uierrors.WriteError(w, http.StatusNotFound, "Review not found.")
		return
	case err != nil:
		h.Audit.ReviewFlagFailed(ctx, r, req.ReviewID, err.Error())
		h.ErrLog.LogServerError(w, r, "mark_review_flagged failed", err, "Unable to report this review. Please try again.")
		return
	}

	h.Log.Info("review flagged",
		zap.String("organization_id", rev.OrganizationID),
		zap.String("review_id", id.Hex()))
	h.Audit.ReviewFlagged(ctx, r, rev.OrganizationID, id.Hex())
	if h.Stats != nil {
		h.Stats.Invalidate(ctx)
	}
	uierrors.WriteJSON(w, http.StatusOK, flagResponse{Flagged: true})
}
