// internal/app/features/organizations/view.go
package organizations

import (
	"context"
	"net/http"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/stats"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// lookup resolves the {id} URL param against the catalog, writing a 404
// when it is unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (models.Organization, bool) {
	org, ok := h.Catalog.ByID(chi.URLParam(r, "id"))
	if !ok {
		uierrors.WriteError(w, http.StatusNotFound, "Organization not found.")
	}
	return org, ok
}

// ServeView handles GET /api/organizations/{id}: the organization, its
// stats by direct reduction over its reviews, and the reviews newest first.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	org, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	reviews, err := h.Reviews.ListByOrganization(ctx, org.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list reviews failed", err, "Unable to load reviews.")
		return
	}

	resp := detailResponse{
		Organization: org,
		About:        org.About(),
		Reviews:      views(reviews),
		ReviewCount:  len(reviews),
	}
	if s, ok := stats.Reduce(org.ID, reviews); ok {
		resp.Stats = &s
		resp.RatingLabel = models.RatingLabel(s.AverageRating)
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// ServeReviews handles GET /api/organizations/{id}/reviews.
func (h *Handler) ServeReviews(w http.ResponseWriter, r *http.Request) {
	org, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	reviews, err := h.Reviews.ListByOrganization(ctx, org.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list reviews failed", err, "Unable to load reviews.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, reviewsResponse{OrganizationID: org.ID, Reviews: views(reviews)})
}

// ServeCount handles GET /api/organizations/{id}/reviews/count.
func (h *Handler) ServeCount(w http.ResponseWriter, r *http.Request) {
	org, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Reviews.Count(ctx, org.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count reviews failed", err, "Unable to count reviews.")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, countResponse{OrganizationID: org.ID, Count: n})
}

// ServeStats handles GET /api/organizations/{id}/stats. stats is null for
// an organization with no visible reviews.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	org, ok := h.lookup(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	s, found, err := stats.NewDirect(h.Reviews).Stats(ctx, org.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "compute stats failed", err, "Unable to load stats.")
		return
	}
	resp := statsResponse{OrganizationID: org.ID}
	if found {
		resp.Stats = &s
	}
	uierrors.WriteJSON(w, http.StatusOK, resp)
}
