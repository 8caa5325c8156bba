// internal/app/features/rpc/stats.go
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/dalemusser/clubreviews/internal/domain/models"
)

type statsRequest struct {
	OrganizationIDs []string `json:"organization_ids,omitempty"`
}

type statsResponse struct {
	Stats []models.OrganizationStats `json:"stats"`
}

// HandleGetReviewStats handles POST /rpc/get_review_stats. It returns one
// row per organization with visible reviews, ordered by organization id,
// optionally restricted to organization_ids. An empty body means all.
func (h *Handler) HandleGetReviewStats(w http.ResponseWriter, r *http.Request) {
	var req statsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		uierrors.WriteError(w, http.StatusBadRequest, "Request body must be JSON.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.Stats.All(ctx)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get_review_stats failed", err, "Unable to load stats.")
		return
	}

	var want map[string]bool
	if len(req.OrganizationIDs) > 0 {
		want = make(map[string]bool, len(req.OrganizationIDs))
		for _, id := range req.OrganizationIDs {
			want[strings.TrimSpace(id)] = true
		}
	}

	rows := make([]models.OrganizationStats, 0, len(all))
	for id, s := range all {
		if want == nil || want[id] {
			rows = append(rows, s)
		}
	}
	slices.SortFunc(rows, func(a, b models.OrganizationStats) int {
		return strings.Compare(a.OrganizationID, b.OrganizationID)
	})
	uierrors.WriteJSON(w, http.StatusOK, statsResponse{Stats: rows})
}
