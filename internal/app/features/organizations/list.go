// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"net/http"

	"github.com/dalemusser/clubreviews/internal/app/catalog"
	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/system/paging"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// ServeList handles GET /api/organizations?q=&category=&start=&limit=.
//
// The filtered catalog is ranked by review count, then name, using the
// batched stats. If stats cannot be loaded the listing is still served,
// unranked by reviews and with stats_available=false.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := query.Search(r, "q")
	category := query.Get(r, "category")
	start := paging.ParseStart(r)
	limit := paging.ParseLimit(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	resp := listResponse{StatsAvailable: true}
	all, err := h.Stats.All(ctx)
	if err != nil {
		h.Log.Warn("listing without stats", zap.Error(err))
		resp.StatsAvailable = false
	}

	ranked := catalog.Rank(h.Catalog.Filter(category, q), all)
	resp.Organizations, resp.Range = paging.Window(ranked, start, limit)

	unfiltered := q == "" && (category == "" || category == catalog.AllCategory)
	if unfiltered && start == 1 {
		resp.Featured = catalog.Featured(ranked)
	}

	uierrors.WriteJSON(w, http.StatusOK, resp)
}

// ServeCategories handles GET /api/categories.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	uierrors.WriteJSON(w, http.StatusOK, categoriesResponse{
		Categories: h.Catalog.Categories(catalog.DefaultFacetCount),
	})
}
