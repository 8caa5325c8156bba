package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestServer(t *testing.T, r chi.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(Options{BaseURL: srv.URL, Timeout: 2 * time.Second, StatsRetryWait: time.Millisecond})
}

func TestListOrganizations_EncodesQuery(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/organizations", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "robot", q.Get("q"))
		assert.Equal(t, "STEM", q.Get("category"))
		assert.Equal(t, "25", q.Get("start"))
		writeJSON(w, http.StatusOK, map[string]any{
			"organizations": []map[string]any{
				{"organization": map[string]any{"Id": 420940, "Name": "Robotics"}, "stats": map[string]any{"average_rating": 4.5, "review_count": 2}},
			},
			"range":           map[string]any{"start": 25, "end": 25, "total": 25},
			"stats_available": true,
		})
	})
	c := newTestServer(t, r)

	out, err := c.ListOrganizations(context.Background(), ListQuery{Search: "robot", Category: "STEM", Start: 25})
	require.NoError(t, err)
	require.Len(t, out.Organizations, 1)
	assert.Equal(t, "420940", out.Organizations[0].Organization.ID)
	assert.Equal(t, 4.5, out.Organizations[0].Stats.AverageRating)
	assert.Equal(t, 25, out.Range.Total)
	assert.True(t, out.StatsAvailable)
}

func TestOrganization_NotFound(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/organizations/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Organization not found."})
	})
	c := newTestServer(t, r)

	_, err := c.Organization(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Organization not found.", apiErr.Message)
}

func TestLedgerCalls(t *testing.T) {
	var recorded atomic.Int32
	r := chi.NewRouter()
	r.Post("/rpc/check_can_submit", func(w http.ResponseWriter, r *http.Request) {
		var req ledgerRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dev-1", req.DeviceID)
		writeJSON(w, http.StatusOK, map[string]bool{"allowed": req.OrganizationID == "1"})
	})
	r.Post("/rpc/record_submission", func(w http.ResponseWriter, r *http.Request) {
		recorded.Add(1)
		writeJSON(w, http.StatusOK, map[string]bool{"recorded": true})
	})
	c := newTestServer(t, r)
	ctx := context.Background()

	ok, err := c.CheckCanSubmit(ctx, "dev-1", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.CheckCanSubmit(ctx, "dev-1", "2")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.RecordSubmission(ctx, "dev-1", "1"))
	assert.Equal(t, int32(1), recorded.Load())
}

func TestInsertReview(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/reviews", func(w http.ResponseWriter, r *http.Request) {
		var d models.ReviewDraft
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&d))
		if d.Rating == 0 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "Rating is required.",
				"fields": map[string]string{"Rating": "Rating is required."},
			})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": "65f0c0ffee", "created_at": time.Now()})
	})
	c := newTestServer(t, r)
	ctx := context.Background()

	id, err := c.InsertReview(ctx, models.ReviewDraft{OrganizationID: "1", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, "65f0c0ffee", id)

	_, err = c.InsertReview(ctx, models.ReviewDraft{OrganizationID: "1"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "Rating is required.", apiErr.Fields["Rating"])
}

func TestReviewExists(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "live":
			writeJSON(w, http.StatusOK, map[string]any{"id": "live", "exists": true})
		case "boom":
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Unable to load review."})
		default:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Review not found."})
		}
	})
	c := newTestServer(t, r)
	ctx := context.Background()

	ok, err := c.ReviewExists(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ReviewExists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.ReviewExists(ctx, "boom")
	assert.Error(t, err)
}

func TestReviewStats_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post("/rpc/get_review_stats", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Unable to load stats."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"stats": []models.OrganizationStats{
			{OrganizationID: "1", AverageRating: 3.5, ReviewCount: 2},
		}})
	})
	c := newTestServer(t, r)

	rows, err := c.ReviewStats(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3.5, rows[0].AverageRating)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReviewStats_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	r := chi.NewRouter()
	r.Post("/rpc/get_review_stats", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Unable to load stats."})
	})
	c := newTestServer(t, r)

	_, err := c.ReviewStats(context.Background(), []string{"1"})
	require.Error(t, err)
	assert.Equal(t, int32(1+DefaultStatsRetries), calls.Load())
}

func TestMarkReviewFlagged(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/rpc/mark_review_flagged", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ReviewID string `json:"review_id"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.ReviewID == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "Review not found."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"flagged": true})
	})
	c := newTestServer(t, r)
	ctx := context.Background()

	require.NoError(t, c.MarkReviewFlagged(ctx, "r1"))
	assert.True(t, IsNotFound(c.MarkReviewFlagged(ctx, "missing")))
}
