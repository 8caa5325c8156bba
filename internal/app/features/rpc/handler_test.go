package rpc_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	uierrors "github.com/dalemusser/clubreviews/internal/app/features/errors"
	"github.com/dalemusser/clubreviews/internal/app/features/rpc"
	"github.com/dalemusser/clubreviews/internal/app/store/audit"
	reviewstore "github.com/dalemusser/clubreviews/internal/app/store/reviews"
	submissionstore "github.com/dalemusser/clubreviews/internal/app/store/submissions"
	"github.com/dalemusser/clubreviews/internal/app/system/auditlog"
	"github.com/dalemusser/clubreviews/internal/app/system/devicehash"
	"github.com/dalemusser/clubreviews/internal/app/system/indexes"
	"github.com/dalemusser/clubreviews/internal/app/system/stats"
	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/dalemusser/clubreviews/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memLedger struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memLedger) CheckCanSubmit(_ context.Context, hash, org string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	return !m.seen[hash+"|"+org], nil
}

func (m *memLedger) RecordSubmission(_ context.Context, hash, org string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	m.seen[hash+"|"+org] = true
	return nil
}

func (m *memLedger) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.seen {
		out = append(out, k)
	}
	return out
}

type memReviews struct {
	byID map[primitive.ObjectID]*models.Review
	err  error
}

func (m *memReviews) GetByID(_ context.Context, id primitive.ObjectID) (models.Review, error) {
	if m.err != nil {
		return models.Review{}, m.err
	}
	r, ok := m.byID[id]
	if !ok {
		return models.Review{}, reviewstore.ErrNotFound
	}
	return *r, nil
}

func (m *memReviews) MarkFlagged(_ context.Context, id primitive.ObjectID) error {
	r, ok := m.byID[id]
	if !ok {
		return reviewstore.ErrNotFound
	}
	r.Flagged = true
	return nil
}

type memStats struct {
	all         map[string]models.OrganizationStats
	err         error
	invalidated int
}

func (m *memStats) All(context.Context) (map[string]models.OrganizationStats, error) {
	return m.all, m.err
}

func (m *memStats) Invalidate(context.Context) { m.invalidated++ }

type memSink struct{ events []audit.Event }

func (m *memSink) Log(_ context.Context, e audit.Event) error {
	m.events = append(m.events, e)
	return nil
}

type harness struct {
	router  chi.Router
	ledger  *memLedger
	reviews *memReviews
	stats   *memStats
	sink    *memSink
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	hs := &harness{
		ledger:  &memLedger{},
		reviews: &memReviews{byID: map[primitive.ObjectID]*models.Review{}},
		stats:   &memStats{},
		sink:    &memSink{},
	}
	al := auditlog.New(hs.sink, logger, auditlog.Config{Submission: auditlog.SettingDB, Moderation: auditlog.SettingDB})
	h := rpc.NewHandler(devicehash.New("test-key"), hs.ledger, hs.reviews, hs.stats, al, uierrors.NewErrorLogger(logger), logger)
	hs.router = chi.NewRouter()
	hs.router.Mount("/rpc", rpc.Routes(h, nil))
	return hs
}

func (hs *harness) post(t *testing.T, path string, body any) *testutil.ResponseRecorder {
	t.Helper()
	rec := testutil.NewRecorder()
	hs.router.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", path, body))
	return rec
}

func allowed(t *testing.T, rec *testutil.ResponseRecorder) bool {
	t.Helper()
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Allowed bool `json:"allowed"`
	}
	rec.DecodeJSON(t, &body)
	return body.Allowed
}

func TestLedger_MonotonicLockout(t *testing.T) {
	hs := newHarness(t)
	req := map[string]string{"device_id": "dev-1", "organization_id": "123"}

	if !allowed(t, hs.post(t, "/rpc/check_can_submit", req)) {
		t.Fatal("fresh device should be allowed")
	}

	rec := hs.post(t, "/rpc/record_submission", req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"recorded":true`)

	for i := 0; i < 3; i++ {
		if allowed(t, hs.post(t, "/rpc/check_can_submit", req)) {
			t.Fatalf("check %d: expected lockout after record", i)
		}
	}

	// Recording again is harmless.
	hs.post(t, "/rpc/record_submission", req).AssertStatus(t, http.StatusOK)

	// Other organizations and other devices are unaffected.
	if !allowed(t, hs.post(t, "/rpc/check_can_submit", map[string]string{"device_id": "dev-1", "organization_id": "456"})) {
		t.Error("other organization should be allowed")
	}
	if !allowed(t, hs.post(t, "/rpc/check_can_submit", map[string]string{"device_id": "dev-2", "organization_id": "123"})) {
		t.Error("other device should be allowed")
	}

	if len(hs.sink.events) != 2 || hs.sink.events[0].EventType != audit.EventSubmissionRecorded {
		t.Errorf("audit events: %+v", hs.sink.events)
	}
}

func TestLedger_StoresHashNotDeviceID(t *testing.T) {
	hs := newHarness(t)
	hs.post(t, "/rpc/record_submission", map[string]string{"device_id": "raw-device-id", "organization_id": "1"}).
		AssertStatus(t, http.StatusOK)

	for _, k := range hs.ledger.keys() {
		if strings.Contains(k, "raw-device-id") {
			t.Errorf("ledger key contains the raw device id: %q", k)
		}
	}
}

func TestLedger_BadRequests(t *testing.T) {
	hs := newHarness(t)
	tests := []struct {
		name string
		body any
	}{
		{"missing device", map[string]string{"organization_id": "1"}},
		{"blank device", map[string]string{"device_id": "  ", "organization_id": "1"}},
		{"long device", map[string]string{"device_id": strings.Repeat("x", devicehash.MaxDeviceIDLen+1), "organization_id": "1"}},
		{"missing organization", map[string]string{"device_id": "d"}},
		{"not an object", []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs.post(t, "/rpc/check_can_submit", tt.body).AssertStatus(t, http.StatusBadRequest)
			hs.post(t, "/rpc/record_submission", tt.body).AssertStatus(t, http.StatusBadRequest)
		})
	}
	if len(hs.ledger.keys()) != 0 {
		t.Error("bad requests must not touch the ledger")
	}
}

func TestLedger_StoreError(t *testing.T) {
	hs := newHarness(t)
	hs.ledger.err = errors.New("no primary")
	req := map[string]string{"device_id": "d", "organization_id": "1"}

	rec := hs.post(t, "/rpc/check_can_submit", req)
	rec.AssertStatus(t, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "no primary") {
		t.Error("driver error leaked")
	}
	hs.post(t, "/rpc/record_submission", req).AssertStatus(t, http.StatusInternalServerError)
	if len(hs.sink.events) != 0 {
		t.Error("failed record must not be audited as recorded")
	}
}

func TestMarkReviewFlagged(t *testing.T) {
	hs := newHarness(t)
	id := primitive.NewObjectID()
	hs.reviews.byID[id] = &models.Review{ID: id, OrganizationID: "9", Rating: 1}

	rec := hs.post(t, "/rpc/mark_review_flagged", map[string]string{"review_id": id.Hex()})
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"flagged":true`)

	if !hs.reviews.byID[id].Flagged {
		t.Error("review should be flagged")
	}
	if hs.stats.invalidated != 1 {
		t.Errorf("expected stats invalidation, got %d", hs.stats.invalidated)
	}
	if len(hs.sink.events) != 1 || hs.sink.events[0].EventType != audit.EventReviewFlagged || hs.sink.events[0].OrganizationID != "9" {
		t.Errorf("audit events: %+v", hs.sink.events)
	}

	// Flagging again stays flagged and succeeds.
	hs.post(t, "/rpc/mark_review_flagged", map[string]string{"review_id": id.Hex()}).AssertStatus(t, http.StatusOK)
	if !hs.reviews.byID[id].Flagged {
		t.Error("flag must be monotonic")
	}
}

func TestMarkReviewFlagged_Failures(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		err    error
		status int
	}{
		{"malformed id", "nope", nil, http.StatusBadRequest},
		{"unknown id", primitive.NewObjectID().Hex(), nil, http.StatusNotFound},
		{"store error", primitive.NewObjectID().Hex(), errors.New("timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := newHarness(t)
			hs.reviews.err = tt.err
			hs.post(t, "/rpc/mark_review_flagged", map[string]string{"review_id": tt.id}).AssertStatus(t, tt.status)

			if hs.stats.invalidated != 0 {
				t.Error("failed flag must not invalidate stats")
			}
			if len(hs.sink.events) != 1 || hs.sink.events[0].EventType != audit.EventReviewFlagFailed {
				t.Errorf("audit events: %+v", hs.sink.events)
			}
		})
	}
}

func TestGetReviewStats(t *testing.T) {
	hs := newHarness(t)
	hs.stats.all = map[string]models.OrganizationStats{
		"b": {OrganizationID: "b", AverageRating: 3, ReviewCount: 1},
		"a": {OrganizationID: "a", AverageRating: 4.5, ReviewCount: 2},
		"c": {OrganizationID: "c", AverageRating: 1, ReviewCount: 5},
	}

	type body struct {
		Stats []models.OrganizationStats `json:"stats"`
	}

	rec := testutil.NewRecorder()
	hs.router.ServeHTTP(rec, testutil.NewRequest("POST", "/rpc/get_review_stats"))
	rec.AssertStatus(t, http.StatusOK)
	var all body
	rec.DecodeJSON(t, &all)
	if len(all.Stats) != 3 || all.Stats[0].OrganizationID != "a" || all.Stats[2].OrganizationID != "c" {
		t.Errorf("all stats: %+v", all.Stats)
	}

	rec = hs.post(t, "/rpc/get_review_stats", map[string][]string{"organization_ids": {"c", "zz"}})
	rec.AssertStatus(t, http.StatusOK)
	var some body
	rec.DecodeJSON(t, &some)
	if len(some.Stats) != 1 || some.Stats[0].ReviewCount != 5 {
		t.Errorf("filtered stats: %+v", some.Stats)
	}

	hs.stats.err = errors.New("aggregate failed")
	hs.post(t, "/rpc/get_review_stats", map[string]any{}).AssertStatus(t, http.StatusInternalServerError)
}

// End to end on Mongo: the ledger survives the full check, record, check
// cycle, and flagging removes a review from the batched stats.
func TestRPC_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}

	logger := zap.NewNop()
	reviews := reviewstore.New(db)
	cached := stats.NewCached(stats.NewBatched(reviews), nil, logger)
	h := rpc.NewHandler(devicehash.New("k"), submissionstore.New(db), reviews, cached, nil, uierrors.NewErrorLogger(logger), logger)
	router := chi.NewRouter()
	router.Mount("/rpc", rpc.Routes(h, nil))
	post := func(path string, body any) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", path, body))
		return rec
	}

	req := map[string]string{"device_id": "device-a", "organization_id": "123"}
	if !allowed(t, post("/rpc/check_can_submit", req)) {
		t.Fatal("expected allowed")
	}
	post("/rpc/record_submission", req).AssertStatus(t, http.StatusOK)
	post("/rpc/record_submission", req).AssertStatus(t, http.StatusOK)
	if allowed(t, post("/rpc/check_can_submit", req)) {
		t.Fatal("expected lockout")
	}
	n, err := db.Collection(submissionstore.Collection).CountDocuments(ctx, bson.M{"organization_id": "123"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected exactly one ledger entry, got %d", n)
	}

	fx := testutil.NewFixtures(t, db)
	fx.CreateReview(ctx, "123", 5, 50, 50, 50)
	bad := fx.CreateReview(ctx, "123", 1, 50, 50, 50)

	post("/rpc/mark_review_flagged", map[string]string{"review_id": bad.ID.Hex()}).AssertStatus(t, http.StatusOK)

	rec := post("/rpc/get_review_stats", map[string][]string{"organization_ids": {"123"}})
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Stats []models.OrganizationStats `json:"stats"`
	}
	rec.DecodeJSON(t, &body)
	if len(body.Stats) != 1 || body.Stats[0].ReviewCount != 1 || body.Stats[0].AverageRating != 5 {
		t.Errorf("stats after flag: %+v", body.Stats)
	}

	got, err := reviews.GetByID(ctx, bad.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Flagged {
		t.Error("review should be flagged")
	}
}
