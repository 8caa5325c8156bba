package bootstrap

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/clubreviews/internal/domain/models"
	"github.com/dalemusser/clubreviews/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "clubreviews",
		StatsCacheTTL:        10 * time.Minute,
		StatsRefreshInterval: 5 * time.Minute,
		DeviceHashKey:        devDeviceHashKey,
		WriteRateLimit:       30,
		WriteRateWindow:      time.Minute,
		AuditLogSubmission:   "all",
		AuditLogModeration:   "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		edit    func(c *AppConfig)
		wantErr string
	}{
		{"defaults in dev", "dev", func(c *AppConfig) {}, ""},
		{"bad mongo uri", "dev", func(c *AppConfig) { c.MongoURI = "postgres://x" }, "MongoDB URI"},
		{"missing database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"bad redis url", "dev", func(c *AppConfig) { c.RedisURL = "http://nope" }, "redis_url"},
		{"redis without ttl", "dev", func(c *AppConfig) { c.RedisURL = "redis://localhost:6379/0"; c.StatsCacheTTL = 0 }, "stats_cache_ttl"},
		{"redis ok", "dev", func(c *AppConfig) { c.RedisURL = "redis://localhost:6379/0" }, ""},
		{"empty hash key", "dev", func(c *AppConfig) { c.DeviceHashKey = "" }, "device_hash_key"},
		{"default hash key in prod", "prod", func(c *AppConfig) {}, "device_hash_key"},
		{"custom hash key in prod", "prod", func(c *AppConfig) { c.DeviceHashKey = "s3cret-s3cret" }, ""},
		{"zero write limit", "dev", func(c *AppConfig) { c.WriteRateLimit = 0 }, "write_rate_limit"},
		{"bad audit setting", "dev", func(c *AppConfig) { c.AuditLogModeration = "sometimes" }, "audit_log_moderation"},
		{"blank audit setting", "dev", func(c *AppConfig) { c.AuditLogSubmission = "" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.edit(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error: got %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewServices_BadCatalog(t *testing.T) {
	cfg := validConfig()
	cfg.CatalogPath = t.TempDir() + "/missing.json"
	if _, err := newServices(cfg, DBDeps{}, testLogger()); err == nil {
		t.Fatal("expected error for a missing catalog file")
	}
}

func TestBuildHandler_BeforeStartup(t *testing.T) {
	svc = nil
	if _, err := BuildHandler(&config.CoreConfig{}, validConfig(), DBDeps{}, testLogger()); err == nil {
		t.Fatal("expected error when Startup has not run")
	}
}

// Drives the assembled router through one submission, the way a client would.
func TestRouter_SubmissionFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	if err := EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	s, err := newServices(validConfig(), deps, testLogger())
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	defer s.Throttle.Close()
	router := newRouter(s, deps, testLogger())

	do := func(req *http.Request) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	do(testutil.NewRequest("GET", "/health")).AssertStatus(t, http.StatusOK)
	do(testutil.NewRequest("GET", "/api/categories")).AssertContains(t, `"All"`)
	do(testutil.NewRequest("GET", "/nope")).AssertStatus(t, http.StatusNotFound)

	orgID := s.Catalog.All()[0].ID
	ledger := map[string]string{"device_id": "device-1", "organization_id": orgID}

	rec := do(testutil.NewJSONRequest(t, "POST", "/rpc/check_can_submit", ledger))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"allowed":true`)

	rec = do(testutil.NewJSONRequest(t, "POST", "/api/reviews", models.ReviewDraft{
		OrganizationID: orgID,
		Rating:         4.5,
		VibeSocial:     models.IntPtr(75),
		VibeWorkload:   models.IntPtr(25),
		VibeValue:      models.IntPtr(60),
		TextContent:    "Great club",
		UserMajor:      "CS",
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var created struct {
		ID string `json:"id"`
	}
	rec.DecodeJSON(t, &created)

	do(testutil.NewJSONRequest(t, "POST", "/rpc/record_submission", ledger)).AssertStatus(t, http.StatusOK)
	do(testutil.NewJSONRequest(t, "POST", "/rpc/check_can_submit", ledger)).AssertContains(t, `"allowed":false`)
	do(testutil.NewRequest("GET", "/api/reviews/"+created.ID)).AssertStatus(t, http.StatusOK)

	rec = do(testutil.NewRequest("GET", "/api/organizations/"+orgID+"/stats"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"average_rating":4.5`)
	rec.AssertContains(t, `"review_count":1`)

	rec = do(testutil.NewRequest("GET", "/api/organizations?limit=1"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"Id":"`+orgID+`"`)
}

func TestRouter_ThrottlesWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	cfg := validConfig()
	cfg.WriteRateLimit = 2
	s, err := newServices(cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("newServices: %v", err)
	}
	defer s.Throttle.Close()
	router := newRouter(s, deps, testLogger())

	body := map[string]string{"device_id": "d", "organization_id": "x"}
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := testutil.NewRecorder()
		router.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/rpc/record_submission", body))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes: %v", codes)
	}

	// Reads are not throttled.
	rec := testutil.NewRecorder()
	router.ServeHTTP(rec, testutil.NewJSONRequest(t, "POST", "/rpc/check_can_submit", body))
	rec.AssertStatus(t, http.StatusOK)
}

func TestRouter_ProxyHeaderTrust(t *testing.T) {
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}
	body := map[string]string{"device_id": "d", "organization_id": "x"}

	// Each request claims a different forwarded client from one socket.
	rotate := func(router http.Handler) []int {
		codes := make([]int, 0, 3)
		for i := 0; i < 3; i++ {
			req := testutil.NewJSONRequest(t, "POST", "/rpc/record_submission", body)
			req.RemoteAddr = "203.0.113.7:4000"
			req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
			rec := testutil.NewRecorder()
			router.ServeHTTP(rec, req)
			codes = append(codes, rec.Code)
		}
		return codes
	}

	for _, tt := range []struct {
		name      string
		trust     bool
		wantThird int
	}{
		{"untrusted headers share the socket limit", false, http.StatusTooManyRequests},
		{"trusted proxy headers key per client", true, http.StatusOK},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.WriteRateLimit = 2
			cfg.TrustProxyHeaders = tt.trust
			s, err := newServices(cfg, deps, testLogger())
			if err != nil {
				t.Fatalf("newServices: %v", err)
			}
			defer s.Throttle.Close()

			codes := rotate(newRouter(s, deps, testLogger()))
			if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != tt.wantThird {
				t.Errorf("codes: %v", codes)
			}
		})
	}
}
