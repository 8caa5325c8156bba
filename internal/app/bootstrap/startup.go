// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/clubreviews/internal/app/catalog"
	"github.com/dalemusser/clubreviews/internal/app/store/audit"
	reviewstore "github.com/dalemusser/clubreviews/internal/app/store/reviews"
	submissionstore "github.com/dalemusser/clubreviews/internal/app/store/submissions"
	"github.com/dalemusser/clubreviews/internal/app/system/auditlog"
	"github.com/dalemusser/clubreviews/internal/app/system/devicehash"
	"github.com/dalemusser/clubreviews/internal/app/system/ratelimit"
	"github.com/dalemusser/clubreviews/internal/app/system/stats"
	"github.com/dalemusser/clubreviews/internal/app/system/statscache"
	"github.com/dalemusser/clubreviews/internal/app/system/tasks"
	"github.com/dalemusser/clubreviews/internal/app/system/timeouts"
	"github.com/dalemusser/clubreviews/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// services are built once in Startup and used by BuildHandler and Shutdown.
type services struct {
	Catalog     *catalog.Catalog
	Reviews     *reviewstore.Store
	Submissions *submissionstore.Store
	Stats       *stats.Cached
	Hasher      *devicehash.Hasher
	Audit       *auditlog.Logger
	Throttle    *ratelimit.Limiter
	Runner      *workers.Runner
	TrustProxy  bool
}

var svc *services

// Startup loads the organization catalog, builds the stores and the stats
// pipeline, and starts the background stats warmer.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv("CLUBREVIEWS_"); n > 0 {
		logger.Info("timeouts overridden from environment", zap.Int("count", n))
	}

	s, err := newServices(appCfg, deps, logger)
	if err != nil {
		return err
	}
	s.Runner.Start()
	svc = s
	return nil
}

func newServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	cat, err := catalog.Load(appCfg.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed", zap.String("path", appCfg.CatalogPath), zap.Error(err))
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	logger.Info("catalog loaded", zap.Int("organizations", cat.Len()))

	reviews := reviewstore.New(deps.MongoDatabase)

	var cache stats.Cache
	if deps.Redis != nil {
		cache = statscache.New(deps.Redis, appCfg.StatsCacheTTL)
	}
	cached := stats.NewCached(stats.NewBatched(reviews), cache, logger)

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Submission: appCfg.AuditLogSubmission,
		Moderation: appCfg.AuditLogModeration,
	})

	var jobs []tasks.Job
	if cache != nil {
		jobs = append(jobs, tasks.StatsWarmJob(cached, logger, appCfg.StatsRefreshInterval))
	}

	return &services{
		Catalog:     cat,
		Reviews:     reviews,
		Submissions: submissionstore.New(deps.MongoDatabase),
		Stats:       cached,
		Hasher:      devicehash.New(appCfg.DeviceHashKey),
		Audit:       auditLog,
		Throttle:    ratelimit.New(appCfg.WriteRateLimit, appCfg.WriteRateWindow),
		Runner:      workers.NewRunner(logger, timeouts.Batch(), jobs...),
		TrustProxy:  appCfg.TrustProxyHeaders,
	}, nil
}
