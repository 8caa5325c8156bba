// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	errorsfeature "github.com/dalemusser/clubreviews/internal/app/features/errors"
	healthfeature "github.com/dalemusser/clubreviews/internal/app/features/health"
	organizationsfeature "github.com/dalemusser/clubreviews/internal/app/features/organizations"
	reviewsfeature "github.com/dalemusser/clubreviews/internal/app/features/reviews"
	rpcfeature "github.com/dalemusser/clubreviews/internal/app/features/rpc"
	"github.com/dalemusser/clubreviews/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the review API.
//
// Everything is JSON. Read endpoints live under /api, the named protocol
// operations under /rpc. Mutating routes share one per-IP throttle.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if svc == nil {
		return nil, fmt.Errorf("bootstrap: BuildHandler called before Startup")
	}
	return newRouter(svc, deps, logger), nil
}

func newRouter(s *services, deps DBDeps, logger *zap.Logger) chi.Router {
	errLog := errorsfeature.NewErrorLogger(logger)
	write := ratelimit.Throttle(s.Throttle, logger)

	r := chi.NewRouter()
	if s.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	var rdb redis.Cmdable
	if deps.Redis != nil {
		rdb = deps.Redis
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, rdb, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	orgHandler := organizationsfeature.NewHandler(s.Catalog, s.Reviews, s.Stats, errLog, logger)
	r.Mount("/api/organizations", organizationsfeature.Routes(orgHandler))
	r.Get("/api/categories", orgHandler.ServeCategories)

	reviewsHandler := reviewsfeature.NewHandler(s.Catalog, s.Reviews, s.Stats, s.Audit, errLog, logger)
	r.Mount("/api/reviews", reviewsfeature.Routes(reviewsHandler, write))

	rpcHandler := rpcfeature.NewHandler(s.Hasher, s.Submissions, s.Reviews, s.Stats, s.Audit, errLog, logger)
	r.Mount("/rpc", rpcfeature.Routes(rpcHandler, write))

	return r
}
