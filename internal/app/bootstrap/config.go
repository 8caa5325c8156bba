// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/clubreviews/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// devDeviceHashKey is only acceptable outside prod.
const devDeviceHashKey = "dev-only-change-me-device-hash-key"

// appConfigKeys defines the configuration keys for clubreviews.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, redis_url, etc.
//   - Environment variables: CLUBREVIEWS_MONGO_URI, CLUBREVIEWS_REDIS_URL, etc.
//   - Command-line flags: --mongo_uri, --redis_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "clubreviews", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "catalog_path", Default: "", Desc: "Path to an organizations JSON file (blank uses the bundled dataset)"},

	// Stats cache
	{Name: "redis_url", Default: "", Desc: "Redis URL for the stats cache (blank disables caching)"},
	{Name: "stats_cache_ttl", Default: "10m", Desc: "How long a cached stats map is served (e.g., 10m, 1h)"},
	{Name: "stats_refresh_interval", Default: "5m", Desc: "Background stats recompute interval (0 disables)"},

	{Name: "device_hash_key", Default: devDeviceHashKey, Desc: "Secret key for hashing device ids (must be set in production)"},

	// Write throttle
	{Name: "write_rate_limit", Default: 30, Desc: "Mutating requests allowed per client IP per window"},
	{Name: "write_rate_window", Default: "1m", Desc: "Write throttle window (e.g., 1m)"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Use X-Forwarded-For/X-Real-IP as the client IP (enable only behind a trusted proxy)"},

	// Audit logging settings
	{Name: "audit_log_submission", Default: "all", Desc: "Submission event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_moderation", Default: "all", Desc: "Moderation event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// CLUBREVIEWS_* environment variables and flags with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CLUBREVIEWS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		CatalogPath: appValues.String("catalog_path"),

		RedisURL:             appValues.String("redis_url"),
		StatsCacheTTL:        appValues.Duration("stats_cache_ttl", 10*time.Minute),
		StatsRefreshInterval: appValues.Duration("stats_refresh_interval", 5*time.Minute),

		DeviceHashKey: appValues.String("device_hash_key"),

		WriteRateLimit:  appValues.Int("write_rate_limit"),
		WriteRateWindow: appValues.Duration("write_rate_window", time.Minute),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		AuditLogSubmission: appValues.String("audit_log_submission"),
		AuditLogModeration: appValues.String("audit_log_moderation"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects malformed Mongo and Redis URLs, the development device hash
// key in prod, non-positive throttle settings, and unknown audit settings.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}

	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
		if appCfg.StatsCacheTTL <= 0 {
			return fmt.Errorf("stats_cache_ttl must be positive when redis_url is set")
		}
	}

	if appCfg.DeviceHashKey == "" {
		return fmt.Errorf("device_hash_key is required")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.DeviceHashKey == devDeviceHashKey {
		return fmt.Errorf("device_hash_key must be changed from its default in prod")
	}

	if appCfg.WriteRateLimit <= 0 || appCfg.WriteRateWindow <= 0 {
		return fmt.Errorf("write_rate_limit and write_rate_window must be positive")
	}

	for name, v := range map[string]string{
		"audit_log_submission": appCfg.AuditLogSubmission,
		"audit_log_moderation": appCfg.AuditLogModeration,
	} {
		if v != "" && !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", name, v)
		}
	}

	return nil
}
