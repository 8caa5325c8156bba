// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (CLUBREVIEWS_*), config
// files, or command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig
// covers ports, TLS, log level and the like; everything specific to the
// review directory lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Organization dataset; empty means the bundled one.
	CatalogPath string

	// Optional Redis stats cache. Empty RedisURL disables it.
	RedisURL             string        // e.g., redis://localhost:6379/0
	StatsCacheTTL        time.Duration // lifetime of a cached stats map
	StatsRefreshInterval time.Duration // background recompute; 0 disables the worker

	// Secret mixed into device id hashes before they reach the ledger.
	DeviceHashKey string

	// Per-IP throttle on mutating endpoints.
	WriteRateLimit  int
	WriteRateWindow time.Duration

	// Take the client IP from X-Forwarded-For / X-Real-IP. Only enable
	// behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// Audit destinations: all, db, log, off.
	AuditLogSubmission string
	AuditLogModeration string
}
