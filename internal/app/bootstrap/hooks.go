// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks is the clubreviews server lifecycle. WAFFLE calls each step in
// order: config, database, schema, services, router, then shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "clubreviews",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,
	EnsureSchema:   EnsureSchema,
	Startup:        Startup,
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
