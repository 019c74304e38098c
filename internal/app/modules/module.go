// Package modules groups the composition root into domain-oriented
// dependency units. Each module builds its services from the shared
// Infrastructure and contributes them to the HTTP server deps.
package modules

import (
	"context"

	"geoevents.io/geoevents/internal/api/handlers"
)

// Module represents a domain-specific dependency unit in the composition root.
type Module interface {
	// Name returns a stable module identifier for logging.
	Name() string

	// ContributeServerDeps injects module-owned dependencies into the HTTP server deps.
	ContributeServerDeps(*handlers.ServerDeps)

	// Shutdown performs module-local graceful cleanup.
	Shutdown(context.Context) error
}
