package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/pkg/logger"
)

const moduleShutdownTimeout = 10 * time.Second

// Shutdown gracefully shuts down all application components. Call it after
// the HTTP server has stopped accepting requests.
func (a *Application) Shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), moduleShutdownTimeout)
	defer cancel()

	for _, mod := range a.Modules {
		if mod == nil {
			continue
		}
		if err := mod.Shutdown(shutdownCtx); err != nil {
			logger.Warn("module shutdown returned error",
				zap.String("module", mod.Name()),
				zap.Error(err),
			)
		}
	}

	if a.Pools != nil {
		a.Pools.Shutdown()
	}
	if a.DB != nil {
		a.DB.Close()
	}
	logger.Info("Application resources released")
}
