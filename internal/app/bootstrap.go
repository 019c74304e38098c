// Package app is the composition root: it builds the infrastructure, the
// domain modules and the HTTP router. Bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/app/modules"
	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/infrastructure"
	"geoevents.io/geoevents/internal/pkg/worker"
)

// Application holds composed application dependencies.
type Application struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *infrastructure.DatabaseClients
	Pools   *worker.Pools
	Modules []modules.Module
}

// Bootstrap initializes all dependencies using module-oriented manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	infra, err := modules.NewInfrastructure(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	eventsModule := modules.NewEventsModule(infra)
	ingestModule := modules.NewIngestModule(infra, eventsModule.Events)
	allModules := []modules.Module{
		eventsModule,
		modules.NewAuthModule(infra),
		ingestModule,
	}

	serverDeps := modules.NewServerDeps(cfg, infra, allModules)
	server := handlers.NewServer(serverDeps)

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, routerDeps{jwtCfg: serverDeps.JWTCfg, videoLimiter: ingestModule.Limiter}),
		DB:      infra.DB,
		Pools:   infra.Pools,
		Modules: allModules,
	}, nil
}
