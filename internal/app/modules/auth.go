package modules

import (
	"context"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/repository"
	"geoevents.io/geoevents/internal/service"
)

// AuthModule owns account management.
type AuthModule struct {
	auth *service.AuthService
}

// NewAuthModule builds the auth service.
func NewAuthModule(infra *Infrastructure) *AuthModule {
	users := repository.NewUserRepository(infra.DB.Pool)
	return &AuthModule{
		auth: service.NewAuthService(users, infra.Pools, infra.Config.Auth.OwnerEmail),
	}
}

// Name implements Module.
func (m *AuthModule) Name() string { return "auth" }

// ContributeServerDeps implements Module.
func (m *AuthModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Auth = m.auth
}

// Shutdown implements Module.
func (m *AuthModule) Shutdown(context.Context) error { return nil }
