package modules

import (
	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/governance/audit"
)

// JWTConfig derives the session token settings from cfg.
func JWTConfig(cfg *config.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey: []byte(cfg.Auth.JWTSecret),
		Issuer:     cfg.Auth.Issuer,
		ExpiresIn:  cfg.Auth.TokenTTL,
		CookieName: cfg.Auth.CookieName,
	}
}

// NewServerDeps builds base server deps then lets each module contribute explicit wiring.
func NewServerDeps(cfg *config.Config, infra *Infrastructure, mods []Module) handlers.ServerDeps {
	deps := handlers.ServerDeps{
		Audit:        audit.NewLogger(infra.DB.Pool),
		Readiness:    map[string]handlers.Pinger{"database": infra.DB},
		JWTCfg:       JWTConfig(cfg),
		CookieSecure: cfg.Auth.CookieSecure,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	for _, mod := range mods {
		if mod == nil {
			continue
		}
		mod.ContributeServerDeps(&deps)
	}
	return deps
}
