package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// defaultAllowedOrigins applies when no origins are configured.
var defaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

type routerDeps struct {
	jwtCfg       middleware.JWTConfig
	videoLimiter *middleware.RateLimiter
}

func newRouter(cfg *config.Config, s *handlers.Server, deps routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Metrics(),
		middleware.AccessLog(),
		cors.New(buildCORSConfig(cfg)),
		middleware.ErrorHandler(),
		middleware.Authenticate(deps.jwtCfg),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Any("/admin/log/level", middleware.RequireAdmin(), gin.WrapH(logger.AtomicLevel()))

	api := router.Group("/api/v1")
	api.GET("/health/live", s.GetLiveness)
	api.GET("/health/ready", s.GetReadiness)

	api.GET("/events", s.ListEvents)
	api.GET("/events/:id", s.GetEvent)
	api.GET("/categories", s.ListCategories)
	api.GET("/categories/:category/events", s.ListEventsByCategory)
	api.GET("/catalog", s.GetCatalog)
	api.GET("/statistics", s.GetStatistics)
	api.GET("/boroughs", s.ListBoroughs)
	api.GET("/boroughs/detect", s.DetectBorough)

	api.GET("/auth/me", s.GetCurrentUser)
	api.POST("/auth/logout", s.Logout)
	api.POST("/auth/signup", s.Signup)
	api.POST("/auth/login", s.Login)

	authed := api.Group("", middleware.RequireAuth())
	authed.POST("/events", s.CreateEvent)
	authed.PATCH("/events/:id", s.UpdateEvent)
	authed.DELETE("/events/:id", s.DeleteEvent)
	authed.POST("/videos/submit", middleware.RateLimit(deps.videoLimiter), s.SubmitVideo)

	admin := api.Group("", middleware.RequireAdmin())
	admin.POST("/events/bulk", s.BulkCreateEvents)
	admin.POST("/events/import", s.ImportEventsCSV)
	admin.POST("/uploads/videos", s.UploadVideo)

	return router
}

// buildCORSConfig derives the CORS policy. A wildcard origin is honoured only
// with server.unsafe_allow_all_origins, and then credentials are disabled.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultAllowedOrigins...)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}
