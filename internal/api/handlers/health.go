package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/pkg/logger"
)

// Health status values.
const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// GetLiveness handles GET /health/live.
func (s *Server) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: healthStatusOK})
}

// GetReadiness handles GET /health/ready.
func (s *Server) GetReadiness(c *gin.Context) {
	names := make([]string, 0, len(s.readiness))
	for name := range s.readiness {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	allHealthy := true
	for _, name := range names {
		if err := s.readiness[name].Ping(c.Request.Context()); err != nil {
			logger.Ctx(c.Request.Context()).Warn("readiness check failed",
				zap.String("check", name), zap.Error(err))
			checks[name] = "error"
			allHealthy = false
			continue
		}
		checks[name] = healthStatusOK
	}

	if !allHealthy {
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: healthStatusDegraded, Checks: checks})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: healthStatusOK, Checks: checks})
}
