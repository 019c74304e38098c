package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatistics handles GET /statistics.
func (s *Server) GetStatistics(c *gin.Context) {
	stats, err := s.stats.GetStats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
