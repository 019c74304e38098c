package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

// ListBoroughs handles GET /boroughs.
func (s *Server) ListBoroughs(c *gin.Context) {
	c.JSON(http.StatusOK, domain.Boroughs)
}

// DetectBorough handles GET /boroughs/detect?lat=..&lon=..
func (s *Server) DetectBorough(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		fail(c, apperrors.BadRequest(apperrors.CodeInvalidRequest, "lat and lon must be valid coordinates"))
		return
	}
	c.JSON(http.StatusOK, s.boroughs.Detect(c.Request.Context(), lat, lon))
}
