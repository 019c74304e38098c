package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/governance/audit"
	"geoevents.io/geoevents/internal/service"
)

// SubmitVideo handles POST /videos/submit.
func (s *Server) SubmitVideo(c *gin.Context) {
	var sub domain.VideoSubmission
	if !s.bindJSON(c, &sub) {
		return
	}
	ctx := c.Request.Context()
	actor := middleware.GetUserID(ctx)
	result, err := s.videos.Submit(ctx, actor, sub)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionVideoSubmit, audit.ResourceTypeEvent, strconv.FormatInt(result.EventID, 10), actor,
		map[string]interface{}{"url": sub.URL})
	c.JSON(http.StatusOK, result)
}

// UploadVideo handles POST /uploads/videos.
func (s *Server) UploadVideo(c *gin.Context) {
	var req service.VideoUpload
	if !s.bindJSON(c, &req) {
		return
	}
	result, err := s.uploads.UploadVideo(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionVideoUpload, audit.ResourceTypeObject, result.Key,
		middleware.GetUserID(c.Request.Context()), nil)
	c.JSON(http.StatusOK, result)
}
