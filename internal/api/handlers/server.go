// Package handlers implements the geo-events HTTP API on gin.
//
// Handlers translate requests into service calls and record failures with
// c.Error; middleware.ErrorHandler renders them. Route registration lives in
// internal/app.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/ingest"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/service"
)

// EventService is the event use-case surface.
type EventService interface {
	List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error)
	ByCategory(ctx context.Context, category string) ([]*domain.Event, error)
	ByID(ctx context.Context, id int64) (*domain.Event, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error)
	Update(ctx context.Context, id int64, p domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id int64) error
}

// StatisticsService computes dashboard aggregates.
type StatisticsService interface {
	GetStats(ctx context.Context) (*domain.Statistics, error)
}

// BulkImporter creates events from loosely typed JSON rows or CSV text.
type BulkImporter interface {
	Import(ctx context.Context, createdBy int64, rows []map[string]any) (*domain.BulkResult, error)
	ImportCSV(ctx context.Context, createdBy int64, text string) (*domain.BulkResult, error)
}

// Uploader stores uploaded videos.
type Uploader interface {
	UploadVideo(ctx context.Context, req service.VideoUpload) (*domain.UploadResult, error)
}

// AuthService manages accounts.
type AuthService interface {
	Signup(ctx context.Context, req service.SignupRequest) (*domain.User, error)
	Login(ctx context.Context, req service.LoginRequest) (*domain.User, error)
	Me(ctx context.Context, id int64) (*domain.User, error)
}

// VideoSubmitter runs the video ingestion pipeline.
type VideoSubmitter interface {
	Submit(ctx context.Context, userID int64, sub domain.VideoSubmission) (*domain.IngestResult, error)
}

// AuditLogger records mutations for later review.
type AuditLogger interface {
	LogAction(ctx context.Context, action, resourceType, resourceID string, actor int64, details map[string]interface{}) error
}

// Pinger is a readiness dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies of every handler.
type Server struct {
	events       EventService
	stats        StatisticsService
	bulk         BulkImporter
	uploads      Uploader
	auth         AuthService
	videos       VideoSubmitter
	boroughs     ingest.BoroughDetector
	audit        AuditLogger
	readiness    map[string]Pinger
	jwtCfg       middleware.JWTConfig
	cookieSecure bool
	maxBodyBytes int64
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Events     EventService
	Statistics StatisticsService
	Bulk       BulkImporter
	Uploads    Uploader
	Auth       AuthService
	Videos     VideoSubmitter
	Boroughs   ingest.BoroughDetector
	// Audit is optional; a nil logger disables the audit trail.
	Audit AuditLogger
	// Readiness maps a check name (e.g. "database") to its probe.
	Readiness    map[string]Pinger
	JWTCfg       middleware.JWTConfig
	CookieSecure bool
	MaxBodyBytes int64
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{
		events:       deps.Events,
		stats:        deps.Statistics,
		bulk:         deps.Bulk,
		uploads:      deps.Uploads,
		auth:         deps.Auth,
		videos:       deps.Videos,
		boroughs:     deps.Boroughs,
		audit:        deps.Audit,
		readiness:    deps.Readiness,
		jwtCfg:       deps.JWTCfg,
		cookieSecure: deps.CookieSecure,
		maxBodyBytes: deps.MaxBodyBytes,
	}
}

// successResponse is the body of mutations that return no record.
type successResponse struct {
	Success bool `json:"success"`
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// bindJSON decodes the request body into dst, enforcing the body size cap.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if s.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, apperrors.Wrap(err, apperrors.CodePayloadTooLarge,
				"request body too large", http.StatusRequestEntityTooLarge))
			return false
		}
		fail(c, apperrors.Wrap(err, apperrors.CodeInvalidRequest, "invalid request body", http.StatusBadRequest))
		return false
	}
	return true
}

// recordAudit writes an audit entry. Failures are logged by the audit
// logger and never fail the request.
func (s *Server) recordAudit(c *gin.Context, action, resourceType, resourceID string, actor int64, details map[string]interface{}) {
	if s.audit == nil {
		return
	}
	_ = s.audit.LogAction(c.Request.Context(), action, resourceType, resourceID, actor, details)
}

func eventIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperrors.BadRequest(apperrors.CodeInvalidEventID, "event id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.jwtCfg.CookieName, token, int(s.jwtCfg.ExpiresIn/time.Second), "/", "", s.cookieSecure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.jwtCfg.CookieName, "", -1, "/", "", s.cookieSecure, true)
}
