package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/governance/audit"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
)

// ListEvents handles GET /events.
//
// List parameters may repeat or carry comma-separated values:
// ?categories=crime,fire&boroughs=Camden&timePeriod=year.
func (s *Server) ListEvents(c *gin.Context) {
	filter, err := parseEventFilter(c)
	if err != nil {
		fail(c, err)
		return
	}

	events, err := s.events.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilEvents(events))
}

// ListEventsByCategory handles GET /categories/:category/events.
func (s *Server) ListEventsByCategory(c *gin.Context) {
	events, err := s.events.ByCategory(c.Request.Context(), strings.TrimSpace(c.Param("category")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNilEvents(events))
}

// GetEvent handles GET /events/:id.
func (s *Server) GetEvent(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	event, err := s.events.ByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListCategories handles GET /categories: the distinct categories in use.
func (s *Server) ListCategories(c *gin.Context) {
	categories, err := s.events.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categories)
}

// GetCatalog handles GET /catalog: the category and borough catalogues.
func (s *Server) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"categories":  domain.Categories,
		"boroughs":    domain.Boroughs,
		"timePeriods": timePeriods,
	})
}

var timePeriods = []domain.TimePeriod{
	domain.TimePeriodMonth, domain.TimePeriodSixMonths, domain.TimePeriodYear,
	domain.TimePeriodFiveYears, domain.TimePeriodTenYears, domain.TimePeriodAll,
}

// CreateEvent handles POST /events.
func (s *Server) CreateEvent(c *gin.Context) {
	var in domain.EventInput
	if !s.bindJSON(c, &in) {
		return
	}
	actor := middleware.GetUserID(c.Request.Context())
	event, err := s.events.Create(c.Request.Context(), actor, in)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionEventCreate, audit.ResourceTypeEvent, strconv.FormatInt(event.ID, 10), actor, nil)
	c.JSON(http.StatusCreated, event)
}

// UpdateEvent handles PATCH /events/:id.
func (s *Server) UpdateEvent(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	var patch domain.EventPatch
	if !s.bindJSON(c, &patch) {
		return
	}
	event, err := s.events.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionEventUpdate, audit.ResourceTypeEvent, c.Param("id"),
		middleware.GetUserID(c.Request.Context()), nil)
	c.JSON(http.StatusOK, event)
}

// DeleteEvent handles DELETE /events/:id.
func (s *Server) DeleteEvent(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	if err := s.events.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	s.recordAudit(c, audit.ActionEventDelete, audit.ResourceTypeEvent, c.Param("id"),
		middleware.GetUserID(c.Request.Context()), nil)
	c.JSON(http.StatusOK, successResponse{Success: true})
}

type bulkCreateRequest struct {
	Events []map[string]any `json:"events" binding:"required"`
}

// BulkCreateEvents handles POST /events/bulk.
func (s *Server) BulkCreateEvents(c *gin.Context) {
	var req bulkCreateRequest
	if !s.bindJSON(c, &req) {
		return
	}
	actor := middleware.GetUserID(c.Request.Context())
	result, err := s.bulk.Import(c.Request.Context(), actor, req.Events)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordBulkAudit(c, actor, result)
	c.JSON(http.StatusOK, result)
}

type importCSVRequest struct {
	CSV string `json:"csv" binding:"required"`
}

// ImportEventsCSV handles POST /events/import with raw CSV text.
func (s *Server) ImportEventsCSV(c *gin.Context) {
	var req importCSVRequest
	if !s.bindJSON(c, &req) {
		return
	}
	actor := middleware.GetUserID(c.Request.Context())
	result, err := s.bulk.ImportCSV(c.Request.Context(), actor, req.CSV)
	if err != nil {
		fail(c, err)
		return
	}
	s.recordBulkAudit(c, actor, result)
	c.JSON(http.StatusOK, result)
}

func (s *Server) recordBulkAudit(c *gin.Context, actor int64, result *domain.BulkResult) {
	s.recordAudit(c, audit.ActionEventBulk, audit.ResourceTypeEvent, "bulk", actor, map[string]interface{}{
		"total":   result.Total,
		"success": result.Success,
		"errors":  result.Errors,
	})
}

func parseEventFilter(c *gin.Context) (domain.EventFilter, error) {
	period, err := domain.ParseTimePeriod(c.Query("timePeriod"))
	if err != nil {
		return domain.EventFilter{}, apperrors.BadRequest(apperrors.CodeInvalidTimePeriod, err.Error())
	}

	f := domain.EventFilter{
		Categories:    queryList(c, "categories"),
		Subcategories: queryList(c, "subcategories"),
		Boroughs:      queryList(c, "boroughs"),
		TimePeriod:    period,
	}
	if f.StartDate, err = queryDate(c, "startDate"); err != nil {
		return domain.EventFilter{}, err
	}
	if f.EndDate, err = queryDate(c, "endDate"); err != nil {
		return domain.EventFilter{}, err
	}
	return f, nil
}

// queryList collects key from repeated and comma-separated query values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest, key+" must be an RFC3339 timestamp or YYYY-MM-DD date").
		WithParams(map[string]interface{}{"field": key})
}

func nonNilEvents(events []*domain.Event) []*domain.Event {
	if events == nil {
		return []*domain.Event{}
	}
	return events
}
