package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/domain"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

var testJWT = middleware.JWTConfig{
	SigningKey: []byte("handlers-test-signing-key-0123456789"),
	Issuer:     "geoevents",
	ExpiresIn:  time.Hour,
	CookieName: "app_session_id",
}

var (
	adminUser  = &domain.User{ID: 1, Email: "owner@example.com", Name: "Owner", Role: domain.RoleAdmin}
	memberUser = &domain.User{ID: 2, Email: "member@example.com", Name: "Member", Role: domain.RoleUser}
)

func tokenFor(u *domain.User) string {
	tok, _, err := middleware.GenerateToken(testJWT, u)
	if err != nil {
		panic(err)
	}
	return tok
}

// newTestRouter mounts the handlers the same way the application router does.
func newTestRouter(s *Server) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler(), middleware.Authenticate(testJWT))

	api := r.Group("/api/v1")
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
	api.GET("/health/live", s.GetLiveness)
	api.GET("/health/ready", s.GetReadiness)

	authed := api.Group("", middleware.RequireAuth())
	authed.POST("/events", s.CreateEvent)
	authed.PATCH("/events/:id", s.UpdateEvent)
	authed.DELETE("/events/:id", s.DeleteEvent)
	authed.POST("/videos/submit", s.SubmitVideo)

	admin := api.Group("", middleware.RequireAdmin())
	admin.POST("/events/bulk", s.BulkCreateEvents)
	admin.POST("/events/import", s.ImportEventsCSV)
	admin.POST("/uploads/videos", s.UploadVideo)
	return r
}

type fakeEvents struct {
	mu        sync.Mutex
	events    map[int64]*domain.Event
	lastF     domain.EventFilter
	createdBy int64
}

func newFakeEvents(events ...*domain.Event) *fakeEvents {
	f := &fakeEvents{events: make(map[int64]*domain.Event)}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) List(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastF = filter
	out := make([]*domain.Event, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEvents) ByCategory(_ context.Context, category string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.events {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) ByID(_ context.Context, id int64) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	return e, nil
}

func (f *fakeEvents) Categories(context.Context) ([]string, error) { return nil, nil }

func (f *fakeEvents) Create(_ context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Title == "" {
		return nil, apperrors.ErrValidationf([]apperrors.FieldError{{Field: "title", Code: "required"}})
	}
	f.createdBy = createdBy
	e := &domain.Event{ID: int64(len(f.events) + 100), Title: in.Title, Category: in.Category, CreatedBy: createdBy}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEvents) Update(_ context.Context, id int64, p domain.EventPatch) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFoundf(id)
	}
	if p.Title != nil {
		e.Title = *p.Title
	}
	return e, nil
}

func (f *fakeEvents) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[id]; !ok {
		return apperrors.ErrEventNotFoundf(id)
	}
	delete(f.events, id)
	return nil
}

type fakeStats struct{ stats *domain.Statistics }

func (f fakeStats) GetStats(context.Context) (*domain.Statistics, error) { return f.stats, nil }

type fakeBulk struct {
	rows []map[string]any
	csv  string
	by   int64
}

func (f *fakeBulk) Import(_ context.Context, createdBy int64, rows []map[string]any) (*domain.BulkResult, error) {
	f.rows, f.by = rows, createdBy
	return &domain.BulkResult{Success: len(rows), Total: len(rows), ErrorDetails: []domain.BulkRowError{}}, nil
}

func (f *fakeBulk) ImportCSV(_ context.Context, createdBy int64, text string) (*domain.BulkResult, error) {
	f.csv, f.by = text, createdBy
	return &domain.BulkResult{Success: 1, Total: 1, ErrorDetails: []domain.BulkRowError{}}, nil
}

type fakeUploads struct{ got service.VideoUpload }

func (f *fakeUploads) UploadVideo(_ context.Context, req service.VideoUpload) (*domain.UploadResult, error) {
	f.got = req
	return &domain.UploadResult{URL: "https://cdn.example.com/videos/abc.mp4", Key: "videos/abc.mp4"}, nil
}

type fakeAuth struct {
	users map[int64]*domain.User
}

func (f *fakeAuth) Signup(_ context.Context, req service.SignupRequest) (*domain.User, error) {
	if req.Email == adminUser.Email {
		return nil, apperrors.Conflict(apperrors.CodeUserExists, "email already registered")
	}
	u := &domain.User{ID: 3, Email: req.Email, Name: req.Name, Role: domain.RoleUser}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeAuth) Login(_ context.Context, req service.LoginRequest) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == req.Email && req.Password == "correct-horse" {
			return u, nil
		}
	}
	return nil, apperrors.Unauthorized(apperrors.CodeInvalidCredentials, "invalid email or password")
}

func (f *fakeAuth) Me(_ context.Context, id int64) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
}

type fakeVideos struct {
	userID int64
	sub    domain.VideoSubmission
}

func (f *fakeVideos) Submit(_ context.Context, userID int64, sub domain.VideoSubmission) (*domain.IngestResult, error) {
	f.userID, f.sub = userID, sub
	return &domain.IngestResult{Success: true, EventID: 9, Title: "Ingested", Status: domain.IngestStatusPending}, nil
}

type fakeBoroughs struct{}

func (fakeBoroughs) Detect(context.Context, float64, float64) domain.BoroughMatch {
	b := "Camden"
	return domain.BoroughMatch{Borough: &b, Confidence: domain.ConfidenceHigh}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

var errDown = errors.New("connection refused")

type auditEntry struct {
	action, resourceType, resourceID string
	actor                            int64
	details                          map[string]interface{}
}

type fakeAudit struct {
	mu      sync.Mutex
	entries []auditEntry
	err     error
}

func (f *fakeAudit) LogAction(_ context.Context, action, resourceType, resourceID string, actor int64, details map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, auditEntry{action, resourceType, resourceID, actor, details})
	return f.err
}

func (f *fakeAudit) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.action)
	}
	return out
}
