package modules

import (
	"context"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/repository"
	"geoevents.io/geoevents/internal/service"
)

// EventsModule owns event listing, mutation, statistics, bulk import and
// video uploads.
type EventsModule struct {
	Events     *service.EventService
	statistics *service.StatisticsService
	bulk       *service.BulkImporter
	uploads    *service.UploadService
	storage    handlers.Pinger
}

// NewEventsModule builds the event services on the shared pool.
func NewEventsModule(infra *Infrastructure) *EventsModule {
	repo := repository.NewEventRepository(infra.DB.Pool)
	events := service.NewEventService(repo)

	m := &EventsModule{
		Events:     events,
		statistics: service.NewStatisticsService(repo),
		bulk:       service.NewBulkImporter(events, infra.Pools.Import),
	}

	cfg := infra.Config.Storage
	if infra.Storage != nil {
		m.uploads = service.NewUploadService(infra.Storage, cfg.KeyPrefix, cfg.MaxUploadBytes)
		m.storage = infra.Storage
	} else {
		m.uploads = service.NewUploadService(nil, cfg.KeyPrefix, cfg.MaxUploadBytes)
	}
	return m
}

// Name implements Module.
func (m *EventsModule) Name() string { return "events" }

// ContributeServerDeps implements Module.
func (m *EventsModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Events = m.Events
	deps.Statistics = m.statistics
	deps.Bulk = m.bulk
	deps.Uploads = m.uploads
	if m.storage != nil {
		deps.Readiness["storage"] = m.storage
	}
}

// Shutdown implements Module.
func (m *EventsModule) Shutdown(context.Context) error { return nil }
