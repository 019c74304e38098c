// Package service implements the geo-events use cases on top of the
// repositories: listing and mutating events, statistics, bulk import,
// uploads and account management.
package service

import (
	"context"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/metrics"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/pkg/validation"
)

// EventStore is the persistence surface the event use cases need.
type EventStore interface {
	Create(ctx context.Context, e *domain.Event) (*domain.Event, error)
	Get(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id int64, p *domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id int64) error
}

// EventService implements event listing and mutation.
type EventService struct {
	store EventStore
}

// NewEventService creates a new EventService.
func NewEventService(store EventStore) *EventService {
	return &EventService{store: store}
}

// List returns events matching f, newest first.
// Subcategories are matched here rather than in SQL: an event passes when any
// of its subcategories is requested.
func (s *EventService) List(ctx context.Context, f domain.EventFilter) ([]*domain.Event, error) {
	events, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(f.Subcategories) == 0 {
		return events, nil
	}

	filtered := make([]*domain.Event, 0, len(events))
	for _, e := range events {
		if e.HasSubcategory(f.Subcategories) {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// ByCategory returns every event in category, newest first.
func (s *EventService) ByCategory(ctx context.Context, category string) ([]*domain.Event, error) {
	return s.store.List(ctx, domain.EventFilter{Categories: []string{category}})
}

// ByID returns one event or EVENT_NOT_FOUND.
func (s *EventService) ByID(ctx context.Context, id int64) (*domain.Event, error) {
	return s.store.Get(ctx, id)
}

// Categories returns the distinct categories in use.
func (s *EventService) Categories(ctx context.Context) ([]string, error) {
	return s.store.Categories(ctx)
}

// Create validates in and stores it on behalf of createdBy.
func (s *EventService) Create(ctx context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error) {
	return s.create(ctx, createdBy, in, metrics.SourceAPI)
}

// CreateIngested stores an event produced by video ingestion. Such events
// always start unverified.
func (s *EventService) CreateIngested(ctx context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error) {
	in.IsVerified = false
	return s.create(ctx, createdBy, in, metrics.SourceVideo)
}

func (s *EventService) create(ctx context.Context, createdBy int64, in domain.EventInput, source string) (*domain.Event, error) {
	in.Normalize()
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, eventFromInput(createdBy, &in))
	if err != nil {
		return nil, err
	}
	metrics.RecordEventCreated(source)
	logger.Ctx(ctx).Info("Event created",
		zap.Int64("event_id", created.ID),
		zap.String("category", created.Category),
		zap.String("source", source),
	)
	return created, nil
}

// Update applies the supplied fields of p to event id.
// An empty patch returns the current record unchanged.
func (s *EventService) Update(ctx context.Context, id int64, p domain.EventPatch) (*domain.Event, error) {
	if err := validation.Struct(&p); err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return s.store.Get(ctx, id)
	}
	updated, err := s.store.Update(ctx, id, &p)
	if err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("Event updated", zap.Int64("event_id", id))
	return updated, nil
}

// Delete removes event id. A missing id is EVENT_NOT_FOUND.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger.Ctx(ctx).Info("Event deleted", zap.Int64("event_id", id))
	return nil
}

func eventFromInput(createdBy int64, in *domain.EventInput) *domain.Event {
	return &domain.Event{
		Title:          in.Title,
		Description:    in.Description,
		Category:       in.Category,
		Subcategories:  in.Subcategories,
		Tags:           in.Tags,
		EventDate:      in.EventDate,
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		LocationName:   in.LocationName,
		Borough:        in.Borough,
		VideoURL:       in.VideoURL,
		ThumbnailURL:   in.ThumbnailURL,
		SourceURL:      in.SourceURL,
		PeopleInvolved: in.PeopleInvolved,
		BackgroundInfo: in.BackgroundInfo,
		Details:        in.Details,
		IsCrime:        in.IsCrime,
		IsVerified:     in.IsVerified,
		CreatedBy:      createdBy,
	}
}
