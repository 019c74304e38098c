package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/metrics"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/pkg/validation"
)

// EventCreator persists an ingested event as unverified.
type EventCreator interface {
	CreateIngested(ctx context.Context, createdBy int64, in domain.EventInput) (*domain.Event, error)
}

// Pipeline runs metadata lookup, extraction, geocoding and persistence in
// sequence for one submitted URL.
type Pipeline struct {
	metadata  *MetadataSource
	extractor Extractor
	geocoder  Geocoder
	events    EventCreator
}

// NewPipeline creates a new Pipeline.
func NewPipeline(metadata *MetadataSource, extractor Extractor, geocoder Geocoder, events EventCreator) *Pipeline {
	return &Pipeline{
		metadata:  metadata,
		extractor: extractor,
		geocoder:  geocoder,
		events:    events,
	}
}

// Submit ingests sub on behalf of userID. Input problems are BAD_REQUEST;
// any failure after the metadata step is VIDEO_PROCESSING_FAILED.
func (p *Pipeline) Submit(ctx context.Context, userID int64, sub domain.VideoSubmission) (*domain.IngestResult, error) {
	sub.URL = strings.TrimSpace(sub.URL)
	if err := validation.Struct(&sub); err != nil {
		return nil, err
	}
	platform, err := resolvePlatform(sub)
	if err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx).With(zap.String("platform", string(platform)), zap.String("url", sub.URL))
	ctx = logger.WithContext(ctx, zap.String("platform", string(platform)))

	result, err := p.process(ctx, userID, platform, sub.URL)
	metrics.RecordVideoIngestion(string(platform), err)
	if err != nil {
		log.Error("Video ingestion failed", zap.Error(err))
		return nil, apperrors.ErrVideoProcessingf(err)
	}
	log.Info("Video ingested", zap.Int64("event_id", result.EventID))
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, userID int64, platform domain.Platform, url string) (*domain.IngestResult, error) {
	meta := p.metadata.Fetch(ctx, platform, url)

	extracted, err := p.extractor.Extract(ctx, meta)
	if err != nil {
		return nil, err
	}
	coords := p.geocoder.Geocode(ctx, extracted.Location)

	created, err := p.events.CreateIngested(ctx, userID, BuildEventInput(url, meta, extracted, coords))
	if err != nil {
		return nil, err
	}
	return &domain.IngestResult{
		Success: true,
		EventID: created.ID,
		Title:   created.Title,
		Status:  domain.IngestStatusPending,
	}, nil
}

// BuildEventInput combines the pipeline outputs into an unverified event.
func BuildEventInput(url string, meta *domain.VideoMetadata, ev *domain.ExtractedEvent, at domain.Coordinates) domain.EventInput {
	in := domain.EventInput{
		Title:          ev.Title,
		Description:    ev.Description,
		Category:       ev.Category,
		Subcategories:  ev.Subcategories,
		Tags:           mergeTags(ev.Tags, meta.Hashtags),
		Latitude:       at.Latitude,
		Longitude:      at.Longitude,
		LocationName:   ev.LocationName,
		Borough:        optional(ev.Borough),
		VideoURL:       optional(meta.VideoURL),
		ThumbnailURL:   optional(meta.ThumbnailURL),
		SourceURL:      optional(url),
		PeopleInvolved: optional(ev.PeopleInvolved),
		BackgroundInfo: optional(ev.BackgroundInfo),
		Details:        optional(ev.Details),
		IsCrime:        ev.IsCrime,
	}
	if t, err := parseLooseDate(ev.EventDate); err == nil {
		in.EventDate = t
	}
	return in
}

func resolvePlatform(sub domain.VideoSubmission) (domain.Platform, error) {
	if sub.Platform != "" {
		if p, ok := domain.ParsePlatform(string(sub.Platform)); ok {
			return p, nil
		}
		return "", apperrors.BadRequest(apperrors.CodeUnsupportedPlatform, "unsupported platform "+string(sub.Platform))
	}
	if p, ok := domain.DetectPlatform(sub.URL); ok {
		return p, nil
	}
	return "", apperrors.BadRequest(apperrors.CodeUnsupportedPlatform, "could not detect platform from URL")
}

func mergeTags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.TrimPrefix(strings.TrimSpace(t), "#")
			key := strings.ToLower(t)
			if t == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
