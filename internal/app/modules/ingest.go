package modules

import (
	"context"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/api/handlers"
	"geoevents.io/geoevents/internal/api/middleware"
	"geoevents.io/geoevents/internal/ingest"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// IngestModule owns video URL ingestion and borough detection.
type IngestModule struct {
	pipeline *ingest.Pipeline
	boroughs ingest.BoroughDetector
	// Limiter throttles video submissions per user.
	Limiter *middleware.RateLimiter
}

// NewIngestModule wires the metadata source, extractor and geocoder into a
// pipeline that persists through events.
func NewIngestModule(infra *Infrastructure, events ingest.EventCreator) *IngestModule {
	cfg := infra.Config

	var api ingest.DataAPI
	if client := ingest.NewDataAPIClient(cfg.DataAPI); client != nil {
		api = client
	} else {
		logger.Info("data API not configured, video metadata will be stubbed")
	}

	extractor := ingest.NewLLMExtractor(cfg.LLM)
	if cfg.LLM.Endpoint == "" {
		logger.Warn("llm endpoint not configured, video submissions will fail")
	}

	geocoder := ingest.NewGeocoder(cfg.Geocoding)
	logger.Info("video ingestion configured",
		zap.Bool("data_api", api != nil),
		zap.String("geocoder", cfg.Geocoding.Provider),
		zap.String("llm_model", cfg.LLM.Model),
	)

	return &IngestModule{
		pipeline: ingest.NewPipeline(ingest.NewMetadataSource(api), extractor, geocoder, events),
		boroughs: ingest.NewBoroughDetector(cfg.Geocoding),
		Limiter:  middleware.NewRateLimiter(cfg.Ingest.RatePerMinute, cfg.Ingest.Burst),
	}
}

// Name implements Module.
func (m *IngestModule) Name() string { return "ingest" }

// ContributeServerDeps implements Module.
func (m *IngestModule) ContributeServerDeps(deps *handlers.ServerDeps) {
	deps.Videos = m.pipeline
	deps.Boroughs = m.boroughs
}

// Shutdown implements Module.
func (m *IngestModule) Shutdown(context.Context) error {
	m.Limiter.Stop()
	return nil
}
