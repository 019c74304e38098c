// Package metrics holds the Prometheus collectors for the geo-events service.
//
// Collectors register on the default registry at init and are served by
// promhttp at GET /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event creation sources.
const (
	SourceAPI   = "api"
	SourceBulk  = "bulk"
	SourceVideo = "video"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_http_requests_total",
			Help: "Total HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoevents_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoevents_http_active_requests",
			Help: "HTTP requests currently in flight",
		},
	)

	// Events
	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_events_created_total",
			Help: "Events persisted, by source",
		},
		[]string{"source"}, // api, bulk, video
	)

	BulkImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_bulk_import_rows_total",
			Help: "Bulk import rows processed, by outcome",
		},
		[]string{"outcome"}, // success, error
	)

	// Video ingestion
	VideoIngestions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_video_ingestions_total",
			Help: "Video submissions processed, by platform and outcome",
		},
		[]string{"platform", "outcome"}, // outcome: success, error
	)

	VideoMetadataFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_video_metadata_fallbacks_total",
			Help: "Metadata lookups that fell back to stub data",
		},
		[]string{"platform"},
	)

	// Circuit breakers guarding upstream APIs
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geoevents_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoevents_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Uploads
	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geoevents_upload_bytes_total",
			Help: "Bytes written to object storage",
		},
	)
)

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordEventCreated counts a persisted event.
func RecordEventCreated(source string) {
	EventsCreated.WithLabelValues(source).Inc()
}

// RecordBulkImport counts the rows of one bulk import.
func RecordBulkImport(success, failed int) {
	BulkImportRows.WithLabelValues("success").Add(float64(success))
	BulkImportRows.WithLabelValues("error").Add(float64(failed))
}

// RecordVideoIngestion counts one submission outcome.
func RecordVideoIngestion(platform string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	VideoIngestions.WithLabelValues(platform, outcome).Inc()
}

// RecordMetadataFallback counts a stubbed metadata lookup.
func RecordMetadataFallback(platform string) {
	VideoMetadataFallbacks.WithLabelValues(platform).Inc()
}

// RecordCircuitBreakerTransition updates breaker gauges on a state change.
// States are the gobreaker state strings.
func RecordCircuitBreakerTransition(name, from, to string) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	var v float64
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	CircuitBreakerState.WithLabelValues(name).Set(v)
}
