// Package ingest turns a social-media post URL into a pending event:
// platform metadata lookup, structured extraction by an LLM, geocoding of
// the extracted place and persistence through the event service.
package ingest

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/metrics"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// ErrCircuitOpen is returned when an upstream is being skipped after
// repeated failures.
var ErrCircuitOpen = errors.New("upstream circuit open")

// newBreaker opens after 5 consecutive failures, or a failure ratio of 60%
// over at least 10 requests, and probes again after timeout.
func newBreaker(name string, timeout time.Duration) *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.ConsecutiveFailures >= 5 {
				return true
			}
			return c.Requests >= 10 && float64(c.TotalFailures)/float64(c.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})
}

// execute runs fn through cb and maps rejection errors onto ErrCircuitOpen.
func execute(cb *gobreaker.CircuitBreaker[[]byte], fn func() ([]byte, error)) ([]byte, error) {
	body, err := cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, ErrCircuitOpen
	}
	return body, err
}
