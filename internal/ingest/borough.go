package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// BoroughDetector reverse-geocodes a point to a London borough.
type BoroughDetector interface {
	Detect(ctx context.Context, lat, lon float64) domain.BoroughMatch
}

// NominatimBoroughDetector uses Nominatim reverse lookups.
type NominatimBoroughDetector struct {
	client *nominatimClient
}

// NewBoroughDetector creates a detector against the configured Nominatim
// instance, whatever the geocoding provider.
func NewBoroughDetector(cfg config.GeocodingConfig) *NominatimBoroughDetector {
	return &NominatimBoroughDetector{client: newNominatimClient(cfg)}
}

// Detect never fails; lookup errors are a low-confidence null match.
func (d *NominatimBoroughDetector) Detect(ctx context.Context, lat, lon float64) domain.BoroughMatch {
	addr, err := d.client.reverse(ctx, lat, lon)
	if err != nil {
		logger.Ctx(ctx).Warn("Borough detection failed", zap.Error(err))
		return domain.BoroughMatch{Confidence: domain.ConfidenceLow}
	}
	return MatchBorough(addr)
}

// boroughAddressFields are checked in order of specificity.
var boroughAddressFields = []string{"city_district", "suburb", "neighbourhood", "municipality", "county"}

// MatchBorough grades a reverse-geocoded address:
//
//	field equals a borough (case-insensitive)       high
//	field contains a borough name                   medium
//	county or state mentions London, no borough     null, medium
//	otherwise                                       null, low
func MatchBorough(addr map[string]string) domain.BoroughMatch {
	for _, f := range boroughAddressFields {
		if b, ok := domain.CanonicalBorough(addr[f]); ok {
			return domain.BoroughMatch{Borough: &b, Confidence: domain.ConfidenceHigh}
		}
	}
	for _, f := range boroughAddressFields {
		v := strings.ToLower(addr[f])
		if v == "" {
			continue
		}
		for _, b := range domain.Boroughs {
			if strings.Contains(v, strings.ToLower(b)) {
				name := b
				return domain.BoroughMatch{Borough: &name, Confidence: domain.ConfidenceMedium}
			}
		}
	}
	if strings.Contains(strings.ToLower(addr["county"]), "london") ||
		strings.Contains(strings.ToLower(addr["state"]), "london") {
		return domain.BoroughMatch{Confidence: domain.ConfidenceMedium}
	}
	return domain.BoroughMatch{Confidence: domain.ConfidenceLow}
}
