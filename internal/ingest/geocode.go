package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// LondonCentre is returned whenever a place cannot be resolved.
var LondonCentre = domain.Coordinates{Latitude: "51.5074", Longitude: "-0.1278"}

// Geocoder resolves a free-text place to coordinates. Implementations never
// fail; unresolvable places map to LondonCentre.
type Geocoder interface {
	Geocode(ctx context.Context, location string) domain.Coordinates
}

// NewGeocoder returns the provider named in cfg.
func NewGeocoder(cfg config.GeocodingConfig) Geocoder {
	if cfg.Provider == "nominatim" {
		return &NominatimGeocoder{client: newNominatimClient(cfg)}
	}
	return StaticGeocoder{}
}

// StaticGeocoder places everything at LondonCentre.
type StaticGeocoder struct{}

// Geocode returns LondonCentre.
func (StaticGeocoder) Geocode(context.Context, string) domain.Coordinates {
	return LondonCentre
}

// NominatimGeocoder searches OpenStreetMap Nominatim within London.
type NominatimGeocoder struct {
	client *nominatimClient
}

// Geocode returns the first search hit for location, or LondonCentre.
func (g *NominatimGeocoder) Geocode(ctx context.Context, location string) domain.Coordinates {
	location = strings.TrimSpace(location)
	if location == "" {
		return LondonCentre
	}
	c, err := g.client.search(ctx, location+", London, UK")
	if err != nil {
		logger.Ctx(ctx).Warn("Geocoding failed, using London centre",
			zap.String("location", location),
			zap.Error(err),
		)
		return LondonCentre
	}
	return c
}

// nominatimClient is shared by geocoding and borough detection. Nominatim's
// usage policy requires an identifying User-Agent.
type nominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func newNominatimClient(cfg config.GeocodingConfig) *nominatimClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	return &nominatimClient{
		baseURL:   strings.TrimSuffix(base, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type nominatimPlace struct {
	Lat     string            `json:"lat"`
	Lon     string            `json:"lon"`
	Address map[string]string `json:"address"`
}

func (c *nominatimClient) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("format", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	body, err := doJSON(c.http, req)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *nominatimClient) search(ctx context.Context, query string) (domain.Coordinates, error) {
	var places []nominatimPlace
	if err := c.get(ctx, "/search", url.Values{"q": {query}, "limit": {"1"}}, &places); err != nil {
		return domain.Coordinates{}, fmt.Errorf("nominatim search: %w", err)
	}
	if len(places) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no results for %q", query)
	}
	lat, errLat := strconv.ParseFloat(places[0].Lat, 64)
	lon, errLon := strconv.ParseFloat(places[0].Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.Coordinates{}, fmt.Errorf("malformed coordinates %q,%q", places[0].Lat, places[0].Lon)
	}
	return domain.Coordinates{
		Latitude:  strconv.FormatFloat(lat, 'f', -1, 64),
		Longitude: strconv.FormatFloat(lon, 'f', -1, 64),
	}, nil
}

func (c *nominatimClient) reverse(ctx context.Context, lat, lon float64) (map[string]string, error) {
	var place nominatimPlace
	q := url.Values{
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {"10"},
		"addressdetails": {"1"},
	}
	if err := c.get(ctx, "/reverse", q, &place); err != nil {
		return nil, fmt.Errorf("nominatim reverse: %w", err)
	}
	return place.Address, nil
}
