package nav

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Sentinel errors for upstream map services.
var (
	// ErrNoResults indicates the geocoder found nothing for the query.
	ErrNoResults = errors.New("no results")

	// ErrUpstream indicates a map service responded abnormally. Failures here
	// surface as user-visible messages, never as protocol errors.
	ErrUpstream = errors.New("map service error")
)

// DefaultNominatimURL is the public OSM Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// maxResponseSize bounds upstream response bodies (1MB is generous for either
// service's JSON).
const maxResponseSize = 1 << 20

// Geocoder resolves free-text place names to coordinates via Nominatim.
//
// Nominatim's usage policy caps anonymous clients at one request per second;
// the limiter enforces that regardless of caller behavior.
type Geocoder struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewGeocoder creates a Nominatim client. An empty baseURL uses the public
// endpoint. userAgent is required by the Nominatim usage policy.
func NewGeocoder(baseURL, userAgent string, logger *slog.Logger) (*Geocoder, error) {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		logger:    logger,
	}, nil
}

// nominatimResult is the subset of a Nominatim /search row we consume.
// Coordinates arrive as strings.
type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Geocode resolves query to the best-ranked place.
func (g *Geocoder) Geocode(ctx context.Context, query string) (Place, error) {
	if query == "" {
		return Place{}, fmt.Errorf("%w: empty query", ErrNoResults)
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return Place{}, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", g.baseURL, url.QueryEscape(query))
	body, err := g.get(ctx, u)
	if err != nil {
		return Place{}, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Place{}, fmt.Errorf("%w: decoding geocode response: %v", ErrUpstream, err)
	}
	if len(results) == 0 {
		return Place{}, fmt.Errorf("%w for %q", ErrNoResults, query)
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return Place{}, fmt.Errorf("%w: malformed coordinates for %q", ErrUpstream, query)
	}

	place := Place{Name: results[0].DisplayName, Lat: lat, Lon: lon}
	g.logger.Debug("geocoded", "query", query, "name", place.Name, "lat", lat, "lon", lon)
	return place, nil
}

// get fetches a URL with the policy-required User-Agent and bounded body.
func (g *Geocoder) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geocoder returned %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading geocode response: %v", ErrUpstream, err)
	}
	return body, nil
}
