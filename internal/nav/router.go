package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultOSRMURL is the public OSRM demo endpoint.
const DefaultOSRMURL = "https://router.project-osrm.org"

// Router computes driving routes between geocoded places via OSRM.
type Router struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewRouter creates an OSRM client. An empty baseURL uses the public demo
// endpoint.
func NewRouter(baseURL, userAgent string, logger *slog.Logger) (*Router, error) {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}, nil
}

// osrmResponse is the subset of an OSRM /route response we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route computes the best driving leg from origin to destination.
func (r *Router) Route(ctx context.Context, origin, destination Place) (Leg, error) {
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		r.baseURL, origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Leg{}, fmt.Errorf("building route request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return Leg{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Leg{}, fmt.Errorf("%w: router returned %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Leg{}, fmt.Errorf("%w: reading route response: %v", ErrUpstream, err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Leg{}, fmt.Errorf("%w: decoding route response: %v", ErrUpstream, err)
	}
	if parsed.Code != "Ok" || len(parsed.Routes) == 0 {
		return Leg{}, fmt.Errorf("%w between %q and %q", ErrNoResults, origin.Name, destination.Name)
	}

	leg := Leg{
		DistanceMeters: parsed.Routes[0].Distance,
		Duration:       time.Duration(parsed.Routes[0].Duration * float64(time.Second)),
	}
	r.logger.Debug("routed",
		"origin", origin.Name,
		"destination", destination.Name,
		"km", leg.DistanceMeters/1000,
		"duration", leg.Duration,
	)
	return leg, nil
}
