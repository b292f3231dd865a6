package nav

import (
	"context"
	"fmt"
)

// Resolver turns a MapUpdate into a displayable View by geocoding its places
// and, for routes, computing the connecting leg.
type Resolver struct {
	geocoder *Geocoder
	router   *Router
}

// NewResolver creates a resolver over the given clients.
func NewResolver(geocoder *Geocoder, router *Router) (*Resolver, error) {
	if geocoder == nil {
		return nil, fmt.Errorf("geocoder is required")
	}
	if router == nil {
		return nil, fmt.Errorf("router is required")
	}
	return &Resolver{geocoder: geocoder, router: router}, nil
}

// Resolve resolves an update. Failures are ordinary errors for the caller to
// present; they carry ErrNoResults or ErrUpstream for classification.
func (r *Resolver) Resolve(ctx context.Context, update MapUpdate) (View, error) {
	switch update.Kind {
	case KindLocation:
		if update.Location == nil {
			return View{}, fmt.Errorf("location update without location")
		}
		place, err := r.geocoder.Geocode(ctx, update.Location.Query)
		if err != nil {
			return View{}, fmt.Errorf("resolving %q: %w", update.Location.Query, err)
		}
		return View{Title: update.Location.Query, Places: []Place{place}}, nil

	case KindRoute:
		if update.Route == nil {
			return View{}, fmt.Errorf("route update without route")
		}
		origin, err := r.geocoder.Geocode(ctx, update.Route.Origin)
		if err != nil {
			return View{}, fmt.Errorf("resolving origin %q: %w", update.Route.Origin, err)
		}
		destination, err := r.geocoder.Geocode(ctx, update.Route.Destination)
		if err != nil {
			return View{}, fmt.Errorf("resolving destination %q: %w", update.Route.Destination, err)
		}
		leg, err := r.router.Route(ctx, origin, destination)
		if err != nil {
			return View{}, fmt.Errorf("routing %q to %q: %w", update.Route.Origin, update.Route.Destination, err)
		}
		return View{
			Title:  fmt.Sprintf("%s to %s", update.Route.Origin, update.Route.Destination),
			Places: []Place{origin, destination},
			Leg:    &leg,
		}, nil

	default:
		return View{}, fmt.Errorf("unknown update kind %d", update.Kind)
	}
}
