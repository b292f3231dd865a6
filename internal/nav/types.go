// Package nav holds the map-facing domain types and the geocoding/routing
// clients that resolve them. The protocol layer only knows MapUpdate and the
// Sink callback; everything else here belongs to the presentation side.
package nav

import "time"

// UpdateKind discriminates the MapUpdate union.
type UpdateKind int

// MapUpdate variants.
const (
	KindLocation UpdateKind = iota // show a single place
	KindRoute                      // show a journey between two places
)

// Location asks the map to frame a single free-text place.
type Location struct {
	Query string
}

// Route asks the map to frame a journey between two free-text places.
type Route struct {
	Origin      string
	Destination string
}

// MapUpdate is the payload crossing from the protocol layer to the map.
// Exactly one variant is set, selected by Kind.
type MapUpdate struct {
	Kind     UpdateKind
	Location *Location // set when Kind == KindLocation
	Route    *Route    // set when Kind == KindRoute
}

// Sink receives map updates produced by successful tool calls. It is
// fire-and-forget: the bridge neither awaits nor inspects sink failures, and a
// panicking sink must not propagate back into the protocol layer.
type Sink func(MapUpdate)

// Place is a geocoded location.
type Place struct {
	Name string
	Lat  float64
	Lon  float64
}

// Leg is a routed journey between two geocoded places.
type Leg struct {
	DistanceMeters float64
	Duration       time.Duration
}

// View is a fully resolved map state ready for display: the frame title, the
// places in frame, and the routed leg when the update was a Route.
type View struct {
	Title  string
	Places []Place
	Leg    *Leg
}
