package weather

import (
	"context"
)

// ForecastProvider abstracts the upstream forecast source (7Timer).
// Failures are reported as *ProviderError wrapping one of the Err* sentinels.
type ForecastProvider interface {
	Name() string
	Fetch(ctx context.Context, coord Coordinate) (ForecastDocument, error)
}

// Geocoder resolves free text such as a postal code into a coordinate.
// It returns ErrGeocodeNotFound when nothing matches.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (Coordinate, error)
}

// ProbeStore is the contract the probe history store must satisfy.
type ProbeStore interface {
	SaveProbe(result ProbeResult)
	LatestProbe() (ProbeResult, error)
}
