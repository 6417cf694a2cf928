package weather

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrEmptyResponse       = errors.New("empty provider response")
	ErrMalformedResponse   = errors.New("malformed provider response")
	ErrProviderTimeout     = errors.New("provider timeout")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrGeocodeNotFound     = errors.New("location not found")
	ErrGeocodeUnavailable  = errors.New("geocoder unavailable")
)

// ProviderError is a fetch failure together with what the provider answered,
// so callers can pass the upstream status and body through unchanged.
type ProviderError struct {
	Kind       error
	StatusCode int
	Body       []byte
}

func (e *ProviderError) Error() string {
	if len(e.Body) == 0 {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	return e.Kind
}
