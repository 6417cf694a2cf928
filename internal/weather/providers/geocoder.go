package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-forecast-window/internal/common"
	"github.com/i474232898/weather-forecast-window/internal/weather"
)

// apiKeyMu guards writes to the package level key of the geocoder library.
var apiKeyMu sync.Mutex

// GoogleGeocoder implements weather.Geocoder on top of the Google Geocoding API.
type GoogleGeocoder struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
}

var _ weather.Geocoder = (*GoogleGeocoder)(nil)

// NewGoogleGeocoder sets the library's process wide API key. The process builds one geocoder.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	apiKeyMu.Lock()
	geocoder.ApiKey = apiKey
	apiKeyMu.Unlock()

	return &GoogleGeocoder{lookup: geocoder.Geocoding}
}

// Geocode resolves a postal code. The library call is not cancellable, so
// ctx only bounds how long we wait for it.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) (weather.Coordinate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return weather.Coordinate{}, weather.ErrGeocodeNotFound
	}

	type outcome struct {
		loc geocoder.Location
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		// The library indexes the first result without checking for statuses it does not know.
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("geocoding failed: %v", r)}
			}
		}()

		// The library only replaces spaces, so escape everything else here.
		loc, err := g.lookup(geocoder.Address{PostalCode: url.QueryEscape(query)})
		done <- outcome{loc: loc, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Coordinate{}, fmt.Errorf("%w: %v", weather.ErrGeocodeUnavailable, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return weather.Coordinate{}, classifyGeocodeError(query, res.err)
		}
		// A zero location is what the library returns for an empty result set. No postal
		// code resolves to 0,0, which lies in open ocean.
		if res.loc.Latitude == 0 && res.loc.Longitude == 0 {
			return weather.Coordinate{}, fmt.Errorf("%w: %q", weather.ErrGeocodeNotFound, query)
		}
		return weather.Coordinate{
			Latitude:  res.loc.Latitude,
			Longitude: res.loc.Longitude,
		}, nil
	}
}

func classifyGeocodeError(query string, err error) error {
	msg := strings.ToLower(err.Error())
	if common.HasAny(msg, "zero_results", "no results", "not found") {
		return fmt.Errorf("%w: %q", weather.ErrGeocodeNotFound, query)
	}
	return fmt.Errorf("%w: %v", weather.ErrGeocodeUnavailable, err)
}
