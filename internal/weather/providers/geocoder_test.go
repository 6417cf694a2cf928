package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

func TestGoogleGeocoderResolves(t *testing.T) {
	g := NewGoogleGeocoder("key")
	var gotAddr geocoder.Address
	g.lookup = func(addr geocoder.Address) (geocoder.Location, error) {
		gotAddr = addr
		return geocoder.Location{Latitude: 52.2053, Longitude: 0.1218}, nil
	}

	coord, err := g.Geocode(context.Background(), " CB2 1TN ")
	require.NoError(t, err)
	assert.Equal(t, "CB2+1TN", gotAddr.PostalCode)
	assert.Equal(t, weather.Coordinate{Latitude: 52.2053, Longitude: 0.1218}, coord)
}

func TestGoogleGeocoderNotFound(t *testing.T) {
	cases := map[string]func(geocoder.Address) (geocoder.Location, error){
		"zero results": func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{}, errors.New("ZERO_RESULTS")
		},
		"no results": func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{}, errors.New("No results found.")
		},
		"empty location": func(geocoder.Address) (geocoder.Location, error) {
			return geocoder.Location{}, nil
		},
	}

	for name, lookup := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewGoogleGeocoder("key")
			g.lookup = lookup

			_, err := g.Geocode(context.Background(), "ZZ99 9ZZ")
			assert.True(t, errors.Is(err, weather.ErrGeocodeNotFound), "got %v", err)
		})
	}
}

func TestGoogleGeocoderBlankQuery(t *testing.T) {
	g := NewGoogleGeocoder("key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		t.Fatal("lookup must not be called for a blank query")
		return geocoder.Location{}, nil
	}

	_, err := g.Geocode(context.Background(), "   ")
	assert.True(t, errors.Is(err, weather.ErrGeocodeNotFound))
}

func TestGoogleGeocoderUnavailable(t *testing.T) {
	g := NewGoogleGeocoder("key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}

	_, err := g.Geocode(context.Background(), "CB2 1TN")
	assert.True(t, errors.Is(err, weather.ErrGeocodeUnavailable))
}

func TestGoogleGeocoderHonoursContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	g := NewGoogleGeocoder("key")
	g.lookup = func(geocoder.Address) (geocoder.Location, error) {
		<-release
		return geocoder.Location{Latitude: 1, Longitude: 1}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := g.Geocode(ctx, "CB2 1TN")
	assert.True(t, errors.Is(err, weather.ErrGeocodeUnavailable))
}

func TestGoogleGeocoderEscapesQuery(t *testing.T) {
	g := NewGoogleGeocoder("key")
	var gotAddr geocoder.Address
	g.lookup = func(addr geocoder.Address) (geocoder.Location, error) {
		gotAddr = addr
		return geocoder.Location{Latitude: 1, Longitude: 1}, nil
	}

	_, err := g.Geocode(context.Background(), "AB1&key=x#frag")
	require.NoError(t, err)
	assert.Equal(t, "AB1%26key%3Dx%23frag", gotAddr.PostalCode)
}

// googleStub points the geocoding library at handler for the duration of the test.
func googleStub(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	previous := geocoder.ApiUrl
	geocoder.ApiUrl = srv.URL + "/maps/api/geocode/json?"
	t.Cleanup(func() { geocoder.ApiUrl = previous })
}

func TestGoogleGeocoderUnknownStatusDoesNotCrash(t *testing.T) {
	googleStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OVER_DAILY_LIMIT","results":[]}`))
	})

	_, err := NewGoogleGeocoder("key").Geocode(context.Background(), "CB2 1TN")
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrGeocodeUnavailable) || errors.Is(err, weather.ErrGeocodeNotFound), "got %v", err)
}

func TestGoogleGeocoderRunsConcurrently(t *testing.T) {
	const delay = 200 * time.Millisecond
	googleStub(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","results":[{"geometry":{"location":{"lat":52.2053,"lng":0.1218}}}]}`))
	})

	g := NewGoogleGeocoder("key")

	const callers = 4
	var wg sync.WaitGroup
	started := time.Now()
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, _ = g.Geocode(ctx, "CB2 1TN")
		}()
	}
	wg.Wait()

	assert.Less(t, time.Since(started), time.Duration(callers-1)*delay)
}
