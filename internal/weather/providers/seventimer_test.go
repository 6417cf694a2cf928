package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

const civilBody = `{
  "product": "civil",
  "init": "2024010100",
  "dataseries": [
    {"timepoint": 3, "cloudcover": 5, "lifted_index": 15, "prec_type": "none", "prec_amount": 0,
     "temp2m": 10, "rh2m": "85%", "wind10m": {"direction": "W", "speed": 3}, "weather": "cloudyday"},
    {"timepoint": 6, "cloudcover": 2, "lifted_index": 15, "prec_type": "none", "prec_amount": 0,
     "temp2m": 8, "rh2m": "80%", "wind10m": {"direction": "SW", "speed": 2}, "weather": "clearnight"}
  ]
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc, timeout time.Duration, breaker BreakerConfig) *SevenTimerProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewSevenTimerProvider(
		HTTPClientConfig{Client: srv.Client(), Timeout: timeout},
		srv.URL+"/bin/api.pl",
		breaker,
		nil,
	)
}

func TestSevenTimerFetch(t *testing.T) {
	var query url.Values
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(civilBody))
	}, time.Second, BreakerConfig{})

	doc, err := p.Fetch(context.Background(), weather.Coordinate{Latitude: 51.50789, Longitude: -0.12766})
	require.NoError(t, err)

	assert.Equal(t, "51.508", query.Get("lat"))
	assert.Equal(t, "-0.128", query.Get("lon"))
	assert.Equal(t, "civil", query.Get("product"))
	assert.Equal(t, "json", query.Get("output"))

	assert.Equal(t, "2024010100", doc.Init)
	require.Len(t, doc.Dataseries, 2)
	assert.Equal(t, 5, doc.Dataseries[0].CloudCover)
	assert.Equal(t, 10.0, doc.Dataseries[0].Temp2m)
	assert.Equal(t, "W", doc.Dataseries[0].Wind10m.Direction)
}

func TestSevenTimerInvalidCoordinate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ERR: invalid coordinate"))
	}, time.Second, BreakerConfig{})

	_, err := p.Fetch(context.Background(), weather.Coordinate{Latitude: 1000, Longitude: 1000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrInvalidCoordinate))

	var perr *weather.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusOK, perr.StatusCode)
	assert.Equal(t, "ERR: invalid coordinate", string(perr.Body))
}

func TestSevenTimerEmptyResponse(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, time.Second, BreakerConfig{})

	_, err := p.Fetch(context.Background(), weather.Coordinate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrEmptyResponse))

	var perr *weather.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusOK, perr.StatusCode)
}

func TestSevenTimerMalformedJSON(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}, time.Second, BreakerConfig{})

	_, err := p.Fetch(context.Background(), weather.Coordinate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrMalformedResponse))
}

func TestSevenTimerClientErrorPassesThrough(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such product"))
	}, time.Second, BreakerConfig{})

	_, err := p.Fetch(context.Background(), weather.Coordinate{})

	var perr *weather.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))
	assert.Equal(t, http.StatusNotFound, perr.StatusCode)
	assert.Equal(t, "no such product", string(perr.Body))
}

func TestSevenTimerTimeout(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 50*time.Millisecond, BreakerConfig{})

	_, err := p.Fetch(context.Background(), weather.Coordinate{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, weather.ErrProviderTimeout))

	var perr *weather.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusGatewayTimeout, perr.StatusCode)
}

func TestSevenTimerDoesNotRetryAndBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}, time.Second, BreakerConfig{MaxFailures: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := p.Fetch(context.Background(), weather.Coordinate{})
		var perr *weather.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, http.StatusInternalServerError, perr.StatusCode)
		assert.Equal(t, "boom", string(perr.Body))
	}
	assert.Equal(t, int32(2), hits.Load())

	_, err := p.Fetch(context.Background(), weather.Coordinate{})
	var perr *weather.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestSevenTimerInvalidCoordinateDoesNotTripBreaker(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ERR: invalid coordinate"))
	}, time.Second, BreakerConfig{MaxFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := p.Fetch(context.Background(), weather.Coordinate{Latitude: 1000, Longitude: 1000})
		assert.True(t, errors.Is(err, weather.ErrInvalidCoordinate))
	}
}

func TestDoRequestWithoutClient(t *testing.T) {
	p := NewSevenTimerProvider(HTTPClientConfig{}, "", BreakerConfig{}, nil)

	_, err := p.Fetch(context.Background(), weather.Coordinate{})
	assert.True(t, errors.Is(err, weather.ErrProviderUnavailable))
}
