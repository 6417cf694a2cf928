package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

const (
	// DefaultSevenTimerURL is the public 7Timer API endpoint.
	DefaultSevenTimerURL = "https://www.7timer.info/bin/api.pl"

	invalidCoordinateBody = "ERR: invalid coordinate"
)

// SevenTimerProvider implements the weather.ForecastProvider interface for 7Timer's civil product.
type SevenTimerProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

var _ weather.ForecastProvider = (*SevenTimerProvider)(nil)

// NewSevenTimerProvider creates a provider. An empty baseURL uses DefaultSevenTimerURL.
func NewSevenTimerProvider(httpCfg HTTPClientConfig, baseURL string, breaker BreakerConfig, logger *slog.Logger) *SevenTimerProvider {
	if baseURL == "" {
		baseURL = DefaultSevenTimerURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SevenTimerProvider{
		name:    "7timer",
		baseURL: baseURL,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker("7timer", breaker, logger),
		logger:  logger,
	}
}

func (p *SevenTimerProvider) Name() string {
	return p.name
}

// Fetch issues one request for coord and decodes the forecast document.
func (p *SevenTimerProvider) Fetch(ctx context.Context, coord weather.Coordinate) (weather.ForecastDocument, error) {
	lat, lon := coord.Query()

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lon", lon)
		values.Set("lat", lat)
		values.Set("product", "civil")
		values.Set("output", "json")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.ForecastDocument{}, err
	}

	p.logger.Debug("provider responded",
		"provider", p.name,
		"lat", lat,
		"lon", lon,
		"status", resp.StatusCode,
		"bytes", len(resp.Body),
	)

	return decodeSevenTimer(resp)
}

func decodeSevenTimer(resp upstreamResponse) (weather.ForecastDocument, error) {
	body := bytes.TrimSpace(resp.Body)

	switch {
	case string(body) == invalidCoordinateBody:
		return weather.ForecastDocument{}, &weather.ProviderError{
			Kind:       weather.ErrInvalidCoordinate,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	case len(body) == 0:
		return weather.ForecastDocument{}, &weather.ProviderError{
			Kind:       weather.ErrEmptyResponse,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return weather.ForecastDocument{}, &weather.ProviderError{
			Kind:       weather.ErrProviderUnavailable,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}

	var doc weather.ForecastDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return weather.ForecastDocument{}, &weather.ProviderError{
			Kind:       weather.ErrMalformedResponse,
			StatusCode: http.StatusBadGateway,
			Body:       []byte(fmt.Sprintf("%v: %v", weather.ErrMalformedResponse, err)),
		}
	}
	return doc, nil
}
