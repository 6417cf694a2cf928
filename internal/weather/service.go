package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Service fetches forecasts and reduces them to the reporting window.
type Service struct {
	provider ForecastProvider
	geocoder Geocoder
	retain   RetentionFunc
	now      func() time.Time
	logger   *slog.Logger

	// geocodeTimeout bounds each postcode lookup; 0 leaves it to ctx.
	geocodeTimeout time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithRetention replaces the default HourStampRetention.
func WithRetention(retain RetentionFunc) Option {
	return func(s *Service) {
		if retain != nil {
			s.retain = retain
		}
	}
}

// WithClock overrides the source of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithGeocodeTimeout bounds each postcode lookup.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.geocodeTimeout = d
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a new Service. geocoder may be nil, in which case
// postcode lookups fail with ErrGeocodeUnavailable.
func NewService(provider ForecastProvider, geocoder Geocoder, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		geocoder: geocoder,
		retain:   HourStampRetention,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ForecastByCoordinate fetches the provider document for coord and filters it
// against the current time.
func (s *Service) ForecastByCoordinate(ctx context.Context, coord Coordinate) ([]ForecastEntry, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no forecast provider configured")
	}

	doc, err := s.provider.Fetch(ctx, coord)
	if err != nil {
		s.logger.Warn("forecast fetch failed",
			"provider", s.provider.Name(),
			"coordinate", coord.Key(),
			"err", err,
		)
		return nil, err
	}

	entries, err := FilterWindow(doc, s.now(), s.retain)
	if err != nil {
		return nil, &ProviderError{Kind: err, StatusCode: http.StatusBadGateway, Body: []byte(err.Error())}
	}

	s.logger.Debug("forecast filtered",
		"coordinate", coord.Key(),
		"init", doc.Init,
		"dataseries", len(doc.Dataseries),
		"entries", len(entries),
	)
	return entries, nil
}

// ForecastByPostcode resolves postcode and delegates to ForecastByCoordinate.
// The provider is not called when the postcode cannot be resolved.
func (s *Service) ForecastByPostcode(ctx context.Context, postcode string) ([]ForecastEntry, error) {
	postcode = strings.TrimSpace(postcode)
	if s.geocoder == nil {
		return nil, fmt.Errorf("%w: no geocoder configured", ErrGeocodeUnavailable)
	}

	geoCtx := ctx
	if s.geocodeTimeout > 0 {
		var cancel context.CancelFunc
		geoCtx, cancel = context.WithTimeout(ctx, s.geocodeTimeout)
		defer cancel()
	}

	coord, err := s.geocoder.Geocode(geoCtx, postcode)
	if err != nil {
		s.logger.Info("postcode lookup failed", "postcode", postcode, "err", err)
		return nil, err
	}

	s.logger.Debug("postcode resolved", "postcode", postcode, "coordinate", coord.Key())
	return s.ForecastByCoordinate(ctx, coord)
}

// Probe runs a full forecast request for coord and reports how it went.
func (s *Service) Probe(ctx context.Context, coord Coordinate) ProbeResult {
	started := s.now()
	entries, err := s.ForecastByCoordinate(ctx, coord)

	result := ProbeResult{
		Coordinate: coord,
		Timestamp:  started.UTC(),
		OK:         err == nil,
		Entries:    len(entries),
		Latency:    s.now().Sub(started).String(),
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}
