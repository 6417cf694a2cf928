package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

// BreakerConfig controls when the circuit breaker opens and for how long.
type BreakerConfig struct {
	MaxFailures uint32        // consecutive failures before opening
	OpenTimeout time.Duration // time spent open before a trial request
}

// HTTPClientConfig bundles HTTP client and timeout settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Timeout time.Duration // per call; 0 leaves it to the client and ctx
}

var (
	errServerError  = errors.New("server error")
	errNoHTTPClient = errors.New("http client not configured")
)

// upstreamResponse is a fully read provider response.
type upstreamResponse struct {
	StatusCode int
	Body       []byte
}

func newCircuitBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker {
	maxFailures := cfg.MaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}

	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// doRequest executes a single request through the circuit breaker. There are no retries.
// Transport failures and 5xx responses count against the breaker; any other status is
// returned to the caller for classification. Errors are *weather.ProviderError.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (upstreamResponse, error) {
	if cfg.Client == nil {
		return upstreamResponse{}, unavailable(0, errNoHTTPClient)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := buildRequest()
	if err != nil {
		return upstreamResponse{}, unavailable(0, err)
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, readErr
		}

		out := upstreamResponse{StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode >= 500 {
			return out, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return out, nil
	})

	// If circuit is open, fail fast.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return upstreamResponse{}, unavailable(http.StatusServiceUnavailable, err)
	}

	if err != nil {
		if out, ok := result.(upstreamResponse); ok {
			return out, &weather.ProviderError{
				Kind:       weather.ErrProviderUnavailable,
				StatusCode: out.StatusCode,
				Body:       out.Body,
			}
		}
		if isTimeout(ctx, err) {
			return upstreamResponse{}, &weather.ProviderError{
				Kind:       weather.ErrProviderTimeout,
				StatusCode: http.StatusGatewayTimeout,
				Body:       []byte(weather.ErrProviderTimeout.Error()),
			}
		}
		return upstreamResponse{}, unavailable(http.StatusBadGateway, err)
	}

	out, ok := result.(upstreamResponse)
	if !ok {
		return upstreamResponse{}, unavailable(http.StatusBadGateway, fmt.Errorf("unexpected result type from circuit breaker"))
	}
	return out, nil
}

func unavailable(status int, err error) *weather.ProviderError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &weather.ProviderError{
		Kind:       weather.ErrProviderUnavailable,
		StatusCode: status,
		Body:       []byte(fmt.Sprintf("%v: %v", weather.ErrProviderUnavailable, err)),
	}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
