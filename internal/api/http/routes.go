package httpapi

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-forecast-window/internal/common"
	"github.com/i474232898/weather-forecast-window/internal/weather"
)

var validate = validator.New()

// ProbeReader exposes recorded provider probes to the health endpoints.
type ProbeReader interface {
	LatestProbe() (weather.ProbeResult, error)
	History() []weather.ProbeResult
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *weather.Service, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	api := app.Group("/api")

	api.Get("/7timer-latlon/", func(c *fiber.Ctx) error {
		q, err := parseLatLonQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.ForecastByCoordinate(c.UserContext(), q.toCoordinate())
		if err != nil {
			return writeForecastError(c, logger, err)
		}
		return c.JSON(entries)
	})

	api.Get("/7timer-postcode/", func(c *fiber.Ctx) error {
		var q postcodeQuery
		q.Postcode = c.Query("postcode")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.ForecastByPostcode(c.UserContext(), q.Postcode)
		if err != nil {
			return writeForecastError(c, logger, err)
		}
		return c.JSON(entries)
	})
}

// ErrorHandler renders errors returned by handlers as a JSON error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterHealth adds the health endpoints. probes may be nil when probing is disabled.
func RegisterHealth(app *fiber.App, serviceName string, probes ProbeReader) {
	app.Get("/health", func(c *fiber.Ctx) error {
		body := fiber.Map{
			"status":   "ok",
			"service":  serviceName,
			"provider": nil,
		}
		if probes != nil {
			if latest, err := probes.LatestProbe(); err == nil {
				body["provider"] = latest
			}
		}
		return c.JSON(body)
	})

	app.Get("/health/history", func(c *fiber.Ctx) error {
		history := []weather.ProbeResult{}
		if probes != nil {
			history = append(history, probes.History()...)
		}
		return c.JSON(history)
	})
}

// writeForecastError passes provider failures through with the provider's status and body.
func writeForecastError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	logger.Warn("forecast request failed",
		"request_id", c.Locals("requestid"),
		"path", c.Path(),
		"err", err,
	)

	var perr *weather.ProviderError
	switch {
	case errors.As(err, &perr):
		status := perr.StatusCode
		if status < 100 || status > 599 {
			status = fiber.StatusBadGateway
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.Status(status).Send(perr.Body)
	case errors.Is(err, weather.ErrGeocodeNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no location found for postcode")
	case errors.Is(err, weather.ErrGeocodeUnavailable):
		return fiber.NewError(fiber.StatusBadGateway, "geocoding service unavailable")
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather forecast")
	}
}

// latLonQuery holds query parameters for the coordinate endpoint.
type latLonQuery struct {
	Latitude  string `validate:"required,numeric"`
	Longitude string `validate:"required,numeric"`

	lat, lon float64
}

func (q latLonQuery) toCoordinate() weather.Coordinate {
	return weather.Coordinate{Latitude: q.lat, Longitude: q.lon}
}

func parseLatLonQuery(c *fiber.Ctx) (latLonQuery, error) {
	var q latLonQuery

	q.Latitude = c.Query("latitude")
	q.Longitude = c.Query("longitude")

	if err := validate.Struct(q); err != nil {
		return q, err
	}

	var err error
	if q.lat, err = common.ParseFloat(q.Latitude); err != nil {
		return q, err
	}
	if q.lon, err = common.ParseFloat(q.Longitude); err != nil {
		return q, err
	}
	return q, nil
}

// postcodeQuery holds query parameters for the postcode endpoint.
type postcodeQuery struct {
	Postcode string `validate:"required"`
}
