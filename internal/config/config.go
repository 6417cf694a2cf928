package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-forecast-window/internal/common"
	"github.com/i474232898/weather-forecast-window/internal/weather"
)

type AppConfig struct {
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// ProviderBaseURL is the 7Timer API endpoint.
	ProviderBaseURL string
	// HTTPTimeout bounds each provider call.
	HTTPTimeout time.Duration

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration

	GeocoderAPIKey string

	// RetentionMode selects how already-started periods are kept ("hourstamp" or "elapsed").
	RetentionMode string

	// Provider health probe. ProbeInterval 0 disables it.
	ProbeInterval   time.Duration
	ProbeCoordinate weather.Coordinate
	ProbeMaxHistory int
	// ProbeMaxAge drops stored probe results older than this. 0 keeps them until evicted by count.
	ProbeMaxAge time.Duration
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg := &AppConfig{}

	cfg.AppEnv = getenvDefault("APP_ENV", "dev")
	switch cfg.AppEnv {
	case "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", cfg.AppEnv)
	}

	level, err := parseLogLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.ProviderBaseURL = getenvDefault("PROVIDER_BASE_URL", "https://www.7timer.info/bin/api.pl")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.BreakerOpenTimeout, err = getenvDuration("BREAKER_OPEN_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	maxFailures, err := getenvInt("BREAKER_MAX_FAILURES", 5)
	if err != nil {
		return nil, err
	}
	if maxFailures <= 0 {
		return nil, fmt.Errorf("invalid BREAKER_MAX_FAILURES: must be positive")
	}
	cfg.BreakerMaxFailures = uint32(maxFailures)

	cfg.RetentionMode = getenvDefault("FORECAST_RETENTION", "hourstamp")
	if _, err := weather.RetentionByName(cfg.RetentionMode); err != nil {
		return nil, fmt.Errorf("invalid FORECAST_RETENTION: %w", err)
	}

	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "0s"); err != nil {
		return nil, err
	}
	if cfg.ProbeMaxHistory, err = getenvInt("PROBE_MAX_HISTORY", 20); err != nil {
		return nil, err
	}
	if cfg.ProbeMaxHistory <= 0 {
		return nil, fmt.Errorf("invalid PROBE_MAX_HISTORY: must be positive")
	}
	if cfg.ProbeMaxAge, err = getenvDuration("PROBE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}
	if cfg.ProbeMaxAge < 0 {
		return nil, fmt.Errorf("invalid PROBE_MAX_AGE: must not be negative")
	}

	coord, err := loadProbeCoordinate()
	if err != nil {
		return nil, err
	}
	cfg.ProbeCoordinate = coord

	return cfg, nil
}

func loadProbeCoordinate() (weather.Coordinate, error) {
	lat, err := common.ParseFloat(getenvDefault("PROBE_LATITUDE", "51.5"))
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid PROBE_LATITUDE: %w", err)
	}
	lon, err := common.ParseFloat(getenvDefault("PROBE_LONGITUDE", "-0.12"))
	if err != nil {
		return weather.Coordinate{}, fmt.Errorf("invalid PROBE_LONGITUDE: %w", err)
	}
	return weather.Coordinate{Latitude: lat, Longitude: lon}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
