package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/weather-forecast-window/internal/api/http"
	"github.com/i474232898/weather-forecast-window/internal/config"
	"github.com/i474232898/weather-forecast-window/internal/logging"
	"github.com/i474232898/weather-forecast-window/internal/scheduler"
	"github.com/i474232898/weather-forecast-window/internal/store"
	"github.com/i474232898/weather-forecast-window/internal/weather"
	"github.com/i474232898/weather-forecast-window/internal/weather/providers"
)

const appName = "weather-forecast-window"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := logging.New(cfg, os.Stdout, appName)
	slog.SetDefault(log)

	retain, err := weather.RetentionByName(cfg.RetentionMode)
	if err != nil {
		log.Error("invalid retention mode", "err", err)
		os.Exit(1)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewSevenTimerProvider(
		providers.HTTPClientConfig{Client: httpClient, Timeout: cfg.HTTPTimeout},
		cfg.ProviderBaseURL,
		providers.BreakerConfig{
			MaxFailures: cfg.BreakerMaxFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		},
		log,
	)

	var geo weather.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geo = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)
	} else {
		log.Warn("GEOCODER_API_KEY not set; postcode lookups will fail")
	}

	service := weather.NewService(provider, geo,
		weather.WithRetention(retain),
		weather.WithGeocodeTimeout(cfg.HTTPTimeout),
		weather.WithLogger(log),
	)

	// Provider health probe history, served by /health.
	probeStore := store.NewMemoryStore(cfg.ProbeMaxHistory, cfg.ProbeMaxAge)

	sched := scheduler.New(cfg.ProbeCoordinate, cfg.ProbeInterval, cfg.HTTPTimeout, service, probeStore, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	httpapi.RegisterHealth(app, appName, probeStore)
	httpapi.RegisterRoutes(app, service, log)

	go func() {
		log.Info("http server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("fiber server stopped", "err", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
}
