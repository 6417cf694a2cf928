package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

// Prober runs a single provider health check.
type Prober interface {
	Probe(ctx context.Context, coord weather.Coordinate) weather.ProbeResult
}

// Scheduler periodically probes the forecast provider and records the outcome.
type Scheduler struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	prober    Prober
	store     weather.ProbeStore
	coord     weather.Coordinate
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(coord weather.Coordinate, interval, timeout time.Duration, prober Prober, store weather.ProbeStore, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		prober:    prober,
		store:     store,
		coord:     coord,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
	}
}

// Start schedules the probe job and starts the underlying scheduler.
// A non-positive interval disables probing.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("scheduler: probe interval not set; provider probing disabled")
		return nil
	}

	job, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}
	s.job = job

	s.scheduler.StartAsync()
	return nil
}

// RunOnce probes the provider once and stores the result.
func (s *Scheduler) RunOnce() {
	timeout := s.timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := s.prober.Probe(ctx, s.coord)
	s.store.SaveProbe(result)

	if result.OK {
		s.logger.Debug("scheduler: provider probe succeeded", "entries", result.Entries, "latency", result.Latency)
		return
	}
	s.logger.Warn("scheduler: provider probe failed", "coordinate", s.coord.Key(), "err", result.Error)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
