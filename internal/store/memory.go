package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-forecast-window/internal/weather"
)

var (
	// ErrNotFound is returned when no probe has been recorded yet.
	ErrNotFound = errors.New("no probe results recorded")
)

// MemoryStore is a concurrency-safe in-memory history of provider probe results.
// It only ever holds health data, never forecasts.
type MemoryStore struct {
	mu sync.RWMutex

	probes []weather.ProbeResult

	// retention configuration
	maxHistory int           // max number of results kept
	maxAge     time.Duration // optional max age for results
}

var _ weather.ProbeStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveProbe appends a new result and enforces retention.
func (s *MemoryStore) SaveProbe(result weather.ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.probes = append(s.probes, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.probes) > s.maxHistory {
		over := len(s.probes) - s.maxHistory
		s.probes = append([]weather.ProbeResult(nil), s.probes[over:]...)
	}

	// Enforce retention by age, always keeping the newest result.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.probes)-1; i++ {
			if !s.probes[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.probes = s.probes[i:]
		}
	}
}

// LatestProbe returns the most recent result.
func (s *MemoryStore) LatestProbe() (weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.probes) == 0 {
		return weather.ProbeResult{}, ErrNotFound
	}
	return s.probes[len(s.probes)-1], nil
}

// History returns a copy of all retained results, oldest first.
func (s *MemoryStore) History() []weather.ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]weather.ProbeResult, len(s.probes))
	copy(out, s.probes)
	return out
}
