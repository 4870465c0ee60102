package infrastructure

import (
	"context"
	"math/rand"
	"sync"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// SimSource is a location source that random-walks around a base coordinate.
// It stands in for a real receiver in development and tests.
type SimSource struct {
	mu  sync.Mutex
	lat float64
	lng float64
}

// Acquire returns the next step of the random walk, roughly 50m at most.
func (s *SimSource) Acquire(_ context.Context) (*agentDomain.LocationSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lat += (rand.Float64() - 0.5) * 0.001
	s.lng += (rand.Float64() - 0.5) * 0.001

	return &agentDomain.LocationSample{
		Latitude:   s.lat,
		Longitude:  s.lng,
		CapturedAt: time.Now().UTC(),
	}, nil
}

// NewSimSource creates a simulated source starting at the given coordinate.
func NewSimSource(lat, lng float64) *SimSource {
	return &SimSource{lat: lat, lng: lng}
}
