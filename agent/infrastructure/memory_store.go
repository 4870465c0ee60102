package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// Coordinate is the in-memory shape of a record's location field.
type Coordinate struct {
	Lat float64
	Lng float64
}

// MemoryStore is an in-process document table with the same merge-upsert and
// last-write-wins semantics as the remote store. It backs the memory store
// mode and the sink tests.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[agentDomain.DeviceIdentity]map[string]interface{}
	logger    agentDomain.Logger
}

// Publish merge-upserts the sample into the document keyed by identity.
// Fields other than location and updated_at are left untouched, and a sample
// older than the stored one is dropped.
func (s *MemoryStore) Publish(_ context.Context, identity agentDomain.DeviceIdentity, sample *agentDomain.LocationSample) error {
	if identity == "" {
		return fmt.Errorf("%w: empty device identity", agentDomain.ErrWriteFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	document, ok := s.documents[identity]
	if !ok {
		document = make(map[string]interface{})
		s.documents[identity] = document
	}

	if stored, ok := document[fieldUpdatedAt].(time.Time); ok && sample.CapturedAt.Before(stored) {
		s.logger.Info("dropping stale sample for %s, captured at %s", identity, sample.CapturedAt)
		return nil
	}

	document[fieldLocation] = Coordinate{Lat: sample.Latitude, Lng: sample.Longitude}
	document[fieldUpdatedAt] = sample.CapturedAt

	return nil
}

// Seed installs arbitrary fields on a document, creating it if absent.
// It exists so tests and the dev mode can emulate records that carry fields
// owned by other writers.
func (s *MemoryStore) Seed(identity agentDomain.DeviceIdentity, fields map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	document, ok := s.documents[identity]
	if !ok {
		document = make(map[string]interface{})
		s.documents[identity] = document
	}
	for name, value := range fields {
		document[name] = value
	}
}

// Document returns a copy of the document for the given identity.
func (s *MemoryStore) Document(identity agentDomain.DeviceIdentity) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	document, ok := s.documents[identity]
	if !ok {
		return nil, false
	}

	copied := make(map[string]interface{}, len(document))
	for name, value := range document {
		copied[name] = value
	}
	return copied, true
}

// Len returns the number of documents in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// NewMemoryStore creates an empty in-memory telemetry sink.
func NewMemoryStore(logger agentDomain.Logger) *MemoryStore {
	return &MemoryStore{
		documents: make(map[agentDomain.DeviceIdentity]map[string]interface{}),
		logger:    logger,
	}
}
