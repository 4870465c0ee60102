package infrastructure

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// Mock logger for testing
type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Error(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockLogger) Info(_ string, _ ...interface{}) {}

func (m *mockLogger) GetMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.messages...)
}

func sampleAt(ts time.Time, lat, lng float64) *agentDomain.LocationSample {
	return &agentDomain.LocationSample{
		CapturedAt: ts,
		Latitude:   lat,
		Longitude:  lng,
	}
}

func TestMemoryStore_Publish_SingleRecordPerDevice(t *testing.T) {
	store := NewMemoryStore(&mockLogger{})
	identity := agentDomain.DeviceIdentity("u1")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Publish(context.Background(), identity, sampleAt(base, 10.0, 20.0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Publish(context.Background(), identity, sampleAt(base.Add(100*time.Millisecond), 11.0, 21.0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.Len() != 1 {
		t.Fatalf("expected a single record, got %d", store.Len())
	}

	document, ok := store.Document(identity)
	if !ok {
		t.Fatal("expected a document for u1")
	}
	location := document[fieldLocation].(Coordinate)
	if location.Lat != 11.0 || location.Lng != 21.0 {
		t.Errorf("expected the later sample's coordinates, got %+v", location)
	}
	if got := document[fieldUpdatedAt].(time.Time); !got.Equal(base.Add(100 * time.Millisecond)) {
		t.Errorf("expected updated_at of the later sample, got %s", got)
	}
}

func TestMemoryStore_Publish_PreservesForeignFields(t *testing.T) {
	store := NewMemoryStore(&mockLogger{})
	identity := agentDomain.DeviceIdentity("u1")
	store.Seed(identity, map[string]interface{}{
		"display_name": "Truck 7",
		"fleet":        "north",
	})

	if err := store.Publish(context.Background(), identity, sampleAt(time.Now(), 10.0, 20.0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	document, _ := store.Document(identity)
	if document["display_name"] != "Truck 7" || document["fleet"] != "north" {
		t.Errorf("expected fields owned by other writers to survive, got %v", document)
	}
}

func TestMemoryStore_Publish_LastWriteWinsEitherOrder(t *testing.T) {
	earlier := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Minute)
	identity := agentDomain.DeviceIdentity("u1")

	orders := []struct {
		name    string
		samples []*agentDomain.LocationSample
	}{
		{name: "in order", samples: []*agentDomain.LocationSample{sampleAt(earlier, 1.0, 1.0), sampleAt(later, 2.0, 2.0)}},
		{name: "reversed", samples: []*agentDomain.LocationSample{sampleAt(later, 2.0, 2.0), sampleAt(earlier, 1.0, 1.0)}},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore(&mockLogger{})
			for _, sample := range tt.samples {
				if err := store.Publish(context.Background(), identity, sample); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			document, _ := store.Document(identity)
			location := document[fieldLocation].(Coordinate)
			if location.Lat != 2.0 {
				t.Errorf("expected the newer sample to win, got %+v", location)
			}
			if got := document[fieldUpdatedAt].(time.Time); !got.Equal(later) {
				t.Errorf("expected updated_at %s, got %s", later, got)
			}
		})
	}
}

func TestMemoryStore_Publish_ConcurrentWritesConverge(t *testing.T) {
	store := NewMemoryStore(&mockLogger{})
	identity := agentDomain.DeviceIdentity("u1")
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(i int) {
			defer wg.Done()
			sample := sampleAt(base.Add(time.Duration(i)*time.Second), float64(i), float64(i))
			if err := store.Publish(context.Background(), identity, sample); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 1 {
		t.Fatalf("expected a single record, got %d", store.Len())
	}
	document, _ := store.Document(identity)
	if got := document[fieldUpdatedAt].(time.Time); !got.Equal(base.Add((writers - 1) * time.Second)) {
		t.Errorf("expected the newest timestamp to win, got %s", got)
	}
}

func TestMemoryStore_Publish_EmptyIdentity(t *testing.T) {
	store := NewMemoryStore(&mockLogger{})

	err := store.Publish(context.Background(), "", sampleAt(time.Now(), 1.0, 1.0))
	if !errors.Is(err, agentDomain.ErrWriteFailed) {
		t.Errorf("expected ErrWriteFailed, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected no records, got %d", store.Len())
	}
}
