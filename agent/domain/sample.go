// Package domain provides core business logic for the location telemetry agent.
package domain

import "time"

// LocationSample is a single position fix produced by a location source.
// It is immutable and lives only long enough to be handed to the sink.
type LocationSample struct {
	CapturedAt time.Time
	Latitude   float64
	Longitude  float64
}
