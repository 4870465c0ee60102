package domain

import (
	"errors"
	"time"
)

// Cadence is the interval between successive scheduled telemetry cycles.
type Cadence time.Duration

// NewCadence validates the given duration and returns it as a Cadence.
func NewCadence(val time.Duration) (Cadence, error) {
	if val <= 0 {
		return 0, errors.New("cadence must be greater than 0")
	}
	return Cadence(val), nil
}
