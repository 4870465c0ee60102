package domain

import (
	"context"
	"fmt"
)

// ReportCycle resolves the device identity, acquires one sample and hands it
// to the sink.
//
// The identity is resolved on every run rather than cached: the credential
// store may have been re-established by the host in a fresh process. A failure
// at any stage aborts only this cycle; the caller decides what, if anything,
// to do about it.
type ReportCycle struct {
	identity IdentityProvider
	source   LocationSource
	sink     TelemetrySink
	logger   Logger
}

// Run acquires one sample and publishes it under the device identity.
// If the location source fails, the sink is never invoked.
func (c *ReportCycle) Run(ctx context.Context) error {
	identity, err := c.identity.Identity(ctx)
	if err != nil {
		return fmt.Errorf("resolving device identity: %w", err)
	}

	sample, err := c.source.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring location: %w", err)
	}

	if err := c.sink.Publish(ctx, identity, sample); err != nil {
		return fmt.Errorf("publishing sample: %w", err)
	}

	c.logger.Info("published sample for %s: (%.6f, %.6f) at %s",
		identity, sample.Latitude, sample.Longitude, sample.CapturedAt.Format("2006-01-02T15:04:05Z07:00"),
	)
	return nil
}

// NewReportCycle creates a ReportCycle over the given collaborators.
func NewReportCycle(identity IdentityProvider, source LocationSource, sink TelemetrySink, logger Logger) *ReportCycle {
	return &ReportCycle{
		identity: identity,
		source:   source,
		sink:     sink,
		logger:   logger,
	}
}
