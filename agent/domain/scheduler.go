package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Foreground scheduler lifecycle states.
const (
	SchedulerCreated SchedulerState = iota
	SchedulerConfigured
	SchedulerStarted
	SchedulerRunning
	SchedulerStopping
	SchedulerStopped
)

// SchedulerState is the lifecycle state of a ForegroundScheduler.
type SchedulerState int32

// String returns a human readable state name.
func (s SchedulerState) String() string {
	switch s {
	case SchedulerCreated:
		return "created"
	case SchedulerConfigured:
		return "configured"
	case SchedulerStarted:
		return "started"
	case SchedulerRunning:
		return "running"
	case SchedulerStopping:
		return "stopping"
	case SchedulerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// PipelineBootstrap builds a fresh identity-to-location-to-sink cycle inside the
// scheduler's own execution context. The host may start that context in a
// fresh process with no inherited state, so every dependency must be
// re-established here rather than borrowed from the launching process.
type PipelineBootstrap func(ctx context.Context) (*ReportCycle, error)

// ErrStopDelivered indicates the external stop event was already consumed.
var ErrStopDelivered = errors.New("stop signal already delivered")

// ForegroundScheduler owns the agent's long-lived execution context: it marks
// itself user-visible through the notifier and drives report cycles on a
// fixed-interval repeating timer until an external stop signal arrives.
//
// Ticks are independent: any error or panic inside one cycle is logged and
// swallowed, and the next tick fires on schedule.
type ForegroundScheduler struct {
	logger    Logger
	notifier  Notifier
	bootstrap PipelineBootstrap
	cadence   Cadence
	service   ServiceConfig
	stopCh    chan struct{}
	stopOnce  sync.Once
	state     atomic.Int32
}

// State returns the scheduler's current lifecycle state.
func (s *ForegroundScheduler) State() SchedulerState {
	return SchedulerState(s.state.Load())
}

func (s *ForegroundScheduler) transition(from, to SchedulerState) error {
	if !s.state.CompareAndSwap(int32(from), int32(to)) {
		return fmt.Errorf("scheduler is %s, expected %s", s.State(), from)
	}
	return nil
}

// Configure registers the notification channel and service metadata with the
// host. Hosts that gate long-running services on a registered channel reject
// a service started without this step, so Configure must precede Start.
func (s *ForegroundScheduler) Configure(channel NotificationChannel, service ServiceConfig) error {
	if channel.ID == "" || channel.ID != service.NotificationChannelID {
		return errors.New("service config must reference the registered notification channel")
	}
	if err := s.notifier.RegisterChannel(channel); err != nil {
		return fmt.Errorf("registering notification channel: %w", err)
	}
	if err := s.transition(SchedulerCreated, SchedulerConfigured); err != nil {
		return err
	}
	s.service = service
	return nil
}

// Start runs the scheduler until the context is cancelled or the stop signal
// is delivered. It blocks; run it in its own goroutine.
//
// On entry the scheduler posts its initial notification (the user-visible
// marker the host requires from a long-running service), re-establishes the
// whole pipeline via the bootstrap function, and only then begins ticking.
func (s *ForegroundScheduler) Start(ctx context.Context) error {
	if err := s.transition(SchedulerConfigured, SchedulerStarted); err != nil {
		return err
	}

	err := s.notifier.Notify(
		s.service.NotificationChannelID,
		s.service.NotificationID,
		s.service.InitialTitle,
		s.service.InitialBody,
	)
	if err != nil {
		// Presence is best effort: a broken notifier must not take the
		// telemetry pipeline down with it.
		s.logger.Error("posting service notification: %s", err.Error())
	}

	cycle, err := s.bootstrap(ctx)
	if err != nil {
		s.state.Store(int32(SchedulerStopped))
		return fmt.Errorf("bootstrapping pipeline: %w", err)
	}

	if err := s.transition(SchedulerStarted, SchedulerRunning); err != nil {
		return err
	}
	s.logger.Info("foreground scheduler running, cadence %s", time.Duration(s.cadence))

	ticker := time.NewTicker(time.Duration(s.cadence))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.shutdown("context cancelled")
			return nil
		case <-s.stopCh:
			s.shutdown("stop signal received")
			return nil
		case <-ticker.C:
			s.tick(ctx, cycle)
		}
	}
}

// tick runs one report cycle, isolating the rest of the schedule from its
// outcome. A tick in progress when the stop signal arrives still completes.
func (s *ForegroundScheduler) tick(ctx context.Context, cycle *ReportCycle) {
	err := SafeFunctionRun(func() error {
		return cycle.Run(ctx)
	}, s.logger)
	if err != nil {
		s.logger.Error("report cycle failed: %s", err.Error())
	}
}

func (s *ForegroundScheduler) shutdown(reason string) {
	s.state.Store(int32(SchedulerStopping))
	s.logger.Info("foreground scheduler stopping: %s", reason)
	s.state.Store(int32(SchedulerStopped))
}

// Stop delivers the one-shot external stop signal. The first delivery begins
// shutdown; later deliveries return ErrStopDelivered and have no effect.
func (s *ForegroundScheduler) Stop() error {
	delivered := false
	s.stopOnce.Do(func() {
		close(s.stopCh)
		delivered = true
	})
	if !delivered {
		return ErrStopDelivered
	}
	return nil
}

// NewForegroundScheduler creates a scheduler in the Created state.
func NewForegroundScheduler(
	logger Logger,
	notifier Notifier,
	bootstrap PipelineBootstrap,
	cadence Cadence,
) *ForegroundScheduler {
	return &ForegroundScheduler{
		logger:    logger,
		notifier:  notifier,
		bootstrap: bootstrap,
		cadence:   cadence,
		stopCh:    make(chan struct{}),
	}
}
