package domain

import (
	"context"
	"errors"
)

// PeriodicTask describes a durable host-level schedule that re-invokes the
// report cycle on a coarse cadence, independently of the agent process being
// alive. Its purpose is resilience, not tight cadence.
type PeriodicTask struct {
	TaskID     string
	UniqueName string
	Cadence    Cadence
}

// NewPeriodicTask validates the registration parameters.
func NewPeriodicTask(taskID, uniqueName string, cadence Cadence) (PeriodicTask, error) {
	if taskID == "" {
		return PeriodicTask{}, errors.New("task id cannot be empty")
	}
	if uniqueName == "" {
		return PeriodicTask{}, errors.New("task unique name cannot be empty")
	}
	return PeriodicTask{TaskID: taskID, UniqueName: uniqueName, Cadence: cadence}, nil
}

// TaskRegistrar installs a periodic task with the host scheduler.
//
// Register is idempotent: registering a task with a unique name that already
// exists replaces the schedule instead of duplicating it. Once registered the
// task persists across agent restarts until cancelled or evicted by the host.
type TaskRegistrar interface {
	Register(ctx context.Context, task PeriodicTask) error
}
