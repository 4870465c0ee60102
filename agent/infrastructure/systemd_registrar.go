package infrastructure

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// CommandRunner executes a host command. It exists so registration can be
// tested without a live systemd.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

// Run executes the command and folds any output into the returned error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, string(out))
	}
	return nil
}

// SystemdRegistrar installs the fallback schedule as a systemd user timer.
//
// The timer survives agent process death and re-invokes the one-shot report
// entrypoint on its own cadence; systemd observes each invocation's exit code
// and applies its own retry policy. Unit files are written by name, so
// re-registering the same unique name replaces the schedule.
type SystemdRegistrar struct {
	unitDir   agentDomain.StateDir
	execStart string
	runner    CommandRunner
	logger    agentDomain.Logger
}

func (r *SystemdRegistrar) serviceUnit(task agentDomain.PeriodicTask) string {
	return fmt.Sprintf(`[Unit]
Description=geobeacon one-shot location report (%s)

[Service]
Type=oneshot
ExecStart=%s
`, task.TaskID, r.execStart)
}

func (r *SystemdRegistrar) timerUnit(task agentDomain.PeriodicTask) string {
	cadence := time.Duration(task.Cadence)
	return fmt.Sprintf(`[Unit]
Description=geobeacon periodic report schedule (%s)

[Timer]
OnBootSec=%s
OnUnitActiveSec=%s
Unit=%s.service

[Install]
WantedBy=timers.target
`, task.TaskID, cadence, cadence, task.UniqueName)
}

// Register writes the unit pair and enables the timer. Idempotent: an existing
// registration under the same unique name is replaced.
func (r *SystemdRegistrar) Register(ctx context.Context, task agentDomain.PeriodicTask) error {
	if err := os.MkdirAll(string(r.unitDir), 0o755); err != nil {
		return fmt.Errorf("preparing unit directory: %w", err)
	}

	servicePath := filepath.Join(string(r.unitDir), task.UniqueName+".service")
	if err := os.WriteFile(servicePath, []byte(r.serviceUnit(task)), 0o644); err != nil {
		return fmt.Errorf("writing service unit: %w", err)
	}

	timerPath := filepath.Join(string(r.unitDir), task.UniqueName+".timer")
	if err := os.WriteFile(timerPath, []byte(r.timerUnit(task)), 0o644); err != nil {
		return fmt.Errorf("writing timer unit: %w", err)
	}

	if err := r.runner.Run(ctx, "systemctl", "--user", "daemon-reload"); err != nil {
		return fmt.Errorf("reloading units: %w", err)
	}
	if err := r.runner.Run(ctx, "systemctl", "--user", "enable", "--now", task.UniqueName+".timer"); err != nil {
		return fmt.Errorf("enabling timer: %w", err)
	}

	r.logger.Info("registered periodic task %s (%s), cadence %s",
		task.TaskID, task.UniqueName, time.Duration(task.Cadence))
	return nil
}

// NewSystemdRegistrar creates a registrar writing units into unitDir. The
// execStart line is the command the timer's service invokes.
func NewSystemdRegistrar(unitDir agentDomain.StateDir, execStart string, runner CommandRunner, logger agentDomain.Logger) *SystemdRegistrar {
	return &SystemdRegistrar{
		unitDir:   unitDir,
		execStart: execStart,
		runner:    runner,
		logger:    logger,
	}
}
