package domain

import "context"

// Host capabilities the agent needs before the pipeline may run.
const (
	CapabilityLocation      Capability = "location"
	CapabilityState         Capability = "state"
	CapabilityBackgroundRun Capability = "background-run"
	CapabilityNotifications Capability = "notifications"
)

// Capability names a host-level permission the agent depends on.
type Capability string

// CapabilityCheck requests a single capability from the host. A check that was
// already granted earlier should return immediately without side effects.
type CapabilityCheck interface {
	Capability() Capability
	Request(ctx context.Context) error
}

// Grants maps each requested capability to its outcome (nil means granted).
type Grants map[Capability]error

// Granted reports whether the given capability was granted.
func (g Grants) Granted(capability Capability) bool {
	err, ok := g[capability]
	return ok && err == nil
}

// AllGranted reports whether every requested capability was granted.
func (g Grants) AllGranted() bool {
	for _, err := range g {
		if err != nil {
			return false
		}
	}
	return true
}

// PermissionGate requests the capabilities the agent needs from the host.
type PermissionGate struct {
	logger Logger
	checks []CapabilityCheck
}

// EnsureCapabilities requests every registered capability in order. A denial
// does not abort the remaining requests: the caller gets the full picture and
// decides whether to proceed. A denied pipeline is still allowed to run, it
// simply fails downstream.
func (p *PermissionGate) EnsureCapabilities(ctx context.Context) Grants {
	grants := make(Grants, len(p.checks))
	for _, check := range p.checks {
		err := check.Request(ctx)
		grants[check.Capability()] = err
		if err != nil {
			p.logger.Error("capability %s denied: %s", check.Capability(), err.Error())
			continue
		}
		p.logger.Info("capability %s granted", check.Capability())
	}
	return grants
}

// NewPermissionGate creates a PermissionGate over the given checks.
func NewPermissionGate(logger Logger, checks ...CapabilityCheck) *PermissionGate {
	return &PermissionGate{
		logger: logger,
		checks: checks,
	}
}
