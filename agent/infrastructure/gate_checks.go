package infrastructure

import (
	"context"
	"fmt"
	"net"
	"os"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// SourceProbe requests location access by verifying the positioning service
// is reachable.
type SourceProbe struct {
	address agentDomain.SourceAddress
}

// Capability identifies the probed capability.
func (p *SourceProbe) Capability() agentDomain.Capability {
	return agentDomain.CapabilityLocation
}

// Request dials the positioning service once.
func (p *SourceProbe) Request(ctx context.Context) error {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", string(p.address))
	if err != nil {
		return fmt.Errorf("positioning service unreachable: %w", err)
	}
	return conn.Close()
}

// NewSourceProbe creates the location capability check.
func NewSourceProbe(address agentDomain.SourceAddress) *SourceProbe {
	return &SourceProbe{address: address}
}

// DirProbe requests a directory-backed capability by verifying the directory
// exists (creating it if needed) and is writable.
type DirProbe struct {
	capability agentDomain.Capability
	dir        agentDomain.StateDir
}

// Capability identifies the probed capability.
func (p *DirProbe) Capability() agentDomain.Capability {
	return p.capability
}

// Request creates the directory if needed and writes a throwaway probe file.
func (p *DirProbe) Request(_ context.Context) error {
	if err := os.MkdirAll(string(p.dir), 0o700); err != nil {
		return fmt.Errorf("creating %s: %w", p.dir, err)
	}
	f, err := os.CreateTemp(string(p.dir), ".probe-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", p.dir, err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// NewDirProbe creates a directory capability check.
func NewDirProbe(capability agentDomain.Capability, dir agentDomain.StateDir) *DirProbe {
	return &DirProbe{capability: capability, dir: dir}
}

// NotifierProbe requests permission to surface notifications.
type NotifierProbe struct {
	notifier *StatusNotifier
}

// Capability identifies the probed capability.
func (p *NotifierProbe) Capability() agentDomain.Capability {
	return agentDomain.CapabilityNotifications
}

// Request verifies the notifier's surface is usable.
func (p *NotifierProbe) Request(_ context.Context) error {
	return p.notifier.Probe()
}

// NewNotifierProbe creates the notifications capability check.
func NewNotifierProbe(notifier *StatusNotifier) *NotifierProbe {
	return &NotifierProbe{notifier: notifier}
}
