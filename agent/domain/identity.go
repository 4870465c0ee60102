package domain

import (
	"context"
	"errors"
)

// DeviceIdentity is the opaque per-device token used as the primary key for
// persisted telemetry records.
type DeviceIdentity string

// NewDeviceIdentity validates the given token and returns it as a DeviceIdentity.
func NewDeviceIdentity(token string) (DeviceIdentity, error) {
	if token == "" {
		return "", errors.New("device identity cannot be empty")
	}
	return DeviceIdentity(token), nil
}

// IdentityProvider yields the stable anonymous identity of this device.
//
// Identity must be called once per scheduler invocation rather than cached by
// the caller: the backing credential can be re-established in a fresh process.
type IdentityProvider interface {
	Identity(ctx context.Context) (DeviceIdentity, error)
}
