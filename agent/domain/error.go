package domain

import "errors"

// ErrIdentityUnavailable indicates that the anonymous-session backend could not
// be reached and no device identity can be established for this cycle.
var ErrIdentityUnavailable = errors.New("identity unavailable")

// ErrLocationUnavailable indicates that no position fix could be obtained:
// the positioning service is disabled, unreachable, or returned no fix.
var ErrLocationUnavailable = errors.New("location unavailable")

// ErrWriteFailed indicates that the remote document store rejected the write
// or was unreachable. Retry policy belongs to the scheduler, not the sink.
var ErrWriteFailed = errors.New("telemetry write failed")
