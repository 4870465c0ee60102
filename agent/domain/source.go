package domain

import "context"

// LocationSource wraps the host positioning capability.
//
// Acquire blocks the calling scheduling context until a fix is obtained or an
// error occurs. Obtaining a fix can take seconds, so Acquire must never run on
// a context whose stall would block unrelated work. The core imposes no
// timeout of its own; the caller's context may carry one.
type LocationSource interface {
	Acquire(ctx context.Context) (*LocationSample, error)
}
