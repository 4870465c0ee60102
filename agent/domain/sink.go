package domain

import "context"

// TelemetrySink persists location samples in a remote document store.
//
// Publish performs a merge-upsert keyed by identity: only the location and
// timestamp fields of the record are overwritten, other fields of an existing
// record stay untouched. There is at most one record per identity. The sink
// performs no internal retry.
type TelemetrySink interface {
	Publish(ctx context.Context, identity DeviceIdentity, sample *LocationSample) error
}
