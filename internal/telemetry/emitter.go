// Package telemetry records operational measurements for domain cycles.
package telemetry

import (
	"context"
	"time"

	"github.com/latticeworks/dislocnet/internal/storage"
)

// Well-known event names emitted by the cycle driver.
const (
	EventLiveNodes    = "live_nodes"
	EventOplogRecords = "oplog_records"
	EventCycleMicros  = "cycle_micros"
)

// Emitter records telemetry events for one domain.
type Emitter struct {
	store  storage.TelemetryStore
	domain int
	clock  func() time.Time
}

// NewEmitter creates an emitter bound to a domain rank.
func NewEmitter(store storage.TelemetryStore, domain int) *Emitter {
	return &Emitter{store: store, domain: domain, clock: time.Now}
}

// Emit records one measurement for a cycle. It is a no-op when the store
// is nil, so callers never guard emission sites.
func (e *Emitter) Emit(ctx context.Context, cycle int, name string, value int64) error {
	if e == nil || e.store == nil {
		return nil
	}
	now := time.Now
	if e.clock != nil {
		now = e.clock
	}
	return e.store.AppendTelemetryEvent(ctx, storage.TelemetryEvent{
		Timestamp: now().UTC(),
		Domain:    e.domain,
		Cycle:     cycle,
		Name:      name,
		Value:     value,
	})
}
