// Package storage defines the persistence interfaces for the consistency
// core: checkpointing a domain's node table for restart, and recording
// per-cycle telemetry. Implementations live in subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/latticeworks/dislocnet/internal/network"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Checkpoint is a snapshot of one domain's authoritative node table at a
// cycle boundary. Nodes are value copies; arm lists are carried inline.
type Checkpoint struct {
	Domain int
	Cycle  int
	Nodes  []network.Node
}

// CheckpointStore persists domain checkpoints.
type CheckpointStore interface {
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	LoadCheckpoint(ctx context.Context, domain, cycle int) (Checkpoint, error)
	// LatestCycle returns the most recent checkpointed cycle for a domain,
	// or ErrNotFound when none exists.
	LatestCycle(ctx context.Context, domain int) (int, error)
}

// TelemetryEvent records one operational measurement for a domain cycle.
type TelemetryEvent struct {
	Timestamp time.Time
	Domain    int
	Cycle     int
	Name      string
	Value     int64
}

// TelemetryStore persists telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, evt TelemetryEvent) error
}
