// Package exchange implements the cycle-boundary phase that drains every
// domain's operation log, delivers the records, and applies them on the
// receiving domains. The transport is an injected collaborator: this core
// produces and consumes operation records but never owns the wire, so the
// ownership and log logic stays transport-agnostic and testable without a
// process-group runtime.
package exchange

import (
	"context"

	"github.com/latticeworks/dislocnet/internal/errors"
	"github.com/latticeworks/dislocnet/internal/network"
	"github.com/latticeworks/dislocnet/internal/sim"
	"github.com/latticeworks/dislocnet/internal/topology"
)

// Exchanger delivers every domain's pending operations to the other
// domains, applies them, and clears the source logs. It must run exactly
// once per cycle, before the next cycle's ownership decisions are trusted.
type Exchanger interface {
	Exchange(ctx context.Context, domains []*sim.Domain) error
}

// Apply executes one received operation record against the receiving
// domain. Records addressed to nodes the receiver has no knowledge of are
// skipped: within a cycle a replica cache is allowed to be stale or absent,
// and the authoritative copy is updated by its own domain.
//
// Record kinds whose algorithms live above this core (connection edits,
// node splits) are not applied here; an out-of-vocabulary kind is a
// protocol violation.
func Apply(d *sim.Domain, op topology.Operation) error {
	switch op.Kind {
	case topology.KindResetSegForces:
		node, err := resolveEndpoint(d, op.Tags[0])
		if err != nil || node == nil {
			return err
		}
		// Local-only reset: the record must not be re-enqueued by the
		// receiver or it would echo between domains forever.
		d.Mutator.ResetSegmentForce(node, op.Tags[1], op.Pos, false)
		return nil

	case topology.KindMarkForcesObsolete:
		node, err := resolveEndpoint(d, op.Tags[0])
		if err != nil || node == nil {
			return err
		}
		node.Flags |= network.FlagResetForces
		return nil

	case topology.KindResetCoord:
		node, err := resolveEndpoint(d, op.Tags[0])
		if err != nil || node == nil {
			return err
		}
		node.Pos = d.Box.Fold(op.Pos)
		return nil

	case topology.KindResetGlidePlane:
		a, err := resolveEndpoint(d, op.Tags[0])
		if err != nil || a == nil {
			return err
		}
		b, err := resolveEndpoint(d, op.Tags[1])
		if err != nil || b == nil {
			return err
		}
		if idx := a.ArmTo(b.Tag); idx >= 0 {
			a.Arms[idx].Plane = op.Plane
		}
		if idx := b.ArmTo(a.Tag); idx >= 0 {
			b.Arms[idx].Plane = op.Plane
		}
		return nil

	case topology.KindChangeConnection,
		topology.KindChangeArmBurgers,
		topology.KindInsertArm,
		topology.KindRemoveNode,
		topology.KindSplitNode:
		// Applied by the topology-change layer that owns these algorithms.
		return nil
	}
	return errors.E(errors.CodeUnknownOpKind, "op kind %q", op.Kind)
}

// resolveEndpoint resolves a record endpoint on the receiving domain.
// Local protocol violations stay fatal; remote misses surface as a nil
// node so the caller skips the record.
func resolveEndpoint(d *sim.Domain, tag network.Tag) (*network.Node, error) {
	if !tag.Valid() {
		return nil, nil
	}
	return d.Directory.Resolve(tag)
}
