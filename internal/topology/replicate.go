package topology

import (
	"github.com/latticeworks/dislocnet/internal/geometry"
	"github.com/latticeworks/dislocnet/internal/glide"
	"github.com/latticeworks/dislocnet/internal/network"
)

// screwThreshold2 is the squared plane magnitude below which a precise
// glide-plane candidate is considered degenerate (screw segment).
const screwThreshold2 = 1e-3

// Mutator applies replication operations to local node state. Mutations
// that must be known elsewhere never touch remote memory: they append a
// record to the domain's own operation log, and the cycle-boundary exchange
// delivers it to the owners of the remote replicas.
type Mutator struct {
	Domain int
	Box    geometry.Box
	Dir    *network.Directory
	Log    *Log
	Glide  glide.Policy
}

// ResetSegmentForce overwrites the per-arm force on nodeA's arm terminating
// at neighbor, then recomputes nodeA's total force from all live arms and
// flags the node for downstream force-reset bookkeeping. A scan miss (no
// arm at neighbor) leaves the arm forces alone but still re-sums the total.
//
// When global is set the update is also enqueued for remote domains holding
// a replica of the segment.
func (m *Mutator) ResetSegmentForce(nodeA *network.Node, neighbor network.Tag, force geometry.Vec3, global bool) {
	if nodeA == nil {
		return
	}

	if global {
		// The segment force travels in the record's position slot; the
		// Burgers and plane slots stay zero for this kind.
		m.Log.Append(Operation{
			Kind: KindResetSegForces,
			Tags: [3]network.Tag{nodeA.Tag, neighbor, network.NoTag},
			Pos:  force,
		})
	}

	if idx := nodeA.ArmTo(neighbor); idx >= 0 {
		nodeA.Arms[idx].Force = force
	}
	nodeA.RecomputeForce()
	nodeA.Flags |= network.FlagResetForces
}

// MarkForceObsolete flags a node's force and velocity as stale. For a node
// owned by a remote domain, the flag on the local replica is paired with a
// log record instructing the owner to recompute; the local cache is never
// treated as a write-through path to remote state.
func (m *Mutator) MarkForceObsolete(node *network.Node) {
	if node == nil {
		return
	}
	node.Flags |= network.FlagResetForces

	if node.Tag.Domain == m.Domain {
		return
	}
	m.Log.Append(Operation{
		Kind: KindMarkForcesObsolete,
		Tags: [3]network.Tag{node.Tag, network.NoTag, network.NoTag},
	})
}

// RecalcGlidePlane recomputes the glide plane of the segment between a and
// b and writes it symmetrically to both endpoints' arm records. It is a
// no-op when the nodes are identical, either is absent, or they are not
// connected — all legitimate transient states after topology edits.
//
// The plane comes from the precise policy applied to the arm's Burgers
// vector and the minimum-image line direction a→b. If the candidate
// degenerates the segment is screw: with ignoreIfScrew set the existing
// plane is left untouched, otherwise the screw policy picks a substitute.
// The plane that is kept is normalized before being written.
func (m *Mutator) RecalcGlidePlane(a, b *network.Node, ignoreIfScrew bool) {
	if a == nil || b == nil || a == b {
		return
	}

	ok, armA := network.Connected(a, b)
	if !ok {
		return
	}
	armB, ok := network.ArmIndex(b, a)
	if !ok {
		return
	}

	burgers := a.Arms[armA].Burgers
	lineDir := m.Box.MinimumImage(b.Pos.Sub(a.Pos)).Normalized()

	plane := m.Glide.PrecisePlane(burgers, lineDir)
	if plane.Norm2() < screwThreshold2 {
		if ignoreIfScrew {
			return
		}
		plane = m.Glide.ScrewPlane(burgers)
	}
	plane = plane.Normalized()

	a.Arms[armA].Plane = plane
	b.Arms[armB].Plane = plane
}
