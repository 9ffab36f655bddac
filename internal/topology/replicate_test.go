package topology

import (
	"bytes"
	"math"
	"testing"

	"github.com/latticeworks/dislocnet/internal/geometry"
	"github.com/latticeworks/dislocnet/internal/glide"
	"github.com/latticeworks/dislocnet/internal/network"
)

func newTestMutator(t *testing.T, domain int) (*Mutator, *network.Arena) {
	t.Helper()
	box, err := geometry.NewBox(
		geometry.Vec3{X: -500, Y: -500, Z: -500},
		geometry.Vec3{X: 500, Y: 500, Z: 500},
		true, true, true,
	)
	if err != nil {
		t.Fatalf("new box: %v", err)
	}
	arena := network.NewArena(domain)
	return &Mutator{
		Domain: domain,
		Box:    box,
		Dir:    network.NewDirectory(arena, &bytes.Buffer{}),
		Log:    NewLog(16),
		Glide:  glide.Default(),
	}, arena
}

// connect inserts the segment a-b symmetrically with opposite Burgers
// vectors on the two half-arms.
func connect(a, b *network.Node, burgers, plane geometry.Vec3) {
	a.AddArm(b.Tag, burgers, plane)
	b.AddArm(a.Tag, burgers.Neg(), plane)
}

func TestResetSegmentForceLocal(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	c := arena.NewNode()
	connect(a, b, geometry.Vec3{X: 1}, geometry.Vec3{Z: 1})
	connect(a, c, geometry.Vec3{Y: 1}, geometry.Vec3{Z: 1})
	a.Arms[1].Force = geometry.Vec3{X: 5}

	force := geometry.Vec3{X: 1, Y: 2, Z: 3}
	m.ResetSegmentForce(a, b.Tag, force, false)

	if a.Arms[0].Force != force {
		t.Fatalf("expected arm force overwritten, got %+v", a.Arms[0].Force)
	}
	want := force.Add(geometry.Vec3{X: 5})
	if a.Force != want {
		t.Fatalf("expected total force %+v, got %+v", want, a.Force)
	}
	if a.Flags&network.FlagResetForces == 0 {
		t.Fatal("expected reset-forces flag set")
	}
	if m.Log.Len() != 0 {
		t.Fatalf("local-only reset must not enqueue, got %d records", m.Log.Len())
	}
}

func TestResetSegmentForceGlobalEnqueues(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	remote := network.Tag{Domain: 2, Index: 9}
	a.AddArm(remote, geometry.Vec3{X: 1}, geometry.Vec3{Z: 1})

	force := geometry.Vec3{X: -1, Y: 0, Z: 4}
	m.ResetSegmentForce(a, remote, force, true)

	if m.Log.Len() != 1 {
		t.Fatalf("expected 1 queued record, got %d", m.Log.Len())
	}
	op := m.Log.Ops()[0]
	if op.Kind != KindResetSegForces {
		t.Fatalf("expected reset_seg_forces record, got %s", op.Kind)
	}
	if op.Tags[0] != a.Tag || op.Tags[1] != remote || op.Tags[2] != network.NoTag {
		t.Fatalf("unexpected endpoints %v", op.Tags)
	}
	if op.Pos != force {
		t.Fatalf("expected force in position slot, got %+v", op.Pos)
	}
}

func TestResetSegmentForceScanMissTolerated(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	connect(a, b, geometry.Vec3{X: 1}, geometry.Vec3{Z: 1})
	a.Arms[0].Force = geometry.Vec3{X: 7}

	m.ResetSegmentForce(a, network.Tag{Domain: 4, Index: 4}, geometry.Vec3{X: 99}, false)

	if a.Arms[0].Force != (geometry.Vec3{X: 7}) {
		t.Fatalf("expected unrelated arm force untouched, got %+v", a.Arms[0].Force)
	}
	if a.Force != (geometry.Vec3{X: 7}) {
		t.Fatalf("expected total re-summed from live arms, got %+v", a.Force)
	}
}

func TestMarkForceObsoleteLocal(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	node := arena.NewNode()

	m.MarkForceObsolete(node)

	if node.Flags&network.FlagResetForces == 0 {
		t.Fatal("expected stale flag set")
	}
	if m.Log.Len() != 0 {
		t.Fatalf("locally owned node must not enqueue, got %d", m.Log.Len())
	}
}

func TestMarkForceObsoleteRemoteEnqueues(t *testing.T) {
	m, _ := newTestMutator(t, 0)
	replica := &network.Node{Tag: network.Tag{Domain: 6, Index: 1}}
	m.Dir.Remote(6).Put(replica)

	m.MarkForceObsolete(replica)

	if replica.Flags&network.FlagResetForces == 0 {
		t.Fatal("expected stale flag on local replica")
	}
	if m.Log.Len() != 1 {
		t.Fatalf("expected 1 queued record, got %d", m.Log.Len())
	}
	op := m.Log.Ops()[0]
	if op.Kind != KindMarkForcesObsolete || op.Tags[0] != replica.Tag {
		t.Fatalf("unexpected record %+v", op)
	}
	if op.Tags[1] != network.NoTag || op.Burgers != (geometry.Vec3{}) {
		t.Fatalf("expected unused fields empty, got %+v", op)
	}
}

func TestRecalcGlidePlaneNoOps(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	// Not connected, same node, nil node: all legitimate transient states,
	// all silently tolerated.
	m.RecalcGlidePlane(a, b, false)
	m.RecalcGlidePlane(a, a, false)
	m.RecalcGlidePlane(nil, b, false)
	if len(a.Arms) != 0 || len(b.Arms) != 0 {
		t.Fatal("expected no mutation")
	}
}

func TestRecalcGlidePlaneMixedSegment(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	a.Pos = geometry.Vec3{}
	b.Pos = geometry.Vec3{Z: 10}
	connect(a, b, geometry.Vec3{X: 1, Y: 1}, geometry.Vec3{})

	m.RecalcGlidePlane(a, b, false)

	plane := a.Arms[0].Plane
	if math.Abs(plane.Norm()-1) > 1e-12 {
		t.Fatalf("expected unit plane, got |n|=%g", plane.Norm())
	}
	if math.Abs(plane.Dot(geometry.Vec3{X: 1, Y: 1})) > 1e-12 {
		t.Fatalf("plane %+v not perpendicular to burgers", plane)
	}
	// Written symmetrically to both endpoints.
	if b.Arms[0].Plane != plane {
		t.Fatalf("expected symmetric plane, got %+v vs %+v", plane, b.Arms[0].Plane)
	}
}

func TestRecalcGlidePlaneUsesMinimumImage(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	// Across the periodic boundary: the naive separation is +960 in z, the
	// minimum image is -40.
	a.Pos = geometry.Vec3{Z: -480}
	b.Pos = geometry.Vec3{Z: 480}
	connect(a, b, geometry.Vec3{X: 1}, geometry.Vec3{})

	m.RecalcGlidePlane(a, b, false)

	// Line direction is ±z either way; the plane must be perpendicular to
	// both burgers (x) and the line (z).
	plane := a.Arms[0].Plane
	if math.Abs(math.Abs(plane.Y)-1) > 1e-12 {
		t.Fatalf("expected plane along ±y, got %+v", plane)
	}
}

func TestRecalcGlidePlaneScrewFallback(t *testing.T) {
	m, arena := newTestMutator(t, 0)
	a := arena.NewNode()
	b := arena.NewNode()
	a.Pos = geometry.Vec3{}
	b.Pos = geometry.Vec3{X: 10, Y: 10, Z: 10}
	// Burgers parallel to the line: screw segment.
	before := geometry.Vec3{X: 0.1, Y: 0.2, Z: 0.3}
	connect(a, b, geometry.Vec3{X: 1, Y: 1, Z: 1}, before)

	// ignoreIfScrew: the existing plane stays exactly as it was.
	m.RecalcGlidePlane(a, b, true)
	if a.Arms[0].Plane != before || b.Arms[0].Plane != before {
		t.Fatalf("expected planes untouched, got %+v / %+v", a.Arms[0].Plane, b.Arms[0].Plane)
	}

	// Without the toggle, the screw policy substitutes a unit plane that
	// differs from the near-zero precise candidate.
	m.RecalcGlidePlane(a, b, false)
	plane := a.Arms[0].Plane
	if plane == before {
		t.Fatal("expected screw fallback to replace the plane")
	}
	if math.Abs(plane.Norm()-1) > 1e-12 {
		t.Fatalf("expected unit plane, got |n|=%g", plane.Norm())
	}
	if math.Abs(plane.Dot(geometry.Vec3{X: 1, Y: 1, Z: 1})) > 1e-9 {
		t.Fatalf("screw plane %+v must contain the burgers vector", plane)
	}
	if b.Arms[0].Plane != plane {
		t.Fatal("expected symmetric screw plane")
	}
}
