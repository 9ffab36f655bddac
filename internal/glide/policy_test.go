package glide

import (
	"math"
	"testing"

	"github.com/latticeworks/dislocnet/internal/geometry"
)

func TestPrecisePlanePerpendicularToSegment(t *testing.T) {
	policy := Default()
	b := geometry.Vec3{X: 1, Y: 1, Z: 0}
	line := geometry.Vec3{X: 0, Y: 0, Z: 1}

	plane := policy.PrecisePlane(b, line)
	if math.Abs(plane.Dot(b)) > 1e-12 || math.Abs(plane.Dot(line)) > 1e-12 {
		t.Fatalf("plane %+v not perpendicular to burgers and line", plane)
	}
	if plane.Norm2() == 0 {
		t.Fatal("expected nonzero plane for mixed segment")
	}
}

func TestPrecisePlaneDegeneratesForScrew(t *testing.T) {
	policy := Default()
	b := geometry.Vec3{X: 1, Y: 1, Z: 1}
	line := b.Normalized()

	plane := policy.PrecisePlane(b, line)
	if plane.Norm2() > 1e-3 {
		t.Fatalf("expected degenerate plane for screw segment, got |n|^2=%g", plane.Norm2())
	}
}

func TestScrewPlaneContainsBurgersVector(t *testing.T) {
	policy := Default()
	for _, b := range []geometry.Vec3{
		{X: 1, Y: 1, Z: 1},
		{X: 1},
		{Y: -2, Z: 1},
		{X: 0.5, Y: 0.5},
	} {
		plane := policy.ScrewPlane(b)
		if plane.Norm2() == 0 {
			t.Fatalf("expected nonzero screw plane for b=%+v", b)
		}
		if math.Abs(plane.Dot(b)) > 1e-12 {
			t.Fatalf("screw plane %+v does not contain b=%+v", plane, b)
		}
		// Deterministic: the same input always picks the same plane.
		if plane != policy.ScrewPlane(b) {
			t.Fatal("expected deterministic screw plane")
		}
	}
}
