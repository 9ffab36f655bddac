// Package glide chooses glide-plane normals for line-defect segments.
//
// The replication layer treats plane selection as a swappable policy: the
// precise rule derives a candidate from the Burgers vector and the segment
// line direction, and a separate rule picks a plane for screw segments,
// whose precise candidate degenerates because the line direction is
// collinear with the Burgers vector.
package glide

import (
	"math"

	"github.com/latticeworks/dislocnet/internal/geometry"
)

// Policy selects glide-plane normals. Candidates may be returned
// unnormalized; callers decide degeneracy from the squared magnitude and
// normalize the plane they keep.
type Policy interface {
	// PrecisePlane returns the plane candidate for a segment with the given
	// Burgers vector and unit line direction. Near-zero output means the
	// segment is screw.
	PrecisePlane(burgers, lineDir geometry.Vec3) geometry.Vec3

	// ScrewPlane returns a plane containing the Burgers vector, for
	// segments whose precise candidate degenerated.
	ScrewPlane(burgers geometry.Vec3) geometry.Vec3
}

// CrossProductPolicy is the default policy: the precise plane is b × t, and
// the screw fallback crosses b with the coordinate axis it is least aligned
// with. Both rules are deterministic, so every domain that evaluates them
// for the same segment reaches the same plane without communication.
type CrossProductPolicy struct{}

// Default returns the policy used when no material-specific policy is
// injected.
func Default() Policy {
	return CrossProductPolicy{}
}

// PrecisePlane returns burgers × lineDir, unnormalized.
func (CrossProductPolicy) PrecisePlane(burgers, lineDir geometry.Vec3) geometry.Vec3 {
	return geometry.Cross(burgers, lineDir)
}

// ScrewPlane returns a plane perpendicular to the axis least aligned with
// the Burgers vector. The result is nonzero for any nonzero Burgers vector
// and contains the Burgers vector by construction.
func (CrossProductPolicy) ScrewPlane(burgers geometry.Vec3) geometry.Vec3 {
	axis := geometry.Vec3{X: 1}
	least := math.Abs(burgers.X)
	if math.Abs(burgers.Y) < least {
		axis = geometry.Vec3{Y: 1}
		least = math.Abs(burgers.Y)
	}
	if math.Abs(burgers.Z) < least {
		axis = geometry.Vec3{Z: 1}
	}
	return geometry.Cross(burgers, axis)
}
