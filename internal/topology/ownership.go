// Package topology provides the cross-domain consistency protocol for
// topological changes: the deterministic ownership rule for
// boundary-crossing segments, the per-cycle operation log that carries
// pending mutations to remote owners, and the replication mutators that
// update local node state and enqueue the matching log records.
package topology

import (
	"github.com/latticeworks/dislocnet/internal/errors"
)

// OpClass is the category of topological change whose ownership polarity is
// being arbitrated.
type OpClass string

const (
	// ClassSeparation arbitrates node-separation handling.
	ClassSeparation OpClass = "separation"
	// ClassCollision arbitrates collision handling.
	ClassCollision OpClass = "collision"
	// ClassRemesh arbitrates remesh operations, with the exact opposite
	// polarity of separation and collision handling.
	ClassRemesh OpClass = "remesh"
)

// OwnsSegment decides whether thisDomain owns the boundary-crossing segment
// it shares with remoteDomain during the given cycle. The decision is pure:
// both endpoint domains evaluate it independently from the same inputs and
// reach complementary answers, so no negotiation round trip is ever needed.
//
// A segment with both endpoints in one domain is always owned by that
// domain. Across a boundary, separation and collision handling assign the
// segment to the lower-numbered domain on even cycles and the
// higher-numbered domain on odd cycles; remesh uses the opposite polarity.
// An unrecognized class is a caller bug and returns a fatal-classified
// error.
func OwnsSegment(class OpClass, thisDomain, remoteDomain, cycle int) (bool, error) {
	if thisDomain == remoteDomain {
		return true, nil
	}

	odd := cycle&1 == 1
	switch class {
	case ClassSeparation, ClassCollision:
		if odd {
			return thisDomain > remoteDomain, nil
		}
		return thisDomain < remoteDomain, nil
	case ClassRemesh:
		if odd {
			return thisDomain < remoteDomain, nil
		}
		return thisDomain > remoteDomain, nil
	}
	return false, errors.E(errors.CodeUnknownOpClass, "op class %q", class)
}
