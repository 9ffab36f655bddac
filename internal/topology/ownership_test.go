package topology

import (
	"testing"

	"github.com/latticeworks/dislocnet/internal/errors"
)

func TestOwnsSegmentSameDomain(t *testing.T) {
	for _, class := range []OpClass{ClassSeparation, ClassCollision, ClassRemesh} {
		for cycle := 0; cycle < 2; cycle++ {
			owns, err := OwnsSegment(class, 4, 4, cycle)
			if err != nil {
				t.Fatalf("%s cycle %d: %v", class, cycle, err)
			}
			if !owns {
				t.Fatalf("%s cycle %d: same-domain segment must be owned", class, cycle)
			}
		}
	}
}

func TestOwnsSegmentSymmetry(t *testing.T) {
	domains := []int{0, 1, 2, 3, 7, 15}
	for _, class := range []OpClass{ClassSeparation, ClassCollision, ClassRemesh} {
		for _, a := range domains {
			for _, b := range domains {
				if a == b {
					continue
				}
				for cycle := 0; cycle < 4; cycle++ {
					ownsA, err := OwnsSegment(class, a, b, cycle)
					if err != nil {
						t.Fatalf("OwnsSegment(%s,%d,%d,%d): %v", class, a, b, cycle, err)
					}
					ownsB, err := OwnsSegment(class, b, a, cycle)
					if err != nil {
						t.Fatalf("OwnsSegment(%s,%d,%d,%d): %v", class, b, a, cycle, err)
					}
					if ownsA == ownsB {
						t.Fatalf("%s domains (%d,%d) cycle %d: exactly one side must own", class, a, b, cycle)
					}
				}
			}
		}
	}
}

func TestOwnsSegmentPolarity(t *testing.T) {
	cases := []struct {
		class OpClass
		cycle int
		owner int
	}{
		{ClassCollision, 4, 3},  // even cycle: lower domain
		{ClassCollision, 5, 7},  // odd cycle: higher domain
		{ClassSeparation, 4, 3}, // same polarity as collision
		{ClassSeparation, 5, 7},
		{ClassRemesh, 4, 7}, // exact opposite polarity
		{ClassRemesh, 5, 3},
	}
	for _, tc := range cases {
		owns3, err := OwnsSegment(tc.class, 3, 7, tc.cycle)
		if err != nil {
			t.Fatalf("%s cycle %d: %v", tc.class, tc.cycle, err)
		}
		if got := map[bool]int{true: 3, false: 7}[owns3]; got != tc.owner {
			t.Fatalf("%s cycle %d: expected owner %d, got %d", tc.class, tc.cycle, tc.owner, got)
		}
	}
}

func TestOwnsSegmentUnknownClassIsFatal(t *testing.T) {
	_, err := OwnsSegment(OpClass("annihilation"), 1, 2, 0)
	if err == nil {
		t.Fatal("expected error for unknown op class")
	}
	if !errors.IsFatal(err) || errors.CodeOf(err) != errors.CodeUnknownOpClass {
		t.Fatalf("expected fatal CodeUnknownOpClass, got %v", err)
	}
}
