package network

import (
	"fmt"
	"io"

	"github.com/latticeworks/dislocnet/internal/geometry"
)

// Flag is a node status bitmask.
type Flag uint32

const (
	// FlagResetForces marks a node whose force and velocity are stale and
	// must be recomputed before they are trusted again.
	FlagResetForces Flag = 1 << iota
)

// Arm is one directed connection record from a node to a neighbor. Arm
// slots are not compacted on removal: a slot whose neighbor tag is NoTag is
// a tombstone, and live traversals skip it.
type Arm struct {
	Neighbor Tag
	Burgers  geometry.Vec3
	Plane    geometry.Vec3
	Force    geometry.Vec3
}

// Live reports whether the arm slot holds a live connection.
func (a Arm) Live() bool {
	return a.Neighbor.Valid()
}

// Node is one vertex of the line-defect graph. Segments are represented
// symmetrically: if this node lists a neighbor at some arm slot, the
// neighbor lists this node at some (possibly different) slot of its own.
type Node struct {
	Tag   Tag
	Pos   geometry.Vec3
	Vel   geometry.Vec3
	Force geometry.Vec3
	Flags Flag
	Arms  []Arm
}

// AddArm records a connection to neighbor, reusing the first tombstoned slot
// if one exists, and returns the slot index.
func (n *Node) AddArm(neighbor Tag, burgers, plane geometry.Vec3) int {
	arm := Arm{Neighbor: neighbor, Burgers: burgers, Plane: plane}
	for i := range n.Arms {
		if !n.Arms[i].Live() {
			n.Arms[i] = arm
			return i
		}
	}
	n.Arms = append(n.Arms, arm)
	return len(n.Arms) - 1
}

// RemoveArm tombstones the arm slot at index i. The slot stays in place so
// concurrent iteration indexes remain stable; live traversals skip it.
func (n *Node) RemoveArm(i int) {
	if i < 0 || i >= len(n.Arms) {
		return
	}
	n.Arms[i] = Arm{Neighbor: NoTag}
}

// ArmTo returns the index of the first live arm pointing at tag, or -1.
func (n *Node) ArmTo(tag Tag) int {
	for i := range n.Arms {
		if n.Arms[i].Live() && n.Arms[i].Neighbor == tag {
			return i
		}
	}
	return -1
}

// LiveArms counts the live (non-tombstoned) arm slots.
func (n *Node) LiveArms() int {
	count := 0
	for i := range n.Arms {
		if n.Arms[i].Live() {
			count++
		}
	}
	return count
}

// RecomputeForce resets the node's accumulated force to the vector sum of
// its live arms' contributions. The total is always recomputed, never
// incrementally adjusted.
func (n *Node) RecomputeForce() {
	total := geometry.Vec3{}
	for i := range n.Arms {
		if n.Arms[i].Live() {
			total = total.Add(n.Arms[i].Force)
		}
	}
	n.Force = total
}

// Dump writes the node's full state to w for debugging. The format is a
// human-readable diagnostic, not a machine contract.
func (n *Node) Dump(w io.Writer) {
	if n == nil {
		return
	}
	fmt.Fprintf(w, "node%s arms %d:", n.Tag, len(n.Arms))
	for i := range n.Arms {
		fmt.Fprintf(w, " %s", n.Arms[i].Neighbor)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "node%s position = (%.15e %.15e %.15e)\n", n.Tag, n.Pos.X, n.Pos.Y, n.Pos.Z)
	fmt.Fprintf(w, "node%s v = (%.15e %.15e %.15e)\n", n.Tag, n.Vel.X, n.Vel.Y, n.Vel.Z)
	fmt.Fprintf(w, "node%s f = (%.15e %.15e %.15e)\n", n.Tag, n.Force.X, n.Force.Y, n.Force.Z)
	for i := range n.Arms {
		a := &n.Arms[i]
		fmt.Fprintf(w, "node%s arm[%d] -> %s f = (%.15e %.15e %.15e)\n", n.Tag, i, a.Neighbor, a.Force.X, a.Force.Y, a.Force.Z)
	}
	for i := range n.Arms {
		a := &n.Arms[i]
		fmt.Fprintf(w, "node%s arm[%d] -> %s b = (%.15e %.15e %.15e)\n", n.Tag, i, a.Neighbor, a.Burgers.X, a.Burgers.Y, a.Burgers.Z)
	}
	for i := range n.Arms {
		a := &n.Arms[i]
		fmt.Fprintf(w, "node%s arm[%d] -> %s n = (%.15e %.15e %.15e)\n", n.Tag, i, a.Neighbor, a.Plane.X, a.Plane.Y, a.Plane.Z)
	}
}
