package topology

import (
	"github.com/latticeworks/dislocnet/internal/geometry"
	"github.com/latticeworks/dislocnet/internal/network"
)

// Kind identifies the topological mutation an Operation carries.
type Kind string

const (
	// KindResetSegForces overwrites the per-arm force of one segment on
	// every replica and re-sums the endpoint's total force.
	KindResetSegForces Kind = "reset_seg_forces"
	// KindMarkForcesObsolete tells the owning domain that a node's force
	// and velocity must be recomputed.
	KindMarkForcesObsolete Kind = "mark_forces_obsolete"
	// KindResetCoord overwrites a node's position.
	KindResetCoord Kind = "reset_coord"
	// KindResetGlidePlane overwrites the glide plane of one segment on both
	// endpoint arms.
	KindResetGlidePlane Kind = "reset_glide_plane"

	// The remaining kinds complete the wire vocabulary for the topology
	// algorithms layered above this core; their application logic lives
	// with those algorithms.

	// KindChangeConnection redirects an arm to a different neighbor.
	KindChangeConnection Kind = "change_connection"
	// KindChangeArmBurgers rewrites an arm's Burgers vector.
	KindChangeArmBurgers Kind = "change_arm_burgers"
	// KindInsertArm adds an arm between two nodes.
	KindInsertArm Kind = "insert_arm"
	// KindRemoveNode deletes a node and its arms.
	KindRemoveNode Kind = "remove_node"
	// KindSplitNode splits a node, moving part of its arms to a new node.
	KindSplitNode Kind = "split_node"
)

// Operation is an immutable record of a pending topological mutation
// addressed to remote domains. It is written once, exchanged once at the
// cycle boundary, applied by the receiver, and discarded.
//
// Up to three endpoints participate; unused endpoint slots carry
// network.NoTag and unused vectors are zero-filled.
type Operation struct {
	Kind    Kind
	Tags    [3]network.Tag
	Burgers geometry.Vec3
	Pos     geometry.Vec3
	Plane   geometry.Vec3
}

// DefaultBlockSize is the log growth quantum when none is configured.
const DefaultBlockSize = 1024

// Log is a domain's append-only sequence of pending cross-domain
// operations, scoped to one simulation cycle. The backing store grows in
// fixed-size blocks rather than doubling: in a long-running job,
// predictable memory growth is worth more than amortized-growth overhead.
// Clearing retains capacity across cycles.
type Log struct {
	ops   []Operation
	count int
	block int
}

// NewLog allocates a log with one block of capacity up front.
func NewLog(blockSize int) *Log {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Log{
		ops:   make([]Operation, blockSize),
		block: blockSize,
	}
}

// Append adds a record, growing the backing store by exactly one block when
// it is at capacity.
func (l *Log) Append(op Operation) {
	if l.count == len(l.ops) {
		grown := make([]Operation, len(l.ops)+l.block)
		copy(grown, l.ops)
		l.ops = grown
	}
	l.ops[l.count] = op
	l.count++
}

// Ops returns a view of the pending records in append order. The view is
// invalidated by Append and Clear.
func (l *Log) Ops() []Operation {
	return l.ops[:l.count]
}

// Len returns the number of pending records.
func (l *Log) Len() int {
	return l.count
}

// Cap returns the current backing capacity in records.
func (l *Log) Cap() int {
	return len(l.ops)
}

// Clear resets the count and zero-fills the backing store, keeping the
// capacity for the next cycle.
func (l *Log) Clear() {
	clear(l.ops)
	l.count = 0
}

// Release drops the backing store. The log must be re-created before reuse;
// in practice this runs once at process shutdown.
func (l *Log) Release() {
	l.ops = nil
	l.count = 0
}
