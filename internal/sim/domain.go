// Package sim assembles the per-domain simulation context: the box
// geometry, the cycle counter, the local node arena and remote replica
// caches, the operation log, and the replication mutator, all threaded
// explicitly through every call rather than living in ambient state.
package sim

import (
	"io"

	"github.com/latticeworks/dislocnet/internal/errors"
	"github.com/latticeworks/dislocnet/internal/geometry"
	"github.com/latticeworks/dislocnet/internal/glide"
	"github.com/latticeworks/dislocnet/internal/network"
	"github.com/latticeworks/dislocnet/internal/topology"
)

// Options configures a Domain.
type Options struct {
	// Rank is this domain's id within the cooperating job.
	Rank int
	// Box is the simulation cell shared by every domain.
	Box geometry.Box
	// BlockSize overrides the operation log growth quantum.
	BlockSize int
	// Glide overrides the glide-plane policy.
	Glide glide.Policy
	// Sink receives diagnostics; defaults to stderr.
	Sink io.Writer
	// Terminator performs the collective abort on fatal errors; defaults
	// to process termination.
	Terminator errors.Terminator
}

// Domain is one compute partition's view of the shared graph and the
// machinery that keeps it consistent with the other partitions. All state
// is exclusively owned: no other domain ever mutates it directly, so no
// locking is needed within a domain.
type Domain struct {
	Rank      int
	Box       geometry.Box
	Arena     *network.Arena
	Directory *network.Directory
	Log       *topology.Log
	Mutator   *topology.Mutator

	cycle int
	term  errors.Terminator
}

// New builds a Domain from options.
func New(opts Options) *Domain {
	arena := network.NewArena(opts.Rank)
	dir := network.NewDirectory(arena, opts.Sink)
	log := topology.NewLog(opts.BlockSize)
	policy := opts.Glide
	if policy == nil {
		policy = glide.Default()
	}
	term := opts.Terminator
	if term == nil {
		term = &errors.ProcessTerminator{}
	}
	d := &Domain{
		Rank:      opts.Rank,
		Box:       opts.Box,
		Arena:     arena,
		Directory: dir,
		Log:       log,
		term:      term,
	}
	d.Mutator = &topology.Mutator{
		Domain: opts.Rank,
		Box:    opts.Box,
		Dir:    dir,
		Log:    log,
		Glide:  policy,
	}
	return d
}

// Cycle returns the current cycle counter. The counter is owned by the
// outer driver and read by ownership arbitration; its parity must agree
// across every cooperating domain.
func (d *Domain) Cycle() int {
	return d.cycle
}

// SetCycle aligns the domain with the driver's cycle counter.
func (d *Domain) SetCycle(cycle int) {
	d.cycle = cycle
}

// AdvanceCycle steps the counter once and clears the operation log for the
// new cycle. The log must have been drained (exchanged) first.
func (d *Domain) AdvanceCycle() {
	d.cycle++
	d.Log.Clear()
}

// OwnsSegment arbitrates ownership of a segment shared with remoteDomain
// for the current cycle. An unknown operation class is a caller bug and
// escalates to the collective abort.
func (d *Domain) OwnsSegment(class topology.OpClass, remoteDomain int) bool {
	owns, err := topology.OwnsSegment(class, d.Rank, remoteDomain, d.cycle)
	if err != nil {
		d.term.Abort(err)
	}
	return owns
}

// Resolve maps a tag to node state, escalating protocol violations to the
// collective abort. An expected remote miss returns nil.
func (d *Domain) Resolve(tag network.Tag) *network.Node {
	node, err := d.Directory.Resolve(tag)
	if err != nil {
		d.term.Abort(err)
		return nil
	}
	return node
}

// Abort escalates a fatal error to the injected terminator.
func (d *Domain) Abort(err error) {
	d.term.Abort(err)
}

// InsertSegment connects two local nodes symmetrically: the half-arm from b
// back to a carries the negated Burgers vector, so the segment is
// represented on both endpoints and the per-node Burgers balance is
// preserved.
func (d *Domain) InsertSegment(a, b *network.Node, burgers, plane geometry.Vec3) {
	if a == nil || b == nil || a == b {
		return
	}
	a.AddArm(b.Tag, burgers, plane)
	b.AddArm(a.Tag, burgers.Neg(), plane)
}

// Snapshot copies the live node table for checkpointing. Arm slices are
// deep-copied so later topology edits do not alias the snapshot.
func (d *Domain) Snapshot() []network.Node {
	var nodes []network.Node
	d.Arena.Walk(func(n *network.Node) bool {
		copyNode := *n
		copyNode.Arms = append([]network.Arm(nil), n.Arms...)
		nodes = append(nodes, copyNode)
		return true
	})
	return nodes
}

// Restore rebuilds the node table from a checkpoint snapshot.
func (d *Domain) Restore(nodes []network.Node) error {
	return d.Arena.Load(nodes)
}

// RemoveSegment tombstones both half-arms of the segment between a and b.
// Missing half-arms are tolerated: partial removal states occur while a
// remote operation is in flight.
func (d *Domain) RemoveSegment(a, b *network.Node) {
	if a == nil || b == nil {
		return
	}
	if idx := a.ArmTo(b.Tag); idx >= 0 {
		a.RemoveArm(idx)
	}
	if idx := b.ArmTo(a.Tag); idx >= 0 {
		b.RemoveArm(idx)
	}
}
