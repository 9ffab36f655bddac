package network

import (
	"github.com/latticeworks/dislocnet/internal/errors"
)

// slotState distinguishes a slot that was never assigned from one whose
// node has been removed. The distinction matters to Resolve: a removed
// in-range index is still an issued address the domain must answer for.
type slotState uint8

const (
	slotEmpty slotState = iota
	slotLive
	slotRemoved
)

type slot struct {
	state slotState
	node  *Node
}

// Arena is a domain's authoritative node table: a dense growable store of
// node slots indexed by Tag.Index. A domain has complete knowledge of every
// address it has ever issued, for as long as the node exists; removed slots
// become tombstones and their indexes are recycled for later nodes.
type Arena struct {
	domain int
	slots  []slot
	free   []int
}

// NewArena creates an empty arena for the given domain.
func NewArena(domain int) *Arena {
	return &Arena{domain: domain}
}

// Domain returns the domain this arena issues addresses for.
func (a *Arena) Domain() int {
	return a.domain
}

// NewNode allocates a node with a fresh (or recycled) local address.
func (a *Arena) NewNode() *Node {
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = len(a.slots)
		a.slots = append(a.slots, slot{})
	}
	node := &Node{Tag: Tag{Domain: a.domain, Index: idx}}
	a.slots[idx] = slot{state: slotLive, node: node}
	return node
}

// Get returns the live node at index, or nil if the slot is removed or was
// never assigned.
func (a *Arena) Get(index int) *Node {
	if index < 0 || index >= len(a.slots) {
		return nil
	}
	s := a.slots[index]
	if s.state != slotLive {
		return nil
	}
	return s.node
}

// Remove tombstones the node at index and recycles its address. Removing a
// slot that is not live is an invariant violation.
func (a *Arena) Remove(index int) error {
	if index < 0 || index >= len(a.slots) || a.slots[index].state != slotLive {
		return errors.E(errors.CodeInvalidTag, "remove of non-live slot %d in domain %d", index, a.domain)
	}
	a.slots[index] = slot{state: slotRemoved}
	a.free = append(a.free, index)
	return nil
}

// MaxIndex returns the first index the arena has never issued. Every issued
// address lies in [0, MaxIndex).
func (a *Arena) MaxIndex() int {
	return len(a.slots)
}

// Live counts the live nodes.
func (a *Arena) Live() int {
	count := 0
	for i := range a.slots {
		if a.slots[i].state == slotLive {
			count++
		}
	}
	return count
}

// Load rebuilds the arena from a checkpoint snapshot of live nodes. The
// arena must be empty. Indexes absent from the snapshot but below the
// highest present index become tombstones, so recycled addressing resumes
// exactly where the checkpointed run left off.
func (a *Arena) Load(nodes []Node) error {
	if len(a.slots) != 0 {
		return errors.E(errors.CodeInvalidTag, "load into non-empty arena for domain %d", a.domain)
	}
	maxIdx := -1
	for i := range nodes {
		tag := nodes[i].Tag
		if tag.Domain != a.domain || tag.Index < 0 {
			return errors.E(errors.CodeInvalidTag, "snapshot node %s does not belong to domain %d", tag, a.domain)
		}
		if tag.Index > maxIdx {
			maxIdx = tag.Index
		}
	}
	a.slots = make([]slot, maxIdx+1)
	for i := range nodes {
		idx := nodes[i].Tag.Index
		if a.slots[idx].state == slotLive {
			return errors.E(errors.CodeInvalidTag, "duplicate snapshot index %d in domain %d", idx, a.domain)
		}
		node := nodes[i]
		node.Arms = append([]Arm(nil), nodes[i].Arms...)
		a.slots[idx] = slot{state: slotLive, node: &node}
	}
	for idx := range a.slots {
		if a.slots[idx].state == slotEmpty {
			a.slots[idx] = slot{state: slotRemoved}
			a.free = append(a.free, idx)
		}
	}
	return nil
}

// Walk visits every live node in index order. The traversal skips
// tombstoned and never-assigned slots. Returning false stops the walk.
func (a *Arena) Walk(visit func(*Node) bool) {
	for i := range a.slots {
		if a.slots[i].state != slotLive {
			continue
		}
		if !visit(a.slots[i].node) {
			return
		}
	}
}
