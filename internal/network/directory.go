package network

import (
	"fmt"
	"io"
	"os"

	"github.com/latticeworks/dislocnet/internal/errors"
)

// Directory resolves global node addresses against a domain's local arena
// and its cached remote-domain replicas.
//
// The two lookup paths carry different contracts. The local table is
// authoritative: a miss for an in-range issued address is an unrecoverable
// protocol violation, reported as a fatal-classified error. Remote lookups
// hit a cache that is allowed to be stale or absent, so a remote miss is an
// ordinary absent result (nil node, nil error) the caller must handle.
type Directory struct {
	local   *Arena
	remotes map[int]*RemoteRecord
	sink    io.Writer
}

// NewDirectory creates a directory over the local arena. Diagnostics go to
// sink; a nil sink defaults to stderr.
func NewDirectory(local *Arena, sink io.Writer) *Directory {
	if sink == nil {
		sink = os.Stderr
	}
	return &Directory{
		local:   local,
		remotes: make(map[int]*RemoteRecord),
		sink:    sink,
	}
}

// Local returns the local arena.
func (d *Directory) Local() *Arena {
	return d.local
}

// Remote returns the replica cache for a remote domain, creating it on
// first use.
func (d *Directory) Remote(domain int) *RemoteRecord {
	r, ok := d.remotes[domain]
	if !ok {
		r = NewRemoteRecord(domain)
		d.remotes[domain] = r
	}
	return r
}

// Resolve maps a tag to node state. It returns (nil, nil) for an expected
// remote miss, and a fatal error for an invalid tag or a local miss on an
// issued address.
func (d *Directory) Resolve(tag Tag) (*Node, error) {
	if !tag.Valid() {
		return nil, errors.E(errors.CodeInvalidTag, "resolve %s", tag)
	}

	if tag.Domain == d.local.Domain() {
		if tag.Index >= d.local.MaxIndex() {
			// Never-issued index: the address cannot exist yet. Treated as
			// absent so callers racing ahead of node creation can skip.
			return nil, nil
		}
		node := d.local.Get(tag.Index)
		if node == nil {
			return nil, errors.E(errors.CodeLocalTagMissing, "issued local tag %s has no node", tag)
		}
		return node, nil
	}

	rec, ok := d.remotes[tag.Domain]
	if !ok {
		return nil, nil
	}
	return rec.Get(tag.Index), nil
}

// Connected reports whether a lists b as a neighbor, and at which arm slot.
// The scan is linear in a's degree and returns the first live match.
func Connected(a, b *Node) (bool, int) {
	if a == nil || b == nil {
		return false, -1
	}
	idx := a.ArmTo(b.Tag)
	return idx >= 0, idx
}

// ArmIndex returns the slot of a's arm terminating at b, when only the
// index is needed.
func ArmIndex(a, b *Node) (int, bool) {
	ok, idx := Connected(a, b)
	return idx, ok
}

// NthLiveNeighbor resolves the neighbor at a node's n-th live arm slot,
// skipping tombstones; the n-th live arm is not necessarily at array
// position n. If the node has fewer than n+1 live arms the node state is
// dumped to the diagnostic sink and an absent result is returned.
func (d *Directory) NthLiveNeighbor(node *Node, n int) (*Node, error) {
	if node == nil || n < 0 {
		return nil, nil
	}
	live := -1
	for i := range node.Arms {
		if !node.Arms[i].Live() {
			continue
		}
		live++
		if live == n {
			return d.Resolve(node.Arms[i].Neighbor)
		}
	}

	fmt.Fprintf(d.sink, "no live neighbor %d for node%s\n", n, node.Tag)
	node.Dump(d.sink)
	return nil, nil
}
