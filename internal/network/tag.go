// Package network holds the per-domain replica of the line-defect graph:
// node and arm records, the local node arena, cached remote-domain replicas,
// and the Directory that resolves global node addresses against them.
//
// A node is addressed globally by a Tag, an ordered (domain, index) pair
// that stays unique and immutable for the node's lifetime. The domain names
// the partition that issued the address; the index is a dense per-domain
// sequence number that may contain tombstoned gaps after deletions.
package network

import "fmt"

// Tag is the global address of a node.
type Tag struct {
	Domain int
	Index  int
}

// NoTag marks an unused or tombstoned address slot.
var NoTag = Tag{Domain: -1, Index: -1}

// Valid reports whether the tag names a real address.
func (t Tag) Valid() bool {
	return t.Domain >= 0 && t.Index >= 0
}

// String renders the tag in the conventional (domain,index) form.
func (t Tag) String() string {
	return fmt.Sprintf("(%d,%d)", t.Domain, t.Index)
}
