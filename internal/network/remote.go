package network

// RemoteRecord is a partial, possibly stale cache of another domain's node
// table, keyed by index and bounded by the highest index this domain has
// heard about. It is never authoritative: a miss here is an expected
// outcome, not an error, because within a cycle a domain's view of a remote
// neighbor may lag or be entirely absent until the next exchange.
type RemoteRecord struct {
	domain   int
	maxIndex int
	nodes    []*Node
}

// NewRemoteRecord creates an empty replica cache for a remote domain.
func NewRemoteRecord(domain int) *RemoteRecord {
	return &RemoteRecord{domain: domain}
}

// Domain returns the remote domain this record caches.
func (r *RemoteRecord) Domain() int {
	return r.domain
}

// MaxIndex returns the bound on cached indexes: lookups at or beyond it are
// misses by definition.
func (r *RemoteRecord) MaxIndex() int {
	return r.maxIndex
}

// Put caches a replica of a remote node, growing the index range as needed.
func (r *RemoteRecord) Put(node *Node) {
	if node == nil || node.Tag.Domain != r.domain || node.Tag.Index < 0 {
		return
	}
	idx := node.Tag.Index
	for len(r.nodes) <= idx {
		r.nodes = append(r.nodes, nil)
	}
	r.nodes[idx] = node
	if idx >= r.maxIndex {
		r.maxIndex = idx + 1
	}
}

// Get returns the cached replica at index, or nil on a miss.
func (r *RemoteRecord) Get(index int) *Node {
	if index < 0 || index >= r.maxIndex || index >= len(r.nodes) {
		return nil
	}
	return r.nodes[index]
}

// Forget drops the cached replica at index, leaving the bound in place.
func (r *RemoteRecord) Forget(index int) {
	if index >= 0 && index < len(r.nodes) {
		r.nodes[index] = nil
	}
}
