// Package dsa implements §4.7's data-structure/alias-graph analysis,
// grounded on original_source's DataStructure.h/Local.cpp/
// EquivClassGraphs.cpp: every pointer-typed value is mapped to a node
// in a union-find forest, nodes track which fields (GEP offsets) have
// been accessed and whether the node has escaped the current
// function, and the BU/TD/CBU closures propagate that information
// across the call graph.
package dsa

import "ssamid/internal/ir"

// NodeFlags records properties accumulated about a node as the graph
// is built and closed over the call graph (§4.7 node flags).
type NodeFlags uint8

const (
	FlagHeap NodeFlags = 1 << iota
	FlagGlobal
	FlagAlloca
	FlagUnknown // merged with a value the analysis could not otherwise classify
	FlagIncomplete
	FlagEscapes
)

// Node is one abstract memory object. Nodes are merged destructively
// via union-find (Find follows Parent to the representative); once
// merged, a Node is dead weight kept around only so outstanding
// Handles still resolve.
type Node struct {
	Parent *Node // nil at the representative of its set
	Flags  NodeFlags
	Size   int // the field-sensitive node's known size in bytes, 0 if unknown (collapses field sensitivity)
	Fields map[int]*Handle
	Type   *ir.Type // the ir.Type first observed flowing into this node, for diagnostics only
}

// NewNode creates a fresh singleton node.
func NewNode(t *ir.Type) *Node {
	return &Node{Fields: map[int]*Handle{}, Type: t}
}

// Find returns the representative node of n's set, path-compressing
// along the way (§4.7 union-find).
func (n *Node) Find() *Node {
	root := n
	for root.Parent != nil {
		root = root.Parent
	}
	for n.Parent != nil {
		next := n.Parent
		n.Parent = root
		n = next
	}
	return root
}

// Handle is a pointer-to-node reference with a byte offset into the
// node, mirroring DSNodeHandle: dereferencing a Handle always follows
// Find() first since the node it was created against may since have
// been merged into another.
type Handle struct {
	node   *Node
	Offset int
}

func NewHandle(n *Node, offset int) *Handle {
	return &Handle{node: n, Offset: offset}
}

// Node returns the current representative node, resolving any merges
// that happened since the handle was created.
func (h *Handle) Node() *Node {
	if h.node == nil {
		return nil
	}
	h.node = h.node.Find()
	return h.node
}

// IsNull reports whether this handle denotes no node (e.g. a null
// pointer constant never merged with anything).
func (h *Handle) IsNull() bool { return h == nil || h.node == nil }
