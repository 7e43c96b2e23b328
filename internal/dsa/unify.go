package dsa

// MergeNodes unions a and b's sets, returning the surviving
// representative. Field maps are merged key-wise; a field present in
// both operands recurses the merge into its two handles' nodes
// (§4.7: merging two nodes must merge their overlapping fields too,
// or field sensitivity silently goes stale).
func MergeNodes(a, b *Node) *Node {
	ra, rb := a.Find(), b.Find()
	if ra == rb {
		return ra
	}

	// Keep the node with more already-resolved fields as the survivor
	// to minimize re-pointing handles; the choice is arbitrary
	// otherwise and does not affect correctness.
	if len(rb.Fields) > len(ra.Fields) {
		ra, rb = rb, ra
	}

	rb.Parent = ra
	ra.Flags |= rb.Flags
	if ra.Size == 0 {
		ra.Size = rb.Size
	}

	for off, h := range rb.Fields {
		if existing, ok := ra.Fields[off]; ok {
			MergeNodes(existing.Node(), h.Node())
		} else {
			ra.Fields[off] = h
		}
	}
	rb.Fields = nil
	return ra
}

// MergeHandles unions the nodes two handles point at (accounting for
// the handles' own offsets not mattering for the merge — only the
// nodes merge, not the offsets). A nil handle pair is a no-op: DSA
// never needs to merge "no node" with anything.
func MergeHandles(a, b *Handle) {
	if a.IsNull() || b.IsNull() {
		return
	}
	MergeNodes(a.Node(), b.Node())
}
