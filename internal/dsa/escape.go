package dsa

// Escapes reports whether h's node has been marked as escaping its
// defining function's stack frame: heap and global nodes always
// escape; an alloca-flagged node escapes only once something has
// explicitly propagated FlagEscapes onto it (e.g. its address was
// passed to an external call the analysis couldn't see into, or
// CloseTopDown propagated it down from a caller).
func Escapes(h *Handle) bool {
	if h.IsNull() {
		return false
	}
	n := h.Node().Find()
	return n.Flags&(FlagHeap|FlagGlobal|FlagEscapes) != 0
}

// MarkEscaping sets FlagEscapes on h's node, for callers (e.g. a call
// to an external/unknown function passing this pointer) that observe
// an escape the graph construction itself couldn't see.
func MarkEscaping(h *Handle) {
	if h.IsNull() {
		return
	}
	h.Node().Find().Flags |= FlagEscapes
}

// EscapingNodes returns every node that a handle in g's scalar map
// points at directly and that currently escapes (nodes reachable only
// through fields are not visited), for a caller that wants the whole set rather
// than a single query (e.g. an "everything this function leaks"
// diagnostic).
func EscapingNodes(g *Graph) []*Node {
	seen := map[*Node]bool{}
	var out []*Node
	for _, h := range g.Scalars {
		if h.IsNull() {
			continue
		}
		n := h.Node().Find()
		if seen[n] {
			continue
		}
		seen[n] = true
		if Escapes(h) {
			out = append(out, n)
		}
	}
	return out
}
