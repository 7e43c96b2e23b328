package dsa

import "ssamid/internal/ir"

// Program owns every function's local graph plus the globals graph
// every local graph shares global nodes with, mirroring
// LocalDataStructures' per-module DSInfo map (§4.7).
type Program struct {
	Graphs  map[*ir.Function]*Graph
	Globals *Graph
}

// BuildProgram runs local construction over every defined function in
// m, sharing one globals graph across all of them the way
// LocalDataStructures.runOnModule does.
func BuildProgram(m *ir.Module) *Program {
	p := &Program{Graphs: map[*ir.Function]*Graph{}, Globals: &Graph{Scalars: map[*ir.Value]*Handle{}}}
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		p.Graphs[fn] = BuildLocal(fn)
	}
	return p
}

// CloseBottomUp computes the BU closure (§4.7): for every call site,
// unify the caller's view of the callee's arguments/return with the
// callee's own formal graph. Graphs are visited in map order, not in
// call-graph order; the sweep repeats until a full pass merges
// nothing, which also closes recursive cycles without an explicit SCC
// computation.
func (p *Program) CloseBottomUp() {
	changed := true
	for changed {
		changed = false
		for _, g := range p.Graphs {
			for _, cs := range g.Calls {
				callee, ok := p.Graphs[cs.Callee]
				if !ok {
					continue // external declaration: nothing to unify against
				}
				if unifyCallSite(cs, callee) {
					changed = true
				}
			}
		}
	}
}

// unifyCallSite merges a call site's actual arguments/return with the
// callee's formal parameter/return handles, returning whether any
// merge actually changed the graph (used to detect the BU fixed
// point).
func unifyCallSite(cs CallSite, callee *Graph) bool {
	changed := false
	for i, actual := range cs.Args {
		if i >= len(callee.Function.Args) {
			break // vararg tail: §4.7 does not model varargs field-sensitively
		}
		formal, ok := callee.Scalars[&callee.Function.Args[i].Value]
		if !ok || actual == nil {
			continue
		}
		if formal.Node().Find() != actual.Node().Find() {
			MergeHandles(formal, actual)
			changed = true
		}
	}
	if cs.Ret != nil && callee.Return != nil {
		if cs.Ret.Node().Find() != callee.Return.Node().Find() {
			MergeHandles(cs.Ret, callee.Return)
			changed = true
		}
	}
	return changed
}

// CloseTopDown computes the TD closure (§4.7): propagate a caller's
// knowledge of a node (its flags, e.g. that it escapes) down into
// every callee it's passed to; only Flags are copied. Run after CloseBottomUp so formal and
// actual nodes already denote the same representative.
func (p *Program) CloseTopDown() {
	for _, g := range p.Graphs {
		for _, cs := range g.Calls {
			callee, ok := p.Graphs[cs.Callee]
			if !ok {
				continue
			}
			for i, actual := range cs.Args {
				if i >= len(callee.Function.Args) || actual == nil {
					continue
				}
				formal := callee.Scalars[&callee.Function.Args[i].Value]
				if formal != nil {
					formal.Node().Find().Flags |= actual.Node().Find().Flags
				}
			}
		}
	}
}

// CloseCompleteBottomUp runs CBU: BU followed by TD followed by a
// second BU pass, the fixed-point schedule EquivClassGraphs.cpp uses
// to guarantee every node's flags and field set are stable regardless
// of call-graph traversal order.
func (p *Program) CloseCompleteBottomUp() {
	p.CloseBottomUp()
	p.CloseTopDown()
	p.CloseBottomUp()
}

// CloseEquivalenceClass merges every strongly-connected component of
// the call graph into one shared graph before re-running the
// bottom-up closure, grounded on EquivClassGraphs.cpp's construction:
// mutually recursive functions have no sound per-function closure
// order, so CloseBottomUp alone can under-propagate across a call
// cycle. Functions outside any cycle (singleton SCCs) are left alone.
func (p *Program) CloseEquivalenceClass() {
	for _, scc := range p.callGraphSCCs() {
		if len(scc) < 2 {
			continue
		}
		merged := p.Graphs[scc[0]]
		for _, fn := range scc[1:] {
			mergeGraphInto(merged, p.Graphs[fn])
			p.Graphs[fn] = merged
		}
	}
	p.CloseBottomUp()
}

// mergeGraphInto folds src's scalar map, call sites, and return handle
// into dst in place, unifying any node dst and src both already
// reference. Merging multiple functions' return handles into one
// shared slot is a simplification: a genuine per-function equivalence
// class would keep a separate return handle per member while still
// sharing the underlying node set.
func mergeGraphInto(dst, src *Graph) {
	for v, h := range src.Scalars {
		if existing, ok := dst.Scalars[v]; ok {
			MergeHandles(existing, h)
		} else {
			dst.Scalars[v] = h
		}
	}
	dst.Calls = append(dst.Calls, src.Calls...)
	if src.Return != nil {
		if dst.Return != nil {
			MergeHandles(dst.Return, src.Return)
		} else {
			dst.Return = src.Return
		}
	}
}

// callGraphSCCs computes the strongly-connected components of the
// call graph restricted to functions with a local graph (declarations
// have none and are treated as graph leaves), via Tarjan's algorithm.
func (p *Program) callGraphSCCs() [][]*ir.Function {
	index := map[*ir.Function]int{}
	low := map[*ir.Function]int{}
	onStack := map[*ir.Function]bool{}
	var stack []*ir.Function
	var sccs [][]*ir.Function
	counter := 0

	var strongconnect func(fn *ir.Function)
	strongconnect = func(fn *ir.Function) {
		index[fn] = counter
		low[fn] = counter
		counter++
		stack = append(stack, fn)
		onStack[fn] = true

		for _, cs := range p.Graphs[fn].Calls {
			callee := cs.Callee
			if _, ok := p.Graphs[callee]; !ok {
				continue
			}
			if _, visited := index[callee]; !visited {
				strongconnect(callee)
				if low[callee] < low[fn] {
					low[fn] = low[callee]
				}
			} else if onStack[callee] {
				if index[callee] < low[fn] {
					low[fn] = index[callee]
				}
			}
		}

		if low[fn] == index[fn] {
			var scc []*ir.Function
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == fn {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for fn := range p.Graphs {
		if _, visited := index[fn]; !visited {
			strongconnect(fn)
		}
	}
	return sccs
}
