package dsa

import "ssamid/internal/ir"

// CallSite records one call instruction's actual argument/return
// handles, retained so CloseBottomUp/CloseTopDown (closures.go) can
// unify a callee's formal graph against every site that calls it.
type CallSite struct {
	Callee *ir.Function
	Args   []*Handle
	Ret    *Handle
}

// Graph is the local (single-function) data-structure graph §4.7's
// "local per-function construction" step produces: a scalar map from
// every pointer-typed SSA value observed to the node it denotes, plus
// the call sites found along the way for the closures built on top.
type Graph struct {
	Function *ir.Function
	Scalars  map[*ir.Value]*Handle
	Calls    []CallSite
	Return   *Handle
}

// BuildLocal computes fn's local data-structure graph by a single
// pass over its instructions (GraphBuilder's single-pass construction
// in Local.cpp): every pointer-typed argument gets a scalar node up
// front, then each instruction updates the scalar map and merges
// nodes as aliasing is discovered.
func BuildLocal(fn *ir.Function) *Graph {
	g := &Graph{Function: fn, Scalars: map[*ir.Value]*Handle{}}

	for _, a := range fn.Args {
		if isPointerType(a.Type) {
			g.Scalars[&a.Value] = NewHandle(NewNode(a.Type), 0)
		}
	}

	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			visitInstruction(g, inst)
		}
	}
	return g
}

func isPointerType(t *ir.Type) bool { return t.Kind == ir.Pointer }

// getOrCreate returns the handle for a pointer-typed value, creating a
// singleton node on first sight (a constant null pointer gets no
// node at all — merging with null is always a no-op, matching
// DSNodeHandle's null-handle convention).
func getOrCreate(g *Graph, v *ir.Value) *Handle {
	if v == nil || !isPointerType(v.Type) {
		return nil
	}
	if c, ok := v.Owner().(*ir.Constant); ok && c.Kind == ir.ConstNullPointer {
		return nil
	}
	if h, ok := g.Scalars[v]; ok {
		return h
	}
	h := NewHandle(NewNode(v.Type), 0)
	g.Scalars[v] = h
	return h
}

func visitInstruction(g *Graph, inst *ir.Instruction) {
	switch inst.Op {
	case ir.OpAlloca:
		h := NewHandle(NewNode(inst.AllocType), 0)
		h.Node().Flags |= FlagAlloca
		g.Scalars[&inst.Value] = h

	case ir.OpMalloc:
		h := NewHandle(NewNode(inst.AllocType), 0)
		h.Node().Flags |= FlagHeap
		g.Scalars[&inst.Value] = h

	case ir.OpLoad:
		ptr := getOrCreate(g, inst.Operand(0))
		if ptr == nil {
			return
		}
		if isPointerType(inst.Type) {
			// The loaded value aliases whatever has already flowed through
			// this field; if nothing has, adopt a fresh node for it lazily.
			field := fieldHandle(ptr.Node(), ptr.Offset)
			g.Scalars[&inst.Value] = field
		}

	case ir.OpStore:
		ptr := getOrCreate(g, inst.Operand(1))
		val := getOrCreate(g, inst.Operand(0))
		if ptr == nil || val == nil {
			return
		}
		MergeHandles(fieldHandle(ptr.Node(), ptr.Offset), val)

	case ir.OpGEP:
		base := getOrCreate(g, inst.Operand(0))
		if base == nil {
			return
		}
		offset := base.Offset
		if len(inst.GEPIndices) > 0 {
			offset += int(inst.GEPIndices[0])
		}
		g.Scalars[&inst.Value] = NewHandle(base.Node(), offset)

	case ir.OpCall:
		cs := CallSite{Callee: inst.Callee}
		for i := 0; i < inst.NumOperands(); i++ {
			cs.Args = append(cs.Args, getOrCreate(g, inst.Operand(i)))
		}
		if isPointerType(inst.Type) {
			cs.Ret = getOrCreate(g, &inst.Value)
		}
		g.Calls = append(g.Calls, cs)

	case ir.OpRet:
		if inst.NumOperands() > 0 {
			g.Return = getOrCreate(g, inst.Operand(0))
		}

	case ir.OpPhi:
		for _, in := range inst.Incoming {
			if h := getOrCreate(g, in.Value); h != nil {
				MergeHandles(getOrCreate(g, &inst.Value), h)
			}
		}

	case ir.OpSelect:
		t := getOrCreate(g, inst.Operand(1))
		f := getOrCreate(g, inst.Operand(2))
		if t != nil {
			MergeHandles(getOrCreate(g, &inst.Value), t)
		}
		if f != nil {
			MergeHandles(getOrCreate(g, &inst.Value), f)
		}
	}
}

// fieldHandle returns the handle stored at a node's given field
// offset, creating one that points at a fresh, separate node the
// first time that offset is touched.
func fieldHandle(n *Node, offset int) *Handle {
	n = n.Find()
	if h, ok := n.Fields[offset]; ok {
		return h
	}
	h := NewHandle(NewNode(nil), 0)
	n.Fields[offset] = h
	return h
}
