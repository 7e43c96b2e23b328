// Package verify checks that an in-memory module satisfies every
// structural invariant of the IR object model: exactly one terminator
// per block, phi incoming counts matching predecessor counts, no
// dangling uses, dominance of definitions over uses, and operand type
// agreement. It is the last line of defense before a module is
// printed, codec-encoded, or handed to a pass pipeline, and the first
// thing run on a module just decoded off the wire.
package verify

import (
	"fmt"

	"ssamid/internal/diag"
	"ssamid/internal/ir"
)

// Result collects every structural violation found in one Module
// pass. An empty Result means the module is well-formed.
type Result struct {
	Errors []*diag.Error
}

// HasErrors reports whether any violation was recorded.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

func (r *Result) fail(code, msg string, subject fmt.Stringer) {
	e := diag.New(code, msg)
	if subject != nil {
		e = e.WithSubject(subject.String())
	}
	r.Errors = append(r.Errors, e)
}

// Module verifies every function in m.
func Module(m *ir.Module) *Result {
	r := &Result{}
	for _, fn := range m.Functions {
		Function(fn, r)
	}
	return r
}

// Function verifies a single function's blocks, appending any
// violations found to r. It computes its own dominator tree; a caller
// that already has one cached (internal/passes, via the DomTree
// analysis) should call FunctionWithDomTree instead to avoid
// recomputing it.
func Function(fn *ir.Function, r *Result) {
	if fn.IsDeclaration() {
		return
	}
	FunctionWithDomTree(fn, BuildDomTree(fn), r)
}

// FunctionWithDomTree verifies a single function using an
// already-computed dominator tree, appending any violations found to
// r. fn must not be a declaration.
func FunctionWithDomTree(fn *ir.Function, dom *DomTree, r *Result) {
	entry := fn.EntryBlock()
	if len(entry.Predecessors()) != 0 {
		r.fail(diag.StructuralEntryHasPreds, "entry block must have no predecessors", nil)
	}
	for _, b := range fn.Blocks {
		verifyBlock(fn, b, dom, r)
	}
}

func verifyBlock(fn *ir.Function, b *ir.BasicBlock, dom *DomTree, r *Result) {
	if len(b.Insts) == 0 {
		r.fail(diag.StructuralMissingTerminator, "block has no instructions", nil)
		return
	}
	for i, inst := range b.Insts {
		isLast := i == len(b.Insts)-1
		if inst.IsTerminator() && !isLast {
			r.fail(diag.StructuralExtraTerminator, "terminator is not the last instruction in its block", nil)
		}
		if !inst.IsTerminator() && isLast {
			r.fail(diag.StructuralMissingTerminator, "block does not end in a terminator", nil)
		}
		if inst.Op == ir.OpPhi {
			verifyPhi(b, inst, r)
		}
		verifyOperands(inst, dom, r)
		verifyOperandTypes(fn, inst, r)
	}
}

func verifyPhi(b *ir.BasicBlock, inst *ir.Instruction, r *Result) {
	preds := b.Predecessors()
	if len(inst.Incoming) != len(preds) {
		r.fail(diag.StructuralPhiMismatch,
			fmt.Sprintf("phi has %d incoming values but block has %d predecessors", len(inst.Incoming), len(preds)),
			nil)
	}
}

func verifyOperands(inst *ir.Instruction, dom *DomTree, r *Result) {
	for slot, u := range inst.Operands {
		if u == nil {
			continue
		}
		if u.Def == nil {
			r.fail(diag.StructuralDanglingUse, "instruction has a use pointing at a removed value", nil)
			continue
		}
		defBlock := definingBlock(u.Def)
		if defBlock == nil {
			continue // constant, global, or argument: dominates everything
		}
		useBlock := inst.Block
		if inst.Op == ir.OpPhi {
			useBlock = inst.Incoming[slot].Block
		}
		// Same-block def/use order (as opposed to cross-block dominance)
		// is intentionally not checked here: the builder only ever
		// appends well-ordered instructions, and passes that reorder
		// within a block are expected to maintain def-before-use
		// themselves.
		if !dom.Dominates(defBlock, useBlock) {
			r.fail(diag.StructuralDominance, "use is not dominated by its definition", nil)
		}
	}
}

// verifyOperandTypes mirrors the type contracts the builder enforces
// at construction time (internal/ir/builder.go) and also checks ret
// values, which the builder does not, catching violations in IR built
// through the builder as well as IR decoded off the wire, parsed from
// text, or produced by a buggy pass rewrite.
func verifyOperandTypes(fn *ir.Function, inst *ir.Instruction, r *Result) {
	badOperand := func(msg string) {
		r.fail(diag.StructuralBadOperandType, msg, nil)
	}

	switch inst.Op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpUDiv, ir.OpSDiv, ir.OpURem, ir.OpSRem,
		ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpLShr, ir.OpAShr,
		ir.OpSetEQ, ir.OpSetNE, ir.OpSetLT, ir.OpSetLE, ir.OpSetGT, ir.OpSetGE:
		lhs, rhs := inst.Operand(0), inst.Operand(1)
		if lhs == nil || rhs == nil {
			return
		}
		if lhs.Type != rhs.Type {
			badOperand("binary operator operands do not share a type")
			return
		}
		if inst.Op.IsCompare() {
			if inst.Type.Kind != ir.Bool {
				badOperand("comparison result is not bool")
			}
		} else if inst.Type != lhs.Type {
			badOperand("binary operator result type does not match its operands")
		}
	case ir.OpLoad:
		ptr := inst.Operand(0)
		if ptr == nil {
			return
		}
		if ptr.Type.Kind != ir.Pointer {
			badOperand("load operand is not a pointer")
			return
		}
		if inst.Type != ptr.Type.Elem {
			badOperand("load result type does not match pointee type")
		}
	case ir.OpStore:
		val, ptr := inst.Operand(0), inst.Operand(1)
		if val == nil || ptr == nil {
			return
		}
		if ptr.Type.Kind != ir.Pointer {
			badOperand("store pointer operand is not a pointer")
			return
		}
		if val.Type != ptr.Type.Elem {
			badOperand("store value type does not match pointee type")
		}
	case ir.OpAlloca:
		if inst.Type.Kind != ir.Pointer || inst.Type.Elem != inst.AllocType {
			badOperand("alloca result is not a pointer to its alloc type")
		}
	case ir.OpGEP:
		ptr := inst.Operand(0)
		if ptr == nil {
			return
		}
		if ptr.Type.Kind != ir.Pointer {
			badOperand("gep base operand is not a pointer")
			return
		}
		if inst.Type.Kind != ir.Pointer {
			badOperand("gep result is not a pointer")
		}
	case ir.OpCondBr:
		cond := inst.Operand(0)
		if cond != nil && cond.Type.Kind != ir.Bool {
			badOperand("condbr condition is not bool")
		}
	case ir.OpSelect:
		cond, ifTrue, ifFalse := inst.Operand(0), inst.Operand(1), inst.Operand(2)
		if cond != nil && cond.Type.Kind != ir.Bool {
			badOperand("select condition is not bool")
		}
		if ifTrue != nil && ifFalse != nil {
			if ifTrue.Type != ifFalse.Type {
				badOperand("select arms do not share a type")
			} else if inst.Type != ifTrue.Type {
				badOperand("select result type does not match its arms")
			}
		}
	case ir.OpCall:
		callee := inst.Callee
		if callee == nil {
			return
		}
		if inst.Type != callee.Sig.Ret {
			badOperand("call result type does not match callee's return type")
		}
		params := callee.Sig.Params
		for i := 0; i < inst.NumOperands() && i < len(params); i++ {
			arg := inst.Operand(i)
			if arg != nil && arg.Type != params[i] {
				badOperand("call argument type does not match callee parameter type")
			}
		}
	case ir.OpPhi:
		for _, in := range inst.Incoming {
			if in.Value != nil && in.Value.Type != inst.Type {
				badOperand("phi incoming value type does not match phi result type")
			}
		}
	case ir.OpRet:
		if inst.NumOperands() == 0 {
			if fn.ReturnType().Kind != ir.Void {
				badOperand("ret with no value in a function with a non-void return type")
			}
			return
		}
		v := inst.Operand(0)
		if v != nil && v.Type != fn.ReturnType() {
			badOperand("ret value type does not match function return type")
		}
	}
}

// definingBlock returns the block that owns v as an instruction
// result, or nil if v is module-level (a constant, global, or
// argument) and therefore dominates every use by construction.
func definingBlock(v *ir.Value) *ir.BasicBlock {
	inst, ok := v.Owner().(*ir.Instruction)
	if !ok {
		return nil
	}
	return inst.Block
}
