// Package fold implements the instruction-combining peephole pass:
// algebraic identities and constant folding applied opportunistically
// to each instruction in isolation, the supplemented analogue of the
// original implementation's InstructionCombining pass (not itself
// part of the distilled specification, but a natural companion to the
// constant-folding algebra the IR object model already exposes).
package fold

import (
	"ssamid/internal/ir"
	"ssamid/internal/passes"
)

// Peephole is a BasicBlockPass that folds constant operands and
// simplifies a handful of algebraic identities in a single
// straight-line walk over each block.
type Peephole struct {
	ctx *ir.Context
}

// NewPeephole returns a peephole pass that interns folded results
// through ctx.
func NewPeephole(ctx *ir.Context) *Peephole {
	return &Peephole{ctx: ctx}
}

func (p *Peephole) Info() passes.Info {
	return passes.Info{
		Name:        "peephole",
		Granularity: passes.BasicBlockGranularity,
		// Rewrites def-use edges but never adds, removes, or reorders
		// blocks or terminators, so control-flow-only analyses like the
		// dominator tree remain valid across it.
		Preserves: []passes.AnalysisID{passes.PreserveAllCFGOnly},
	}
}

func (p *Peephole) RunOnBasicBlock(b *ir.BasicBlock, am *passes.AnalysisManager) (bool, error) {
	changed := false
	for _, inst := range b.Insts {
		if simplifyInstruction(p.ctx, inst) {
			changed = true
		}
	}
	return changed, nil
}

// simplifyInstruction tries constant folding first, then a small set
// of algebraic identities that hold regardless of whether the other
// operand is constant. It rewrites in place via RAUW rather than
// erasing inst itself, so the now-unused instruction stays in its
// block.
func simplifyInstruction(ctx *ir.Context, inst *ir.Instruction) bool {
	if inst.NumOperands() != 2 {
		return trySimplifyCast(ctx, inst)
	}
	lhs, rhs := inst.Operand(0), inst.Operand(1)
	if lc, ok := asConstant(lhs); ok {
		if rc, ok := asConstant(rhs); ok {
			if folded, ok := ir.ConstantFoldBinaryInstruction(ctx, inst.Op, lc, rc); ok {
				ir.ReplaceAllUsesWith(&inst.Value, &folded.Value)
				return true
			}
			return false
		}
	}
	return simplifyIdentity(ctx, inst, lhs, rhs)
}

func trySimplifyCast(ctx *ir.Context, inst *ir.Instruction) bool {
	if inst.Op != ir.OpCast || inst.NumOperands() != 1 {
		return false
	}
	c, ok := asConstant(inst.Operand(0))
	if !ok {
		return false
	}
	folded, ok := ir.ConstantFoldCastInstruction(ctx, c, inst.Type)
	if !ok {
		return false
	}
	ir.ReplaceAllUsesWith(&inst.Value, &folded.Value)
	return true
}

// simplifyIdentity applies the handful of algebraic simplifications
// that do not require both operands to be constant: x+0, x-0, x|0,
// x^0, x*1, x*0, x-x, x^x, x&x, x|x.
func simplifyIdentity(ctx *ir.Context, inst *ir.Instruction, lhs, rhs *ir.Value) bool {
	if !inst.Type.Kind.IsInteger() {
		return false
	}
	rc, rhsConst := asConstant(rhs)
	if lhs == rhs {
		switch inst.Op {
		case ir.OpOr:
			ir.ReplaceAllUsesWith(&inst.Value, lhs)
			return true
		case ir.OpSub, ir.OpXor:
			ir.ReplaceAllUsesWith(&inst.Value, &ctx.IntConstant(inst.Type, 0).Value)
			return true
		}
	}
	switch inst.Op {
	case ir.OpAdd, ir.OpSub, ir.OpOr, ir.OpXor:
		if rhsConst && rc.Int == 0 {
			ir.ReplaceAllUsesWith(&inst.Value, lhs)
			return true
		}
	case ir.OpMul:
		if rhsConst && rc.Int == 1 {
			ir.ReplaceAllUsesWith(&inst.Value, lhs)
			return true
		}
		if rhsConst && rc.Int == 0 {
			ir.ReplaceAllUsesWith(&inst.Value, &ctx.IntConstant(inst.Type, 0).Value)
			return true
		}
	case ir.OpAnd:
		if lhs == rhs {
			ir.ReplaceAllUsesWith(&inst.Value, lhs)
			return true
		}
	}
	return false
}

func asConstant(v *ir.Value) (*ir.Constant, bool) {
	c, ok := v.Owner().(*ir.Constant)
	return c, ok
}
