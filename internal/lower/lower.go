// Package lower implements §4.6: SSA-to-two-address lowering. Lower
// translates an internal/ir.Function (SSA, def-use pointers) into an
// internal/mir.Function (flat virtual registers, no def-use graph);
// TwoAddressPass then rewrites the two-address-constrained opcodes
// the way a two-operand target ISA requires, grounded on
// TwoAddressInstructionPass.cpp's `a = b op c` -> `a = b; a op= c`
// rewrite.
package lower

import (
	"fmt"

	"ssamid/internal/ir"
	"ssamid/internal/mir"
)

var opToMir = map[ir.Opcode]mir.Opcode{
	ir.OpAdd: mir.Add, ir.OpSub: mir.Sub, ir.OpMul: mir.Mul,
	ir.OpUDiv: mir.UDiv, ir.OpSDiv: mir.SDiv, ir.OpURem: mir.URem, ir.OpSRem: mir.SRem,
	ir.OpAnd: mir.And, ir.OpOr: mir.Or, ir.OpXor: mir.Xor,
	ir.OpShl: mir.Shl, ir.OpLShr: mir.LShr, ir.OpAShr: mir.AShr,
	ir.OpSetEQ: mir.CmpEQ, ir.OpSetNE: mir.CmpNE, ir.OpSetLT: mir.CmpLT,
	ir.OpSetLE: mir.CmpLE, ir.OpSetGT: mir.CmpGT, ir.OpSetGE: mir.CmpGE,
}

// Lower builds a mir.Function equivalent to fn. Phi is unsupported
// (the function must already be phi-free, e.g. by never introducing
// one, matching the binary codec's same limitation) since lowering
// phi requires critical-edge splitting and copy insertion that is out
// of scope for this pass (§4.6 Non-goals: register allocation and PHI
// elimination are a separate, target-specific pass this package does
// not implement).
func Lower(fn *ir.Function) (*mir.Function, error) {
	mfn := mir.NewFunction(fn.Name, len(fn.Args))

	vregs := make(map[*ir.Value]mir.Register, len(fn.Args))
	for i, a := range fn.Args {
		vregs[&a.Value] = mir.Register{Num: uint32(i)}
	}
	blocks := make(map[*ir.BasicBlock]*mir.Block, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocks[b] = mfn.AppendBlock(b.Name)
	}

	for _, b := range fn.Blocks {
		mb := blocks[b]
		for _, inst := range b.Insts {
			if err := lowerInstruction(mfn, mb, inst, vregs, blocks); err != nil {
				return nil, err
			}
		}
	}
	return mfn, nil
}

// materialize returns the virtual register holding v's value, emitting
// a Move-from-immediate instruction first if v is a constant (mir has
// no operand slot for bare immediates outside FrameAlloc/Call, so
// every constant becomes an explicit def).
func materialize(mfn *mir.Function, mb *mir.Block, v *ir.Value, vregs map[*ir.Value]mir.Register) mir.Register {
	if v == nil {
		return mir.Register{}
	}
	if r, ok := vregs[v]; ok {
		return r
	}
	c := v.Owner().(*ir.Constant)
	r := mfn.NewVReg()
	mb.Append(mir.Instr{Op: mir.Move, Defs: []mir.Register{r}, Imm: int64(c.Int)})
	vregs[v] = r
	return r
}

func lowerInstruction(mfn *mir.Function, mb *mir.Block, inst *ir.Instruction, vregs map[*ir.Value]mir.Register, blocks map[*ir.BasicBlock]*mir.Block) error {
	switch inst.Op {
	case ir.OpBr:
		mb.Append(mir.Instr{Op: mir.Br, Target: blocks[inst.Succs[0]]})
		return nil
	case ir.OpCondBr:
		cond := materialize(mfn, mb, inst.Operand(0), vregs)
		mb.Append(mir.Instr{Op: mir.CondBr, Uses: []mir.Register{cond}, Targets: []*mir.Block{blocks[inst.Succs[0]], blocks[inst.Succs[1]]}})
		return nil
	case ir.OpRet:
		if inst.NumOperands() == 0 {
			mb.Append(mir.Instr{Op: mir.Ret})
			return nil
		}
		v := materialize(mfn, mb, inst.Operand(0), vregs)
		mb.Append(mir.Instr{Op: mir.Ret, Uses: []mir.Register{v}})
		return nil
	case ir.OpAlloca:
		r := mfn.NewVReg()
		mb.Append(mir.Instr{Op: mir.FrameAlloc, Defs: []mir.Register{r}, Imm: 0})
		vregs[&inst.Value] = r
		return nil
	case ir.OpLoad:
		ptr := materialize(mfn, mb, inst.Operand(0), vregs)
		r := mfn.NewVReg()
		mb.Append(mir.Instr{Op: mir.Load, Defs: []mir.Register{r}, Uses: []mir.Register{ptr}})
		vregs[&inst.Value] = r
		return nil
	case ir.OpStore:
		val := materialize(mfn, mb, inst.Operand(0), vregs)
		ptr := materialize(mfn, mb, inst.Operand(1), vregs)
		mb.Append(mir.Instr{Op: mir.Store, Uses: []mir.Register{val, ptr}})
		return nil
	case ir.OpCall:
		args := make([]mir.Register, inst.NumOperands())
		for i := range args {
			args[i] = materialize(mfn, mb, inst.Operand(i), vregs)
		}
		var defs []mir.Register
		if inst.Type.Kind != ir.Void {
			r := mfn.NewVReg()
			defs = []mir.Register{r}
			vregs[&inst.Value] = r
		}
		mb.Append(mir.Instr{Op: mir.Call, Defs: defs, Uses: args})
		return nil
	case ir.OpPhi:
		return fmt.Errorf("lower: function contains a phi instruction; phi elimination must run first")
	default:
		op, ok := opToMir[inst.Op]
		if !ok {
			return fmt.Errorf("lower: opcode %s has no machine-IR equivalent", inst.Op)
		}
		lhs := materialize(mfn, mb, inst.Operand(0), vregs)
		rhs := materialize(mfn, mb, inst.Operand(1), vregs)
		r := mfn.NewVReg()
		mb.Append(mir.Instr{Op: op, Defs: []mir.Register{r}, Uses: []mir.Register{lhs, rhs}})
		vregs[&inst.Value] = r
		return nil
	}
}
