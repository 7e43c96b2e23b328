package lower

import "ssamid/internal/mir"

// TwoAddressPass rewrites every two-address-constrained instruction
// `a = b op c` into `a = b; a op= c`, i.e. an explicit Move into a's
// register followed by the same op with Defs[0] = a and Uses = [c]
// — the rewrite TwoAddressInstructionPass.cpp
// performs for targets whose arithmetic instructions destructively
// update their first operand (§4.6 steps 1-4). If a's register
// already equals b's (the def already happens to reuse the left
// operand), no copy is inserted; either way the redundant
// first-source operand slot is dropped, leaving `a op= c`.
type TwoAddressPass struct{}

// Run mutates fn in place and reports whether it inserted any copy.
// Dropping the first-source slot of an instruction whose def already
// equals that source is not reported as a change.
func (TwoAddressPass) Run(fn *mir.Function) bool {
	changed := false
	for _, b := range fn.Blocks {
		changed = rewriteBlock(b) || changed
	}
	return changed
}

func rewriteBlock(b *mir.Block) bool {
	changed := false
	for i := 0; i < len(b.Instrs); i++ {
		inst := b.Instrs[i]
		if !inst.Op.IsTwoAddress() {
			continue
		}
		if len(inst.Defs) != 1 || len(inst.Uses) != 2 {
			continue
		}
		a, bReg, c := inst.Defs[0], inst.Uses[0], inst.Uses[1]
		if a == bReg {
			// Already two-address: no copy needed, but the redundant
			// first-source operand slot is still removed (§4.6 step 4).
			b.Instrs[i].Uses = []mir.Register{c}
			continue
		}

		b.InsertBefore(i, mir.Instr{Op: mir.Move, Defs: []mir.Register{a}, Uses: []mir.Register{bReg}})
		i++ // re-fetch the original instruction, now shifted one slot later
		b.Instrs[i].Uses = []mir.Register{c}
		changed = true
	}
	return changed
}
