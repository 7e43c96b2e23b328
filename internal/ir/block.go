package ir

// BasicBlock is a maximal straight-line sequence of instructions
// ending in exactly one terminator (§3.3). It embeds Value so a block
// label can itself be referenced as a branch target operand.
type BasicBlock struct {
	Value
	Parent *Function
	Insts  []*Instruction
}

func newBasicBlock(fn *Function, name string) *BasicBlock {
	b := &BasicBlock{Parent: fn}
	b.Name = name
	b.Type = fn.ctx().LabelType()
	b.owner = b
	b.id = fn.ctx().nextID()
	return b
}

// Terminator returns the block's terminator instruction, or nil if the
// block is not yet well-formed (§4.1 failure mode: a block under
// construction may be temporarily without one).
func (b *BasicBlock) Terminator() *Instruction {
	if len(b.Insts) == 0 {
		return nil
	}
	last := b.Insts[len(b.Insts)-1]
	if last.IsTerminator() {
		return last
	}
	return nil
}

// Predecessors walks the parent function's blocks to find every block
// whose terminator lists b as a successor. This is computed on demand
// rather than maintained incrementally, matching §3.3's note that
// predecessor lists are derived, not primary, state.
func (b *BasicBlock) Predecessors() []*BasicBlock {
	var preds []*BasicBlock
	for _, other := range b.Parent.Blocks {
		term := other.Terminator()
		if term == nil {
			continue
		}
		for _, s := range term.Successors() {
			if s == b {
				preds = append(preds, other)
				break
			}
		}
	}
	return preds
}

// append adds inst as the next instruction in the block and sets its
// back-pointer.
func (b *BasicBlock) append(inst *Instruction) {
	inst.Block = b
	b.Insts = append(b.Insts, inst)
}

// InsertBefore splices inst into the block immediately before mark.
func (b *BasicBlock) InsertBefore(inst, mark *Instruction) {
	for i, cur := range b.Insts {
		if cur == mark {
			b.Insts = append(b.Insts, nil)
			copy(b.Insts[i+1:], b.Insts[i:])
			b.Insts[i] = inst
			inst.Block = b
			return
		}
	}
	panic("ir: InsertBefore: mark not found in block")
}

// EraseInstruction removes inst from the block, detaching its
// operands from their use lists first. The caller is responsible for
// verifying it has no remaining uses (§4.2 erase contract).
func (b *BasicBlock) EraseInstruction(inst *Instruction) {
	for i, cur := range b.Insts {
		if cur == inst {
			for _, u := range inst.Operands {
				if u != nil && u.Def != nil {
					u.Def.removeUse(u)
				}
			}
			b.Insts = append(b.Insts[:i], b.Insts[i+1:]...)
			return
		}
	}
}
