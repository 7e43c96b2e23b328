package ir

// CloneFunction produces an independent copy of fn's body inside the
// same module under a fresh name, remapping every intra-function
// operand reference through a value map built up block by block in
// layout order (§4.2 clone contract: a clone must be structurally
// valid on its own, sharing no Instruction/BasicBlock pointers with
// the original).
func CloneFunction(fn *Function, newName string) *Function {
	clone := fn.Module.NewFunction(newName, fn.Sig)
	vmap := make(map[*Value]*Value, len(fn.Args)+32)
	for i, a := range fn.Args {
		vmap[&a.Value] = &clone.Args[i].Value
	}

	blockMap := make(map[*BasicBlock]*BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		nb := clone.AppendBlock(b.Name)
		blockMap[b] = nb
		vmap[&b.Value] = &nb.Value
	}

	for _, b := range fn.Blocks {
		nb := blockMap[b]
		for _, inst := range b.Insts {
			ni := cloneInstructionShallow(inst)
			ni.Block = nb
			ni.id = fn.ctx().nextID()
			ni.owner = ni
			ni.Type = inst.Type
			nb.Insts = append(nb.Insts, ni)
			vmap[&inst.Value] = &ni.Value
		}
	}

	// second pass: remap operands, successors, and phi incoming now
	// that every value in the function has a clone counterpart.
	for _, b := range fn.Blocks {
		nb := blockMap[b]
		for i, inst := range b.Insts {
			ni := nb.Insts[i]
			ni.Operands = make([]*Use, len(inst.Operands))
			for slot, u := range inst.Operands {
				if u == nil || u.Def == nil {
					continue
				}
				target := vmap[u.Def]
				if target == nil {
					target = u.Def // constants and external globals are shared, not cloned
				}
				ni.Operands[slot] = target.addUse(ni, slot)
			}
			ni.Succs = make([]*BasicBlock, len(inst.Succs))
			for i, s := range inst.Succs {
				ni.Succs[i] = blockMap[s]
			}
			if inst.Op == OpInvoke {
				ni.NormalTo = blockMap[inst.NormalTo]
				ni.UnwindTo = blockMap[inst.UnwindTo]
			}
			if inst.Op == OpPhi {
				ni.Incoming = make([]PhiIncoming, len(inst.Incoming))
				for k, inc := range inst.Incoming {
					target := vmap[inc.Value]
					if target == nil {
						target = inc.Value
					}
					ni.Incoming[k] = PhiIncoming{Value: target, Block: blockMap[inc.Block]}
				}
			}
		}
	}

	return clone
}

// cloneInstructionShallow copies the non-pointer-graph fields of an
// instruction; operand/successor remapping happens in a later pass
// once every value in the function has a counterpart.
func cloneInstructionShallow(inst *Instruction) *Instruction {
	ni := &Instruction{
		Op:         inst.Op,
		GEPIndices: append([]int64(nil), inst.GEPIndices...),
		AllocType:  inst.AllocType,
		CastKind:   inst.CastKind,
		Callee:     inst.Callee,
		Cases:      append([]*Constant(nil), inst.Cases...),
	}
	ni.Name = inst.Name
	return ni
}
