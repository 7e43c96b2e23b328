package ir

// Builder provides the validated IR construction contract of §4.2:
// constructors check binary-operator operands, load/store/GEP pointer
// operands, a stored value against its pointee, condbr conditions,
// phi incoming values, select operands, and call argument counts
// before linking the instruction into a block. Ret values, call
// argument types, casts, and switch are not checked here, so the
// verifier guards IR built through the Builder as well as IR read
// back off the wire or produced by a buggy pass.
type Builder struct {
	ctx   *Context
	block *BasicBlock
	pos   int // insert before Insts[pos]; pos == len(Insts) means append
}

// NewBuilder returns a Builder that inserts at the end of block.
func NewBuilder(ctx *Context, block *BasicBlock) *Builder {
	return &Builder{ctx: ctx, block: block, pos: len(block.Insts)}
}

// SetInsertPoint repositions the builder to insert immediately before
// mark (or at block end if mark is nil).
func (b *Builder) SetInsertPoint(block *BasicBlock, mark *Instruction) {
	b.block = block
	if mark == nil {
		b.pos = len(block.Insts)
		return
	}
	for i, cur := range block.Insts {
		if cur == mark {
			b.pos = i
			return
		}
	}
	panic("ir: SetInsertPoint: mark not found in block")
}

func (b *Builder) insert(inst *Instruction, resultType *Type) *Instruction {
	inst.Type = resultType
	inst.id = b.ctx.nextID()
	inst.owner = inst
	inst.Block = b.block
	if b.pos >= len(b.block.Insts) {
		b.block.Insts = append(b.block.Insts, inst)
	} else {
		b.block.Insts = append(b.block.Insts, nil)
		copy(b.block.Insts[b.pos+1:], b.block.Insts[b.pos:])
		b.block.Insts[b.pos] = inst
	}
	b.pos++
	return inst
}

func (b *Builder) use(inst *Instruction, slot int, v *Value) {
	for len(inst.Operands) <= slot {
		inst.Operands = append(inst.Operands, nil)
	}
	inst.Operands[slot] = v.addUse(inst, slot)
}

func requireType(what string, got, want *Type) {
	if got != want {
		panic("ir: builder: " + what + ": type mismatch, got " + got.String() + " want " + want.String())
	}
}

// BinOp builds an arithmetic, bitwise, or comparison instruction. lhs
// and rhs must already share a type; the result type is that shared
// type, except for the Set* comparisons, which always yield Bool.
func (b *Builder) BinOp(op Opcode, lhs, rhs *Value, name string) *Instruction {
	requireType("BinOp operands", lhs.Type, rhs.Type)
	resultType := lhs.Type
	if isCompare(op) {
		resultType = b.ctx.BoolType()
	}
	inst := &Instruction{Op: op}
	inst.Name = name
	result := b.insert(inst, resultType)
	b.use(result, 0, lhs)
	b.use(result, 1, rhs)
	return result
}

// Cast builds a conversion instruction from v to dst under the given
// CastKind.
func (b *Builder) Cast(kind CastKind, v *Value, dst *Type, name string) *Instruction {
	inst := &Instruction{Op: OpCast, CastKind: kind}
	inst.Name = name
	result := b.insert(inst, dst)
	b.use(result, 0, v)
	return result
}

// Alloca builds a stack-allocation instruction yielding a pointer to
// allocType.
func (b *Builder) Alloca(allocType *Type, name string) *Instruction {
	inst := &Instruction{Op: OpAlloca, AllocType: allocType}
	inst.Name = name
	return b.insert(inst, b.ctx.PointerType(allocType))
}

// Load builds a load from a pointer operand.
func (b *Builder) Load(ptr *Value, name string) *Instruction {
	if ptr.Type.Kind != Pointer {
		panic("ir: Load: operand is not a pointer")
	}
	inst := &Instruction{Op: OpLoad}
	inst.Name = name
	result := b.insert(inst, ptr.Type.Elem)
	b.use(result, 0, ptr)
	return result
}

// Store builds a void store of val through ptr.
func (b *Builder) Store(val, ptr *Value) *Instruction {
	if ptr.Type.Kind != Pointer {
		panic("ir: Store: pointer operand is not a pointer")
	}
	requireType("Store value/pointee", val.Type, ptr.Type.Elem)
	inst := &Instruction{Op: OpStore}
	result := b.insert(inst, b.ctx.VoidType())
	b.use(result, 0, val)
	b.use(result, 1, ptr)
	return result
}

// GEP builds a getelementptr-style address computation over constant
// indices (§4.1 aggregate addressing).
func (b *Builder) GEP(ptr *Value, indices []int64, resultType *Type, name string) *Instruction {
	if ptr.Type.Kind != Pointer {
		panic("ir: GEP: base operand is not a pointer")
	}
	inst := &Instruction{Op: OpGEP, GEPIndices: indices}
	inst.Name = name
	result := b.insert(inst, b.ctx.PointerType(resultType))
	b.use(result, 0, ptr)
	return result
}

// Call builds a direct call to callee with the given arguments.
func (b *Builder) Call(callee *Function, args []*Value, name string) *Instruction {
	if len(args) != len(callee.Sig.Params) && !callee.Sig.Vararg {
		panic("ir: Call: argument count mismatch")
	}
	inst := &Instruction{Op: OpCall, Callee: callee}
	inst.Name = name
	result := b.insert(inst, callee.Sig.Ret)
	for i, a := range args {
		b.use(result, i, a)
	}
	return result
}

// Br builds an unconditional branch terminator.
func (b *Builder) Br(target *BasicBlock) *Instruction {
	inst := &Instruction{Op: OpBr, Succs: []*BasicBlock{target}}
	return b.insert(inst, b.ctx.VoidType())
}

// CondBr builds a conditional branch terminator; cond must be Bool.
func (b *Builder) CondBr(cond *Value, ifTrue, ifFalse *BasicBlock) *Instruction {
	requireType("CondBr condition", cond.Type, b.ctx.BoolType())
	inst := &Instruction{Op: OpCondBr, Succs: []*BasicBlock{ifTrue, ifFalse}}
	result := b.insert(inst, b.ctx.VoidType())
	b.use(result, 0, cond)
	return result
}

// Switch builds a multi-way branch terminator over an integer value.
func (b *Builder) Switch(v *Value, def *BasicBlock, cases []*Constant, dests []*BasicBlock) *Instruction {
	if len(cases) != len(dests) {
		panic("ir: Switch: cases/dests length mismatch")
	}
	succs := append([]*BasicBlock{def}, dests...)
	inst := &Instruction{Op: OpSwitch, Succs: succs, Cases: cases}
	result := b.insert(inst, b.ctx.VoidType())
	b.use(result, 0, v)
	return result
}

// Ret builds a return terminator; v is nil for a void return.
func (b *Builder) Ret(v *Value) *Instruction {
	inst := &Instruction{Op: OpRet}
	result := b.insert(inst, b.ctx.VoidType())
	if v != nil {
		b.use(result, 0, v)
	}
	return result
}

// Unreachable builds a terminator asserting control never reaches
// this point.
func (b *Builder) Unreachable() *Instruction {
	return b.insert(&Instruction{Op: OpUnreachable}, b.ctx.VoidType())
}

// Phi builds an empty phi node of the given type; incoming pairs are
// added with AddIncoming once all predecessors are known.
func (b *Builder) Phi(t *Type, name string) *Instruction {
	inst := &Instruction{Op: OpPhi}
	inst.Name = name
	return b.insert(inst, t)
}

// AddIncoming appends one (value, predecessor) pair to a Phi
// instruction built by Phi.
func (b *Builder) AddIncoming(phi *Instruction, v *Value, pred *BasicBlock) {
	if phi.Op != OpPhi {
		panic("ir: AddIncoming: not a phi instruction")
	}
	requireType("Phi incoming value", v.Type, phi.Type)
	slot := len(phi.Incoming)
	phi.Incoming = append(phi.Incoming, PhiIncoming{Value: v, Block: pred})
	b.use(phi, slot, v)
}

// Select builds a ternary select instruction: cond must be Bool,
// ifTrue and ifFalse must share a type.
func (b *Builder) Select(cond, ifTrue, ifFalse *Value, name string) *Instruction {
	requireType("Select condition", cond.Type, b.ctx.BoolType())
	requireType("Select arms", ifTrue.Type, ifFalse.Type)
	inst := &Instruction{Op: OpSelect}
	inst.Name = name
	result := b.insert(inst, ifTrue.Type)
	b.use(result, 0, cond)
	b.use(result, 1, ifTrue)
	b.use(result, 2, ifFalse)
	return result
}
