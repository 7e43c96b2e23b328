package ir

// Opcode tags the operation an Instruction (or a constant expression)
// performs. Instruction is a single tagged-variant struct rather than
// an interface hierarchy (§9 design notes): every instruction kind is
// one Go type, dispatched on Op, so a pass can switch over Op instead
// of type-asserting through an interface.
type Opcode uint8

const (
	OpAdd Opcode = iota
	OpSub
	OpMul
	OpUDiv
	OpSDiv
	OpURem
	OpSRem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr

	OpSetEQ
	OpSetNE
	OpSetLT
	OpSetLE
	OpSetGT
	OpSetGE

	OpCast

	OpAlloca
	OpMalloc
	OpFree
	OpLoad
	OpStore
	OpGEP

	OpBr
	OpCondBr
	OpSwitch
	OpRet
	OpInvoke
	OpUnreachable

	OpPhi
	OpCall
	OpSelect
)

var opcodeNames = map[Opcode]string{
	OpAdd: "add", OpSub: "sub", OpMul: "mul",
	OpUDiv: "udiv", OpSDiv: "sdiv", OpURem: "urem", OpSRem: "srem",
	OpAnd: "and", OpOr: "or", OpXor: "xor",
	OpShl: "shl", OpLShr: "lshr", OpAShr: "ashr",
	OpSetEQ: "seteq", OpSetNE: "setne", OpSetLT: "setlt",
	OpSetLE: "setle", OpSetGT: "setgt", OpSetGE: "setge",
	OpCast: "cast", OpAlloca: "alloca", OpMalloc: "malloc", OpFree: "free",
	OpLoad: "load", OpStore: "store", OpGEP: "gep",
	OpBr: "br", OpCondBr: "condbr", OpSwitch: "switch", OpRet: "ret",
	OpInvoke: "invoke", OpUnreachable: "unreachable",
	OpPhi: "phi", OpCall: "call", OpSelect: "select",
}

func (op Opcode) String() string { return opcodeName(op) }

// IsTerminator reports whether op ends a basic block (§3.3).
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBr, OpCondBr, OpSwitch, OpRet, OpInvoke, OpUnreachable:
		return true
	}
	return false
}

// IsCompare reports whether op is one of the Set* comparisons, which
// always yield Bool regardless of their operands' shared type.
func (op Opcode) IsCompare() bool {
	switch op {
	case OpSetEQ, OpSetNE, OpSetLT, OpSetLE, OpSetGT, OpSetGE:
		return true
	}
	return false
}

// PhiIncoming is one (value, predecessor) pair of a Phi instruction
// (§3.3); the number of incoming pairs must equal the block's
// predecessor count once the function is well-formed.
type PhiIncoming struct {
	Value *Value
	Block *BasicBlock
}

// Instruction is the tagged-variant instruction node (§3.2, §9). Every
// instruction embeds Value (its own result, possibly void) and carries
// Operands as a slice of *Use so an instruction's operand list and its
// operands' use lists share the same backing Use objects: RAUW never
// needs a separate operand-rewrite step.
type Instruction struct {
	Value
	Op Opcode

	Operands []*Use
	Block    *BasicBlock

	// OpGEP
	GEPIndices []int64

	// OpAlloca / OpMalloc
	AllocType *Type

	// OpCast
	CastKind CastKind

	// OpCall / OpInvoke
	Callee   *Function
	NormalTo *BasicBlock // OpInvoke normal successor
	UnwindTo *BasicBlock // OpInvoke unwind successor

	// OpBr / OpCondBr / OpSwitch successors
	Succs []*BasicBlock

	// OpSwitch case values, parallel to Succs[1:]
	Cases []*Constant

	// OpPhi
	Incoming []PhiIncoming
}

// CastKind distinguishes the family of conversion a cast performs
// (§4.4): widening/narrowing, signed/unsigned, int<->float, and
// pointer<->integer reinterpretation.
type CastKind uint8

const (
	CastTrunc CastKind = iota
	CastZExt
	CastSExt
	CastFPTrunc
	CastFPExt
	CastFPToUI
	CastFPToSI
	CastUIToFP
	CastSIToFP
	CastPtrToInt
	CastIntToPtr
	CastBitcast
)

// Operand returns the i'th operand value, or nil if it has been
// RAUW'd to null.
func (in *Instruction) Operand(i int) *Value {
	return in.Operands[i].Def
}

// NumOperands reports the instruction's operand count.
func (in *Instruction) NumOperands() int { return len(in.Operands) }

// setOperand establishes operand i as a use of def, detaching any
// previous use first. Used by the builder and by pass rewrites that
// need to change a single operand without a full RAUW.
func (in *Instruction) setOperand(i int, def *Value) {
	for len(in.Operands) <= i {
		in.Operands = append(in.Operands, nil)
	}
	if old := in.Operands[i]; old != nil && old.Def != nil {
		old.Def.removeUse(old)
	}
	var u *Use
	if def != nil {
		u = def.addUse(in, i)
	} else {
		u = &Use{User: in, Slot: i}
	}
	in.Operands[i] = u
}

// IsTerminator reports whether this instruction ends its block.
func (in *Instruction) IsTerminator() bool { return in.Op.IsTerminator() }

// Successors returns the block's control-flow successors for a
// terminator instruction, or nil for non-terminators.
func (in *Instruction) Successors() []*BasicBlock {
	switch in.Op {
	case OpInvoke:
		return []*BasicBlock{in.NormalTo, in.UnwindTo}
	default:
		return in.Succs
	}
}
