package codec

import (
	"bufio"
	"bytes"
	"io"
	"math"

	"ssamid/internal/diag"
	"ssamid/internal/ir"
)

// opTag is the on-wire instruction opcode; kept as its own small enum
// (rather than encoding ir.Opcode's raw value) so the wire format
// doesn't break if internal/ir ever reorders its Opcode constants.
// Only the scalar instruction subset below round-trips through the
// binary codec; casts, GEP, switch, phi, and invoke have no wire tag
// and exist in text IR only.
type opTag uint64

const (
	opAdd opTag = iota
	opSub
	opMul
	opUDiv
	opSDiv
	opURem
	opSRem
	opAnd
	opOr
	opXor
	opShl
	opLShr
	opAShr
	opSetEQ
	opSetNE
	opSetLT
	opSetLE
	opSetGT
	opSetGE
	opLoad
	opStore
	opAlloca
	opBr
	opCondBr
	opRet
	opCall
)

var opToTag = map[ir.Opcode]opTag{
	ir.OpAdd: opAdd, ir.OpSub: opSub, ir.OpMul: opMul,
	ir.OpUDiv: opUDiv, ir.OpSDiv: opSDiv, ir.OpURem: opURem, ir.OpSRem: opSRem,
	ir.OpAnd: opAnd, ir.OpOr: opOr, ir.OpXor: opXor,
	ir.OpShl: opShl, ir.OpLShr: opLShr, ir.OpAShr: opAShr,
	ir.OpSetEQ: opSetEQ, ir.OpSetNE: opSetNE, ir.OpSetLT: opSetLT,
	ir.OpSetLE: opSetLE, ir.OpSetGT: opSetGT, ir.OpSetGE: opSetGE,
	ir.OpLoad: opLoad, ir.OpStore: opStore, ir.OpAlloca: opAlloca,
	ir.OpBr: opBr, ir.OpCondBr: opCondBr, ir.OpRet: opRet, ir.OpCall: opCall,
}

var tagToOp = func() map[opTag]ir.Opcode {
	m := make(map[opTag]ir.Opcode, len(opToTag))
	for op, tag := range opToTag {
		m[tag] = op
	}
	return m
}()

// Operand reference tags: every value reference in the instruction
// stream is prefixed by one of these.
const (
	refNull     = 0 // no payload: the use has been RAUW'd to null
	refConstant = 1 // payload: the constant's type id, kind tag, and value
	refSlot     = 2 // payload: a previously decoded value's slot number
)

// Constant-kind tags distinguish the payload following a refConstant
// value reference, so a constant operand round-trips through its
// actual ConstantKind instead of always being reconstructed as a
// ConstInt (§3.2, §8 round-trip property).
const (
	constKindInt   = 0 // payload: raw bit pattern (ir.Context.IntConstant)
	constKindFloat = 1 // payload: IEEE-754 bits of the float64 value
	constKindNull  = 2 // no further payload
)

// EncodeModule serializes m to the binary IR format described in this
// package's documentation.
func EncodeModule(w io.Writer, m *ir.Module) error {
	bw := bufio.NewWriter(w)
	if err := writeHeader(bw); err != nil {
		return err
	}
	if err := writeBytes(bw, []byte(m.Target.String())); err != nil {
		return err
	}

	enc := newTypeEncoder()
	fnSigIDs := make([]int, len(m.Functions))
	for i, fn := range m.Functions {
		fnSigIDs[i] = enc.intern(fn.Sig)
	}
	gvTypeIDs := make([]int, len(m.Globals))
	for i, gv := range m.Globals {
		gvTypeIDs[i] = enc.intern(gv.ValueType)
	}
	if err := writeTypeTable(bw, enc); err != nil {
		return err
	}

	if err := writeVBR7(bw, uint64(len(m.Globals))); err != nil {
		return err
	}
	for i, gv := range m.Globals {
		if err := writeGlobal(bw, gv, gvTypeIDs[i]); err != nil {
			return err
		}
	}

	fnIdx := make(map[*ir.Function]int, len(m.Functions))
	for i, fn := range m.Functions {
		fnIdx[fn] = i
	}
	if err := writeVBR7(bw, uint64(len(m.Functions))); err != nil {
		return err
	}
	for i, fn := range m.Functions {
		if err := writeFunction(bw, fn, fnSigIDs[i], enc, fnIdx); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeGlobal(w *bufio.Writer, gv *ir.GlobalVariable, typeID int) error {
	if err := writeBytes(w, []byte(gv.Name)); err != nil {
		return err
	}
	if err := writeVBR7(w, uint64(typeID)); err != nil {
		return err
	}
	constFlag := uint64(0)
	if gv.Constant {
		constFlag = 1
	}
	if err := writeVBR7(w, constFlag); err != nil {
		return err
	}
	hasInit := uint64(0)
	if gv.Initializer != nil {
		hasInit = 1
	}
	if err := writeVBR7(w, hasInit); err != nil {
		return err
	}
	if gv.Initializer != nil {
		return writeVBR7(w, gv.Initializer.Int)
	}
	return nil
}

// writeFunction emits a function's skeleton (name, signature, block
// shells with names/instruction-counts) followed by its instruction
// stream wrapped as one length-prefixed byte string (§4.5 block 6:
// "either inline, or lazy stubs holding only a (offset, length) back
// into the bytecode buffer"). Wrapping the body this way lets a reader
// skip straight past it with readBytes without decoding a single
// instruction, which is what OpenLazy (lazy.go) relies on.
func writeFunction(w *bufio.Writer, fn *ir.Function, sigID int, enc *typeEncoder, fnIdx map[*ir.Function]int) error {
	if err := writeBytes(w, []byte(fn.Name)); err != nil {
		return err
	}
	if err := writeVBR7(w, uint64(sigID)); err != nil {
		return err
	}
	declFlag := uint64(0)
	if fn.IsDeclaration() {
		declFlag = 1
	}
	if err := writeVBR7(w, declFlag); err != nil {
		return err
	}
	if fn.IsDeclaration() {
		return nil
	}

	blockIdx := make(map[*ir.BasicBlock]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		blockIdx[b] = i
	}
	if err := writeVBR7(w, uint64(len(fn.Blocks))); err != nil {
		return err
	}
	for _, b := range fn.Blocks {
		if err := writeBytes(w, []byte(b.Name)); err != nil {
			return err
		}
		if err := writeVBR7(w, uint64(len(b.Insts))); err != nil {
			return err
		}
	}

	var body bytes.Buffer
	bw := bufio.NewWriter(&body)
	slots := newWireSlots(fn)
	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if err := writeInstruction(bw, inst, slots, blockIdx, fnIdx, enc); err != nil {
				return err
			}
			slots.record(inst)
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return writeBytes(w, body.Bytes())
}

// wireSlots numbers every argument and instruction result in a
// function unconditionally (unlike ir.SlotTracker, which only numbers
// unnamed values for the printer): the binary codec doesn't carry SSA
// names at all, so its own numbering needs to be total and
// deterministic independent of what the in-memory IR happens to be
// named.
type wireSlots struct {
	slots map[*ir.Value]int
	next  int
}

func newWireSlots(fn *ir.Function) *wireSlots {
	s := &wireSlots{slots: make(map[*ir.Value]int)}
	for _, a := range fn.Args {
		s.slots[&a.Value] = s.next
		s.next++
	}
	return s
}

func (s *wireSlots) record(inst *ir.Instruction) {
	if inst.Type.Kind == ir.Void {
		return
	}
	s.slots[&inst.Value] = s.next
	s.next++
}

func (s *wireSlots) slot(v *ir.Value) (int, bool) {
	n, ok := s.slots[v]
	return n, ok
}

func writeValueRef(w *bufio.Writer, v *ir.Value, slots *wireSlots, enc *typeEncoder) error {
	if v == nil {
		return writeVBR7(w, refNull)
	}
	if c, ok := v.Owner().(*ir.Constant); ok {
		if err := writeVBR7(w, refConstant); err != nil {
			return err
		}
		if err := writeVBR7(w, uint64(enc.intern(c.Type))); err != nil {
			return err
		}
		switch c.Kind {
		case ir.ConstFloat:
			if err := writeVBR7(w, constKindFloat); err != nil {
				return err
			}
			return writeVBR7(w, math.Float64bits(c.Float))
		case ir.ConstNullPointer:
			return writeVBR7(w, constKindNull)
		default:
			if err := writeVBR7(w, constKindInt); err != nil {
				return err
			}
			return writeVBR7(w, c.Int)
		}
	}
	n, ok := slots.slot(v)
	if !ok {
		return diag.New(diag.CodecUnresolvedRef, "operand has neither a slot nor is a constant")
	}
	if err := writeVBR7(w, refSlot); err != nil {
		return err
	}
	return writeVBR7(w, uint64(n))
}

func writeInstruction(w *bufio.Writer, inst *ir.Instruction, slots *wireSlots, blockIdx map[*ir.BasicBlock]int, fnIdx map[*ir.Function]int, enc *typeEncoder) error {
	tag, ok := opToTag[inst.Op]
	if !ok {
		return diag.New(diag.CodecUnresolvedRef, "instruction opcode has no wire encoding: "+inst.Op.String())
	}
	if err := writeVBR7(w, uint64(tag)); err != nil {
		return err
	}

	switch inst.Op {
	case ir.OpBr:
		return writeVBR7(w, uint64(blockIdx[inst.Succs[0]]))
	case ir.OpCondBr:
		if err := writeValueRef(w, inst.Operand(0), slots, enc); err != nil {
			return err
		}
		if err := writeVBR7(w, uint64(blockIdx[inst.Succs[0]])); err != nil {
			return err
		}
		return writeVBR7(w, uint64(blockIdx[inst.Succs[1]]))
	case ir.OpRet:
		if inst.NumOperands() == 0 {
			return writeVBR7(w, refNull)
		}
		return writeValueRef(w, inst.Operand(0), slots, enc)
	case ir.OpAlloca:
		return writeVBR7(w, uint64(enc.intern(inst.AllocType)))
	case ir.OpLoad:
		return writeValueRef(w, inst.Operand(0), slots, enc)
	case ir.OpStore:
		// pointer first on the wire so its pointee type is known before
		// the stored value (needed if the value is a bare constant).
		if err := writeValueRef(w, inst.Operand(1), slots, enc); err != nil {
			return err
		}
		return writeValueRef(w, inst.Operand(0), slots, enc)
	case ir.OpCall:
		if err := writeVBR7(w, uint64(fnIdx[inst.Callee])); err != nil {
			return err
		}
		for _, u := range inst.Operands {
			if err := writeValueRef(w, u.Def, slots, enc); err != nil {
				return err
			}
		}
		return nil
	default: // arithmetic and comparison family
		if err := writeVBR7(w, uint64(enc.intern(inst.Operand(0).Type))); err != nil {
			return err
		}
		if err := writeValueRef(w, inst.Operand(0), slots, enc); err != nil {
			return err
		}
		return writeValueRef(w, inst.Operand(1), slots, enc)
	}
}
