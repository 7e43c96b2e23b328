package codec

import (
	"bufio"
	"io"
	"math"

	"ssamid/internal/diag"
	"ssamid/internal/ir"
	"ssamid/internal/verify"
)

// DecodeModule reads a stream written by EncodeModule back into a
// fresh *ir.Module under ctx, materializing every function body up
// front, then runs the structural verifier over the result and
// returns its first violation as the error. It is OpenLazy followed
// by MaterializeAll and verification (OpenLazy and Materialize do
// not verify): callers that want
// §4.5's lazy, function-at-a-time materialization instead should call
// OpenLazy directly. Because the codec doesn't support phi (§4.5's
// documented first-cut scope, see opTag), every operand a decoded
// instruction reads was necessarily produced earlier in program
// order, so a single forward pass over each function's blocks
// suffices: no separate fixup pass over forward references is needed
// the way the type table needs one for recursive structs.
func DecodeModule(r io.Reader, ctx *ir.Context) (*ir.Module, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "short read: "+err.Error())
	}
	lm, err := OpenLazy(data, ctx)
	if err != nil {
		return nil, err
	}
	if err := lm.MaterializeAll(); err != nil {
		return nil, err
	}
	if res := verify.Module(lm.Module); res.HasErrors() {
		return nil, res.Errors[0]
	}
	return lm.Module, nil
}

func readGlobal(br *bufio.Reader, m *ir.Module, types []*ir.Type) error {
	name, err := readBytes(br)
	if err != nil {
		return diag.New(diag.CodecTruncated, "truncated global name")
	}
	typeID, err := readVBR7(br)
	if err != nil {
		return diag.New(diag.CodecTruncated, "truncated global type id")
	}
	constFlag, err := readVBR7(br)
	if err != nil {
		return err
	}
	hasInit, err := readVBR7(br)
	if err != nil {
		return err
	}
	if int(typeID) >= len(types) {
		return diag.New(diag.CodecUnresolvedRef, "global type id out of range")
	}
	gv := m.NewGlobalVariable(string(name), types[typeID], constFlag != 0)
	if hasInit != 0 {
		n, err := readVBR7(br)
		if err != nil {
			return err
		}
		gv.Initializer = m.Context().IntConstant(gv.ValueType, n)
	}
	return nil
}

// readFunctionHeader declares the function and, for a definition,
// creates every block shell up front (so OpBr/OpCondBr block-index
// references always resolve) and returns the per-block instruction
// counts needed to know when each block's decode loop ends.
func readFunctionHeader(br *bufio.Reader, m *ir.Module, types []*ir.Type) (*ir.Function, []uint64, error) {
	name, err := readBytes(br)
	if err != nil {
		return nil, nil, diag.New(diag.CodecTruncated, "truncated function name")
	}
	sigID, err := readVBR7(br)
	if err != nil {
		return nil, nil, err
	}
	if int(sigID) >= len(types) {
		return nil, nil, diag.New(diag.CodecUnresolvedRef, "function signature type id out of range")
	}
	declFlag, err := readVBR7(br)
	if err != nil {
		return nil, nil, err
	}
	fn := m.NewFunction(string(name), types[sigID])
	if declFlag != 0 {
		return fn, nil, nil
	}

	blockCount, err := readVBR7(br)
	if err != nil {
		return nil, nil, diag.New(diag.CodecTruncated, "truncated block count")
	}
	counts := make([]uint64, blockCount)
	for i := range counts {
		label, err := readBytes(br)
		if err != nil {
			return nil, nil, err
		}
		n, err := readVBR7(br)
		if err != nil {
			return nil, nil, err
		}
		fn.AppendBlock(string(label))
		counts[i] = n
	}
	return fn, counts, nil
}

// wireValues accumulates, in order, the decoded *ir.Value for every
// argument and instruction result of a function being decoded,
// mirroring wireSlots' numbering on the encode side, and carries the
// context and type table needed to materialize constant operands.
type wireValues struct {
	ctx    *ir.Context
	types  []*ir.Type
	values []*ir.Value
}

func (w *wireValues) append(v *ir.Value) { w.values = append(w.values, v) }

func (w *wireValues) at(n int) (*ir.Value, error) {
	if n < 0 || n >= len(w.values) {
		return nil, diag.New(diag.CodecUnresolvedRef, "slot reference out of range")
	}
	return w.values[n], nil
}

func (w *wireValues) typeAt(id uint64) (*ir.Type, error) {
	if id >= uint64(len(w.types)) {
		return nil, diag.New(diag.CodecUnresolvedRef, "type id out of range")
	}
	return w.types[id], nil
}

// blockAt resolves a wire-supplied block index against fn's already
// materialized block shells (§4.5: malformed branch targets are a
// recoverable CodecError, not a panic).
func blockAt(fn *ir.Function, idx uint64) (*ir.BasicBlock, error) {
	if idx >= uint64(len(fn.Blocks)) {
		return nil, diag.New(diag.CodecUnresolvedRef, "branch target block index out of range")
	}
	return fn.Blocks[idx], nil
}

func readFunctionBody(br *bufio.Reader, ctx *ir.Context, fn *ir.Function, fns []*ir.Function, types []*ir.Type, counts []uint64) error {
	wv := &wireValues{ctx: ctx, types: types}
	for _, a := range fn.Args {
		wv.append(&a.Value)
	}

	for bi, b := range fn.Blocks {
		ib := ir.NewBuilder(ctx, b)
		for ii := uint64(0); ii < counts[bi]; ii++ {
			if err := readInstruction(br, ctx, ib, fn, fns, wv); err != nil {
				return err
			}
		}
	}
	return nil
}

// readValueRef resolves one operand reference. A refConstant payload
// is now self-describing (type id + ConstantKind tag + value, written
// by writeValueRef), so unlike integer literals it no longer needs a
// caller-supplied expected type to reconstruct the right kind of
// constant (§3.2, §8 round-trip property).
func readValueRef(br *bufio.Reader, wv *wireValues) (*ir.Value, error) {
	tag, err := readVBR7(br)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated value reference tag")
	}
	switch tag {
	case refNull:
		return nil, nil
	case refConstant:
		typeID, err := readVBR7(br)
		if err != nil {
			return nil, err
		}
		t, err := wv.typeAt(typeID)
		if err != nil {
			return nil, err
		}
		kind, err := readVBR7(br)
		if err != nil {
			return nil, err
		}
		switch kind {
		case constKindFloat:
			bits, err := readVBR7(br)
			if err != nil {
				return nil, err
			}
			c := wv.ctx.FloatConstant(t, math.Float64frombits(bits))
			return &c.Value, nil
		case constKindNull:
			c := wv.ctx.NullConstant(t)
			return &c.Value, nil
		case constKindInt:
			bits, err := readVBR7(br)
			if err != nil {
				return nil, err
			}
			c := wv.ctx.IntConstant(t, bits)
			return &c.Value, nil
		default:
			return nil, diag.New(diag.CodecUnresolvedRef, "unknown constant kind tag")
		}
	case refSlot:
		n, err := readVBR7(br)
		if err != nil {
			return nil, err
		}
		return wv.at(int(n))
	default:
		return nil, diag.New(diag.CodecUnresolvedRef, "unknown value reference tag")
	}
}

func readInstruction(br *bufio.Reader, ctx *ir.Context, ib *ir.Builder, fn *ir.Function, fns []*ir.Function, wv *wireValues) error {
	tagv, err := readVBR7(br)
	if err != nil {
		return diag.New(diag.CodecTruncated, "truncated instruction opcode")
	}
	op, ok := tagToOp[opTag(tagv)]
	if !ok {
		return diag.New(diag.CodecUnresolvedRef, "unknown instruction opcode tag")
	}

	switch op {
	case ir.OpBr:
		idx, err := readVBR7(br)
		if err != nil {
			return err
		}
		dest, err := blockAt(fn, idx)
		if err != nil {
			return err
		}
		ib.Br(dest)
		return nil
	case ir.OpCondBr:
		cond, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		t, err := readVBR7(br)
		if err != nil {
			return err
		}
		f, err := readVBR7(br)
		if err != nil {
			return err
		}
		tb, err := blockAt(fn, t)
		if err != nil {
			return err
		}
		fb, err := blockAt(fn, f)
		if err != nil {
			return err
		}
		ib.CondBr(cond, tb, fb)
		return nil
	case ir.OpRet:
		v, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		ib.Ret(v)
		return nil
	case ir.OpAlloca:
		typeID, err := readVBR7(br)
		if err != nil {
			return err
		}
		allocType, err := wv.typeAt(typeID)
		if err != nil {
			return err
		}
		result := ib.Alloca(allocType, "")
		wv.append(&result.Value)
		return nil
	case ir.OpLoad:
		ptr, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		result := ib.Load(ptr, "")
		wv.append(&result.Value)
		return nil
	case ir.OpStore:
		ptr, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		val, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		ib.Store(val, ptr)
		return nil
	case ir.OpCall:
		calleeIdx, err := readVBR7(br)
		if err != nil {
			return err
		}
		if int(calleeIdx) >= len(fns) {
			return diag.New(diag.CodecUnresolvedRef, "call callee index out of range")
		}
		callee := fns[calleeIdx]
		args := make([]*ir.Value, len(callee.Sig.Params))
		for i := range args {
			a, err := readValueRef(br, wv)
			if err != nil {
				return err
			}
			args[i] = a
		}
		result := ib.Call(callee, args, "")
		if result.Type.Kind != ir.Void {
			wv.append(&result.Value)
		}
		return nil
	default: // arithmetic and comparison family
		typeID, err := readVBR7(br)
		if err != nil {
			return err
		}
		if _, err := wv.typeAt(typeID); err != nil {
			return err
		}
		lhs, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		rhs, err := readValueRef(br, wv)
		if err != nil {
			return err
		}
		result := ib.BinOp(op, lhs, rhs, "")
		wv.append(&result.Value)
		return nil
	}
}
