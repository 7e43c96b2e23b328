package textir

import (
	"fmt"
	"strconv"
	"strings"

	"ssamid/internal/ir"
)

// Build walks a parsed File and constructs an equivalent *ir.Module
// under ctx. It supports the common scalar instruction set (the
// arithmetic/compare family, load/store/alloca, br/condbr/ret, and
// direct calls); anything else is reported as an unresolved-construct
// error rather than silently dropped.
func Build(ctx *ir.Context, moduleName string, f *File) (*ir.Module, error) {
	m := ctx.NewModule(moduleName)
	if f.Target != nil {
		td, err := ir.ParseTargetData(strings.Trim(f.Target.Layout, `"`))
		if err != nil {
			return nil, err
		}
		m.Target = td
	}
	if len(f.Globals) > 0 {
		return nil, fmt.Errorf("textir: global declarations are not supported")
	}

	b := &builder{ctx: ctx, module: m, types: map[string]*ir.Type{}, fns: map[string]*ir.Function{}}
	b.registerPrimitiveTypes()

	// Pass 1: declare every function signature so forward calls resolve.
	fns := b.fns
	for _, fd := range f.Functions {
		sig, err := b.functionSignature(fd)
		if err != nil {
			return nil, err
		}
		fns[fd.Name] = m.NewFunction(fd.Name, sig)
	}

	// Pass 2: fill in bodies.
	for _, fd := range f.Functions {
		if fd.Body == nil {
			continue
		}
		if err := b.buildBody(fns[fd.Name], fd); err != nil {
			return nil, err
		}
	}
	return m, nil
}

type builder struct {
	ctx    *ir.Context
	module *ir.Module
	types  map[string]*ir.Type
	fns    map[string]*ir.Function
}

func (b *builder) registerPrimitiveTypes() {
	b.types["void"] = b.ctx.VoidType()
	b.types["bool"] = b.ctx.BoolType()
	b.types["i8"] = b.ctx.Int8Type()
	b.types["i16"] = b.ctx.Int16Type()
	b.types["i32"] = b.ctx.Int32Type()
	b.types["i64"] = b.ctx.Int64Type()
	b.types["u8"] = b.ctx.Uint8Type()
	b.types["u16"] = b.ctx.Uint16Type()
	b.types["u32"] = b.ctx.Uint32Type()
	b.types["u64"] = b.ctx.Uint64Type()
	b.types["float"] = b.ctx.FloatType()
	b.types["double"] = b.ctx.DoubleType()
}

func (b *builder) resolveType(ref *TypeRef) (*ir.Type, error) {
	if ref == nil {
		return b.ctx.VoidType(), nil
	}
	base, ok := b.types[ref.Name]
	if !ok {
		return nil, fmt.Errorf("textir: unknown type %q", ref.Name)
	}
	if ref.Pointer {
		return b.ctx.PointerType(base), nil
	}
	return base, nil
}

func (b *builder) functionSignature(fd *FunctionDecl) (*ir.Type, error) {
	ret, err := b.resolveType(fd.Ret)
	if err != nil {
		return nil, err
	}
	params := make([]*ir.Type, len(fd.Params))
	for i, p := range fd.Params {
		pt, err := b.resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = pt
	}
	return b.ctx.FunctionType(ret, params, false), nil
}

// funcBuilder tracks the value environment (%name -> *ir.Value) while
// a single function body is being constructed.
type funcBuilder struct {
	*builder
	fn     *ir.Function
	blocks map[string]*ir.BasicBlock
	env    map[string]*ir.Value
}

func (b *builder) buildBody(fn *ir.Function, fd *FunctionDecl) error {
	fb := &funcBuilder{builder: b, fn: fn, blocks: map[string]*ir.BasicBlock{}, env: map[string]*ir.Value{}}
	for i, p := range fd.Params {
		if p.Name != "" {
			fb.env["%"+strings.TrimPrefix(p.Name, "%")] = &fn.Args[i].Value
		}
	}
	for _, bd := range fd.Body.Blocks {
		fb.blocks[bd.Label] = fn.AppendBlock(bd.Label)
	}
	for _, bd := range fd.Body.Blocks {
		block := fb.blocks[bd.Label]
		ib := ir.NewBuilder(b.ctx, block)
		for _, inst := range bd.Insts {
			if err := fb.buildInstruction(ib, inst); err != nil {
				return fmt.Errorf("textir: function %s: %w", fn.Name, err)
			}
		}
	}
	return nil
}

func (fb *funcBuilder) buildInstruction(ib *ir.Builder, decl *InstDecl) error {
	op, ok := textOpcodes[decl.Op]
	if !ok {
		return fmt.Errorf("unsupported instruction opcode %q", decl.Op)
	}

	switch decl.Op {
	case "ret":
		if len(decl.Operands) == 0 {
			ib.Ret(nil)
			return nil
		}
		v, err := fb.resolveOperand(decl.Operands[0], decl.Type)
		if err != nil {
			return err
		}
		ib.Ret(v)
		return nil
	case "br":
		target, ok := fb.blocks[decl.Operands[0].Label]
		if !ok {
			return fmt.Errorf("br: unknown block %q", decl.Operands[0].Label)
		}
		ib.Br(target)
		return nil
	case "condbr":
		if len(decl.Operands) != 3 {
			return fmt.Errorf("condbr: expected cond, label, label; got %d operand(s)", len(decl.Operands))
		}
		cond, err := fb.resolveOperand(decl.Operands[0], nil)
		if err != nil {
			return err
		}
		ifTrue, ok := fb.blocks[decl.Operands[1].Label]
		if !ok {
			return fmt.Errorf("condbr: unknown block %q", decl.Operands[1].Label)
		}
		ifFalse, ok := fb.blocks[decl.Operands[2].Label]
		if !ok {
			return fmt.Errorf("condbr: unknown block %q", decl.Operands[2].Label)
		}
		ib.CondBr(cond, ifTrue, ifFalse)
		return nil
	case "call":
		callee, ok := fb.fns[decl.Callee]
		if !ok {
			return fmt.Errorf("call: unknown function %q", decl.Callee)
		}
		args := make([]*ir.Value, len(decl.Args))
		for i, a := range decl.Args {
			v, err := fb.resolveOperand(a, nil)
			if err != nil {
				return err
			}
			args[i] = v
		}
		result := ib.Call(callee, args, strings.TrimPrefix(decl.Result, "%"))
		if decl.Result != "" {
			fb.env[decl.Result] = &result.Value
		}
		return nil
	case "load":
		ptr, err := fb.resolveOperand(decl.Operands[0], nil)
		if err != nil {
			return err
		}
		result := ib.Load(ptr, strings.TrimPrefix(decl.Result, "%"))
		fb.env["%"+strings.TrimPrefix(decl.Result, "%")] = &result.Value
		return nil
	case "store":
		val, err := fb.resolveOperand(decl.Operands[0], decl.Type)
		if err != nil {
			return err
		}
		ptr, err := fb.resolveOperand(decl.Operands[1], nil)
		if err != nil {
			return err
		}
		ib.Store(val, ptr)
		return nil
	case "alloca":
		t, err := fb.resolveType(decl.Type)
		if err != nil {
			return err
		}
		result := ib.Alloca(t, strings.TrimPrefix(decl.Result, "%"))
		fb.env[decl.Result] = &result.Value
		return nil
	default:
		t, err := fb.resolveType(decl.Type)
		if err != nil {
			return err
		}
		if len(decl.Operands) != 2 {
			return fmt.Errorf("%s: expected 2 operands, got %d", decl.Op, len(decl.Operands))
		}
		lhs, err := fb.resolveOperandTyped(decl.Operands[0], t)
		if err != nil {
			return err
		}
		rhs, err := fb.resolveOperandTyped(decl.Operands[1], t)
		if err != nil {
			return err
		}
		result := ib.BinOp(op, lhs, rhs, strings.TrimPrefix(decl.Result, "%"))
		fb.env[decl.Result] = &result.Value
		return nil
	}
}

func (fb *funcBuilder) resolveOperand(op *Operand, t *TypeRef) (*ir.Value, error) {
	if op.Literal != "" {
		if v, ok := fb.env["%"+strings.TrimPrefix(op.Literal, "%")]; ok {
			return v, nil
		}
		if n, err := strconv.ParseInt(op.Literal, 10, 64); err == nil {
			ty, terr := fb.resolveType(t)
			if terr != nil {
				ty = fb.ctx.Int32Type()
			}
			c := fb.ctx.IntConstant(ty, uint64(n))
			return &c.Value, nil
		}
	}
	return nil, fmt.Errorf("unresolved operand %q", op.Literal)
}

func (fb *funcBuilder) resolveOperandTyped(op *Operand, t *ir.Type) (*ir.Value, error) {
	if v, ok := fb.env["%"+strings.TrimPrefix(op.Literal, "%")]; ok {
		return v, nil
	}
	n, err := strconv.ParseInt(op.Literal, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unresolved operand %q", op.Literal)
	}
	c := fb.ctx.IntConstant(t, uint64(n))
	return &c.Value, nil
}

var textOpcodes = map[string]ir.Opcode{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul,
	"udiv": ir.OpUDiv, "sdiv": ir.OpSDiv, "urem": ir.OpURem, "srem": ir.OpSRem,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor,
	"shl": ir.OpShl, "lshr": ir.OpLShr, "ashr": ir.OpAShr,
	"seteq": ir.OpSetEQ, "setne": ir.OpSetNE, "setlt": ir.OpSetLT,
	"setle": ir.OpSetLE, "setgt": ir.OpSetGT, "setge": ir.OpSetGE,
	"ret": ir.OpRet, "br": ir.OpBr, "condbr": ir.OpCondBr, "load": ir.OpLoad,
	"store": ir.OpStore, "alloca": ir.OpAlloca, "call": ir.OpCall,
}
