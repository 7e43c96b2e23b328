package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
)

func buildAddModule(t *testing.T) *ir.Module {
	t.Helper()
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32, i32}, false)
	fn := m.NewFunction("add", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)
	sum := b.BinOp(ir.OpAdd, &fn.Args[0].Value, &fn.Args[1].Value, "sum")
	b.Ret(&sum.Value)
	return m
}

func TestEncodeDecodeRoundTripsSimpleFunction(t *testing.T) {
	m := buildAddModule(t)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	ctx2 := ir.NewContext()
	m2, err := DecodeModule(&buf, ctx2)
	require.NoError(t, err)
	require.Len(t, m2.Functions, 1)

	fn := m2.Functions[0]
	require.Equal(t, "add", fn.Name)
	require.False(t, fn.IsDeclaration())
	require.Len(t, fn.Blocks, 1)
	require.Len(t, fn.Blocks[0].Insts, 2)
	require.Equal(t, ir.OpAdd, fn.Blocks[0].Insts[0].Op)
	require.Equal(t, ir.OpRet, fn.Blocks[0].Insts[1].Op)
}

func TestEncodeDecodeRoundTripsBranchingFunction(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32}, false)
	fn := m.NewFunction("abs", sig)

	entry := fn.AppendBlock("entry")
	neg := fn.AppendBlock("neg")
	pos := fn.AppendBlock("pos")

	eb := ir.NewBuilder(ctx, entry)
	zero := ctx.IntConstant(i32, 0)
	cmp := eb.BinOp(ir.OpSetLT, &fn.Args[0].Value, &zero.Value, "isneg")
	eb.CondBr(&cmp.Value, neg, pos)

	nb := ir.NewBuilder(ctx, neg)
	negated := nb.BinOp(ir.OpSub, &zero.Value, &fn.Args[0].Value, "negated")
	nb.Ret(&negated.Value)

	pb := ir.NewBuilder(ctx, pos)
	pb.Ret(&fn.Args[0].Value)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	ctx2 := ir.NewContext()
	m2, err := DecodeModule(&buf, ctx2)
	require.NoError(t, err)
	require.Len(t, m2.Functions[0].Blocks, 3)
}

func TestEncodeDecodeRoundTripsDeclaration(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32}, false)
	m.NewFunction("extern_fn", sig)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	ctx2 := ir.NewContext()
	m2, err := DecodeModule(&buf, ctx2)
	require.NoError(t, err)
	require.True(t, m2.Functions[0].IsDeclaration())
}

// TestEncodeDecodeRoundTripsFloatAndNullConstants covers §8's
// round-trip property for constant kinds other than ConstInt: a bare
// float constant operand and a stored null pointer must decode back
// to their original ConstantKind, not a zero-valued ConstInt.
func TestEncodeDecodeRoundTripsFloatAndNullConstants(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	double := ctx.DoubleType()
	ptr := ctx.PointerType(double)
	sig := ctx.FunctionType(double, nil, false)
	fn := m.NewFunction("f", sig)

	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)
	lhs := ctx.FloatConstant(double, 1.5)
	rhs := ctx.FloatConstant(double, 2.5)
	sum := b.BinOp(ir.OpAdd, &lhs.Value, &rhs.Value, "sum")
	slot := b.Alloca(ptr, "slot")
	null := ctx.NullConstant(ptr)
	b.Store(&null.Value, &slot.Value)
	b.Ret(&sum.Value)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	ctx2 := ir.NewContext()
	m2, err := DecodeModule(&buf, ctx2)
	require.NoError(t, err)

	insts := m2.Functions[0].Blocks[0].Insts
	add := insts[0]
	addLHS := add.Operand(0).Owner().(*ir.Constant)
	addRHS := add.Operand(1).Owner().(*ir.Constant)
	require.Equal(t, ir.ConstFloat, addLHS.Kind)
	require.Equal(t, 1.5, addLHS.Float)
	require.Equal(t, ir.ConstFloat, addRHS.Kind)
	require.Equal(t, 2.5, addRHS.Float)

	var store *ir.Instruction
	for _, inst := range insts {
		if inst.Op == ir.OpStore {
			store = inst
		}
	}
	require.NotNil(t, store)
	stored := store.Operand(0).Owner().(*ir.Constant)
	require.Equal(t, ir.ConstNullPointer, stored.Kind)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := DecodeModule(bytes.NewReader([]byte("NOPE")), ir.NewContext())
	require.Error(t, err)
}

// TestOpenLazyDefersFunctionBodies covers §8 scenario 5: opening a
// module and reading one function's skeleton must not force any
// function body to parse, and asking for a specific function's body
// must parse only that one.
func TestOpenLazyDefersFunctionBodies(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32, i32}, false)

	addFn := m.NewFunction("add", sig)
	addEntry := addFn.AppendBlock("entry")
	ab := ir.NewBuilder(ctx, addEntry)
	sum := ab.BinOp(ir.OpAdd, &addFn.Args[0].Value, &addFn.Args[1].Value, "sum")
	ab.Ret(&sum.Value)

	mulFn := m.NewFunction("mul", sig)
	mulEntry := mulFn.AppendBlock("entry")
	mb := ir.NewBuilder(ctx, mulEntry)
	prod := mb.BinOp(ir.OpMul, &mulFn.Args[0].Value, &mulFn.Args[1].Value, "prod")
	mb.Ret(&prod.Value)

	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	lm, err := OpenLazy(buf.Bytes(), ir.NewContext())
	require.NoError(t, err)
	require.Len(t, lm.Module.Functions, 2)

	// Skeleton data is available with no blocks materialized yet.
	gotAdd := lm.Module.Functions[0]
	gotMul := lm.Module.Functions[1]
	require.Equal(t, "add", gotAdd.Name)
	require.Equal(t, "mul", gotMul.Name)
	require.Len(t, gotAdd.Blocks, 1)
	require.Empty(t, gotAdd.Blocks[0].Insts, "block shell must carry no instructions before Materialize")
	require.Empty(t, gotMul.Blocks[0].Insts)

	// Materializing "add" must not touch "mul"'s body.
	require.NoError(t, lm.Materialize(gotAdd))
	require.Len(t, gotAdd.Blocks[0].Insts, 2)
	require.Equal(t, ir.OpAdd, gotAdd.Blocks[0].Insts[0].Op)
	require.Empty(t, gotMul.Blocks[0].Insts, "materializing one function must not parse another's body")

	require.NoError(t, lm.Materialize(gotMul))
	require.Len(t, gotMul.Blocks[0].Insts, 2)
	require.Equal(t, ir.OpMul, gotMul.Blocks[0].Insts[0].Op)

	// Materialize is idempotent.
	require.NoError(t, lm.Materialize(gotAdd))
	require.Len(t, gotAdd.Blocks[0].Insts, 2)
}
