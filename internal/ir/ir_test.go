package ir

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeUniquing(t *testing.T) {
	ctx := NewContext()
	a := ctx.PointerType(ctx.Int32Type())
	b := ctx.PointerType(ctx.Int32Type())
	require.Same(t, a, b, "identical pointer types must be the same pointer")

	arrA := ctx.ArrayType(ctx.Int8Type(), 4)
	arrB := ctx.ArrayType(ctx.Int8Type(), 4)
	require.Same(t, arrA, arrB)

	arrC := ctx.ArrayType(ctx.Int8Type(), 5)
	require.NotSame(t, arrA, arrC)
}

func TestOpaqueStructRecursiveType(t *testing.T) {
	ctx := NewContext()
	node := ctx.NewOpaqueStruct("node")
	nodePtr := ctx.PointerType(node)
	ctx.CompleteStruct(node, []*Type{ctx.Int32Type(), nodePtr})

	require.Same(t, node, nodePtr.Elem)
	require.True(t, node.Sized())
}

func TestConstantUniquing(t *testing.T) {
	ctx := NewContext()
	a := ctx.IntConstant(ctx.Int32Type(), 42)
	b := ctx.IntConstant(ctx.Int32Type(), 42)
	require.Same(t, a, b)

	c := ctx.IntConstant(ctx.Uint32Type(), 42)
	require.NotSame(t, a, c, "same bit pattern under a different type must not unify")
}

func TestConstantFoldBinaryAdd(t *testing.T) {
	ctx := NewContext()
	i32 := ctx.Int32Type()
	lhs := ctx.IntConstant(i32, 40)
	rhs := ctx.IntConstant(i32, 2)
	result, ok := ConstantFoldBinaryInstruction(ctx, OpAdd, lhs, rhs)
	require.True(t, ok)
	require.EqualValues(t, 42, result.Int)
}

func TestConstantFoldSDivByZeroNoFold(t *testing.T) {
	ctx := NewContext()
	i32 := ctx.Int32Type()
	lhs := ctx.IntConstant(i32, 10)
	rhs := ctx.IntConstant(i32, 0)
	_, ok := ConstantFoldBinaryInstruction(ctx, OpSDiv, lhs, rhs)
	require.False(t, ok)
}

func TestConstantFoldSignedOverflowNoFold(t *testing.T) {
	ctx := NewContext()
	i32 := ctx.Int32Type()
	minVal := ctx.IntConstant(i32, uint64(uint32(1)<<31))
	negOne := ctx.IntConstant(i32, widthMask(32))
	_, ok := ConstantFoldBinaryInstruction(ctx, OpSDiv, minVal, negOne)
	require.False(t, ok, "INT_MIN / -1 must not fold")
}

func TestConstantFoldPointerCompare(t *testing.T) {
	ctx := NewContext()
	pt := ctx.PointerType(ctx.Int8Type())
	n1 := ctx.NullConstant(pt)
	n2 := ctx.NullConstant(pt)
	require.Same(t, n1, n2)

	eq, ok := ConstantFoldBinaryInstruction(ctx, OpSetEQ, n1, n2)
	require.True(t, ok)
	require.EqualValues(t, 1, eq.Int)
}

func TestStructLayoutPadding(t *testing.T) {
	ctx := NewContext()
	td := DefaultTargetData()
	st := ctx.StructType(ctx.Int8Type(), ctx.Int32Type())
	layout := structLayoutFor(ctx, st, td)
	require.Equal(t, []int{0, 4}, layout.Offsets, "i32 field must be padded to 4-byte alignment")
	require.Equal(t, 8, layout.Size)
}

func TestBuildSimpleFunctionAndPrint(t *testing.T) {
	ctx := NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*Type{i32, i32}, false)
	fn := m.NewFunction("add", sig)

	entry := fn.AppendBlock("entry")
	b := NewBuilder(ctx, entry)
	sum := b.BinOp(OpAdd, &fn.Args[0].Value, &fn.Args[1].Value, "sum")
	b.Ret(&sum.Value)

	require.Equal(t, entry, fn.EntryBlock())
	require.Empty(t, entry.Predecessors())
	require.NotNil(t, entry.Terminator())
	require.Equal(t, OpRet, entry.Terminator().Op)

	var buf bytes.Buffer
	WriteModule(&buf, m)
	require.Contains(t, buf.String(), "define i32 @add(i32 %0, i32 %1) {")
}

func TestReplaceAllUsesWith(t *testing.T) {
	ctx := NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*Type{i32}, false)
	fn := m.NewFunction("id", sig)
	entry := fn.AppendBlock("entry")
	b := NewBuilder(ctx, entry)

	zero := ctx.IntConstant(i32, 0)
	add := b.BinOp(OpAdd, &fn.Args[0].Value, &zero.Value, "v")
	b.Ret(&add.Value)

	require.Equal(t, 1, fn.Args[0].NumUses())
	ReplaceAllUsesWith(&fn.Args[0].Value, &zero.Value)
	require.Equal(t, 0, fn.Args[0].NumUses())
	require.Same(t, &zero.Value, add.Operands[0].Def)
}

func TestCloneFunctionIsIndependent(t *testing.T) {
	ctx := NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*Type{i32}, false)
	fn := m.NewFunction("f", sig)
	entry := fn.AppendBlock("entry")
	b := NewBuilder(ctx, entry)
	one := ctx.IntConstant(i32, 1)
	add := b.BinOp(OpAdd, &fn.Args[0].Value, &one.Value, "")
	b.Ret(&add.Value)

	clone := CloneFunction(fn, "f.clone")
	require.NotSame(t, fn, clone)
	require.NotSame(t, fn.Blocks[0], clone.Blocks[0])
	require.Len(t, clone.Blocks[0].Insts, 2)
	require.NotSame(t, fn.Blocks[0].Insts[0], clone.Blocks[0].Insts[0])
	require.Same(t, &clone.Args[0].Value, clone.Blocks[0].Insts[0].Operands[0].Def)
}
