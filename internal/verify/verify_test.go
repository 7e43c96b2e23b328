package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
)

func buildAddFunction(t *testing.T) (*ir.Context, *ir.Function) {
	t.Helper()
	ctx := ir.NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32, i32}, false)
	fn := m.NewFunction("add", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)
	sum := b.BinOp(ir.OpAdd, &fn.Args[0].Value, &fn.Args[1].Value, "sum")
	b.Ret(&sum.Value)
	return ctx, fn
}

func TestVerifyWellFormedFunction(t *testing.T) {
	_, fn := buildAddFunction(t)
	r := &Result{}
	Function(fn, r)
	require.False(t, r.HasErrors())
}

func TestVerifyCatchesMissingTerminator(t *testing.T) {
	ctx, fn := buildAddFunction(t)
	dangling := fn.AppendBlock("dangling")
	ir.NewBuilder(ctx, dangling)
	// leave dangling with no instructions at all.
	r := &Result{}
	Function(fn, r)
	require.True(t, r.HasErrors())
}

func TestVerifyCatchesPhiPredecessorMismatch(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, nil, false)
	fn := m.NewFunction("f", sig)

	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)
	phi := b.Phi(i32, "p")
	zero := ctx.IntConstant(i32, 0)
	b.AddIncoming(phi, &zero.Value, entry)
	b.Ret(&phi.Value)

	r := &Result{}
	Function(fn, r)
	require.True(t, r.HasErrors(), "phi has one incoming pair but entry has zero predecessors")
}

func TestVerifyCatchesBadOperandType(t *testing.T) {
	ctx, fn := buildAddFunction(t)
	entry := fn.Blocks[0]
	ret := entry.Terminator()
	require.NotNil(t, ret)

	// Replace the ret with one returning a bool constant. Builder.Ret
	// does not check the value against the function's return type, so
	// this builds the mismatch a buggy pass rewrite or a malformed
	// decode could produce.
	boolVal := ctx.BoolConstant(true)
	entry.Insts = entry.Insts[:len(entry.Insts)-1]
	b := ir.NewBuilder(ctx, entry)
	b.Ret(&boolVal.Value)

	r := &Result{}
	Function(fn, r)
	require.True(t, r.HasErrors(), "ret value type does not match function's i32 return type")
}
