package fold

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
	"ssamid/internal/passes"
)

func TestPeepholeFoldsConstantAdd(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, nil, false)
	fn := m.NewFunction("f", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)

	c1 := ctx.IntConstant(i32, 2)
	c2 := ctx.IntConstant(i32, 3)
	add := b.BinOp(ir.OpAdd, &c1.Value, &c2.Value, "")
	b.Ret(&add.Value)

	p := NewPeephole(ctx)
	changed, err := p.RunOnBasicBlock(entry, passes.NewAnalysisManager())
	require.NoError(t, err)
	require.True(t, changed)

	ret := entry.Terminator()
	folded, ok := ret.Operand(0).Owner().(*ir.Constant)
	require.True(t, ok)
	require.EqualValues(t, 5, folded.Int)
}

func TestPeepholeSimplifiesAddZero(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("test")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{i32}, false)
	fn := m.NewFunction("f", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)

	zero := ctx.IntConstant(i32, 0)
	add := b.BinOp(ir.OpAdd, &fn.Args[0].Value, &zero.Value, "")
	b.Ret(&add.Value)

	p := NewPeephole(ctx)
	_, err := p.RunOnBasicBlock(entry, passes.NewAnalysisManager())
	require.NoError(t, err)

	ret := entry.Terminator()
	require.Same(t, &fn.Args[0].Value, ret.Operand(0))
}
