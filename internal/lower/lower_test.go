package lower

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
	"ssamid/internal/mir"
)

func buildAddFunction(t *testing.T) *ir.Function {
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
	return fn
}

func TestLowerProducesOneBlockPerIRBlock(t *testing.T) {
	fn := buildAddFunction(t)
	mfn, err := Lower(fn)
	require.NoError(t, err)
	require.Len(t, mfn.Blocks, 1)
	require.Len(t, mfn.Blocks[0].Instrs, 2)
	require.Equal(t, mir.Add, mfn.Blocks[0].Instrs[0].Op)
	require.Equal(t, mir.Ret, mfn.Blocks[0].Instrs[1].Op)
}

func TestTwoAddressPassInsertsCopyWhenOperandsDiffer(t *testing.T) {
	fn := buildAddFunction(t)
	mfn, err := Lower(fn)
	require.NoError(t, err)

	changed := TwoAddressPass{}.Run(mfn)
	require.True(t, changed)

	b := mfn.Blocks[0]
	require.Len(t, b.Instrs, 3) // move, add, ret
	require.Equal(t, mir.Move, b.Instrs[0].Op)
	require.Equal(t, mir.Add, b.Instrs[1].Op)
	require.Equal(t, b.Instrs[0].Defs[0], b.Instrs[1].Defs[0])
	require.Len(t, b.Instrs[1].Uses, 1)
}

func TestTwoAddressPassNoOpWhenAlreadySatisfied(t *testing.T) {
	mfn := mir.NewFunction("f", 1)
	b := mfn.AppendBlock("entry")
	r := mir.Register{Num: 0}
	other := mfn.NewVReg()
	b.Append(mir.Instr{Op: mir.Add, Defs: []mir.Register{r}, Uses: []mir.Register{r, other}})

	changed := TwoAddressPass{}.Run(mfn)
	require.False(t, changed)
	require.Len(t, b.Instrs, 1)
}
