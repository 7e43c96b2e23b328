package textir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
)

const addIR = `define i32 @add(i32 %a, i32 %b) {
entry:
  %sum = add i32 %a, %b
  ret i32 %sum
}
`

const branchIR = `define i32 @pick(i32 %a, i32 %b) {
entry:
  %c = setgt i32 %a, %b
  condbr %c, left, right
left:
  ret i32 %a
right:
  ret i32 %b
}
`

const callIR = `define i32 @add(i32 %a, i32 %b) {
entry:
  %sum = add i32 %a, %b
  ret i32 %sum
}

define i32 @call_add(i32 %x) {
entry:
  %r = call i32 @add(%x, %x)
  ret i32 %r
}
`

const allocaIR = `define i32 @readback() {
entry:
  %p = alloca i32
  store i32 5, %p
  %v = load i32, %p
  ret i32 %v
}
`

func TestParseStringAndBuildAddFunction(t *testing.T) {
	file, err := ParseString("add.ir", addIR)
	require.NoError(t, err)
	require.Len(t, file.Functions, 1)

	ctx := ir.NewContext()
	m, err := Build(ctx, "m", file)
	require.NoError(t, err)

	fn := m.Functions[0]
	require.Equal(t, "add", fn.Name)
	require.Len(t, fn.Blocks, 1)

	entry := fn.Blocks[0]
	require.Len(t, entry.Insts, 2)
	require.Equal(t, ir.OpAdd, entry.Insts[0].Op)
	require.Equal(t, ir.OpRet, entry.Insts[1].Op)
}

func TestBuildResolvesForwardCallsAcrossTwoPasses(t *testing.T) {
	file, err := ParseString("call.ir", callIR)
	require.NoError(t, err)

	ctx := ir.NewContext()
	m, err := Build(ctx, "m", file)
	require.NoError(t, err)
	require.Len(t, m.Functions, 2)

	caller := m.Functions[1]
	callInst := caller.Blocks[0].Insts[0]
	require.Equal(t, ir.OpCall, callInst.Op)
	require.Equal(t, "add", callInst.Callee.Name)
}

func TestBuildWiresCondBrToNamedBlocks(t *testing.T) {
	file, err := ParseString("branch.ir", branchIR)
	require.NoError(t, err)

	ctx := ir.NewContext()
	m, err := Build(ctx, "m", file)
	require.NoError(t, err)

	fn := m.Functions[0]
	require.Len(t, fn.Blocks, 3)
	condbr := fn.Blocks[0].Terminator()
	require.Equal(t, ir.OpCondBr, condbr.Op)
}

func TestBuildAllocaStoreLoadRoundTrip(t *testing.T) {
	file, err := ParseString("alloca.ir", allocaIR)
	require.NoError(t, err)

	ctx := ir.NewContext()
	m, err := Build(ctx, "m", file)
	require.NoError(t, err)

	entry := m.Functions[0].Blocks[0]
	require.Equal(t, ir.OpAlloca, entry.Insts[0].Op)
	require.Equal(t, ir.OpStore, entry.Insts[1].Op)
	require.Equal(t, ir.OpLoad, entry.Insts[2].Op)
}

func TestParseStringReportsSyntaxError(t *testing.T) {
	_, err := ParseString("broken.ir", `define i32 @broken( {
entry:
  ret i32 0
}
`)
	require.Error(t, err)
}

func TestBuildReportsUnresolvedCallee(t *testing.T) {
	file, err := ParseString("unresolved.ir", `define i32 @f() {
entry:
  %r = call i32 @missing()
  ret i32 %r
}
`)
	require.NoError(t, err)

	ctx := ir.NewContext()
	_, err = Build(ctx, "m", file)
	require.Error(t, err)
}
