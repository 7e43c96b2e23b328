package dsa

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
)

func TestMergeNodesUnionsFields(t *testing.T) {
	a := NewNode(nil)
	b := NewNode(nil)
	a.Fields[0] = NewHandle(NewNode(nil), 0)
	b.Fields[0] = NewHandle(NewNode(nil), 0)
	b.Flags |= FlagHeap

	merged := MergeNodes(a, b)
	require.Equal(t, a.Find(), merged)
	require.Equal(t, b.Find(), merged)
	require.True(t, merged.Flags&FlagHeap != 0)
}

func TestBuildLocalMapsPointerArgumentUsedByStoreAndLoad(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	ptrI32 := ctx.PointerType(i32)
	sig := ctx.FunctionType(i32, []*ir.Type{ptrI32}, false)
	fn := m.NewFunction("readback", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)

	five := ctx.IntConstant(i32, 5)
	b.Store(&five.Value, &fn.Args[0].Value)
	loaded := b.Load(&fn.Args[0].Value, "loaded")
	b.Ret(&loaded.Value)

	g := BuildLocal(fn)
	require.NotNil(t, g.Scalars[&fn.Args[0].Value])
}

func TestEscapesForAllocaNodeOnceMarked(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(ctx.VoidType(), nil, false)
	fn := m.NewFunction("f", sig)
	entry := fn.AppendBlock("entry")
	b := ir.NewBuilder(ctx, entry)
	alloc := b.Alloca(i32, "p")
	b.Ret(nil)

	g := BuildLocal(fn)
	h := g.Scalars[&alloc.Value]
	require.NotNil(t, h)
	require.False(t, Escapes(h))

	MarkEscaping(h)
	require.True(t, Escapes(h))
}

func TestCloseBottomUpUnifiesCallSiteWithCallee(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	ptrI32 := ctx.PointerType(i32)
	calleeSig := ctx.FunctionType(ctx.VoidType(), []*ir.Type{ptrI32}, false)
	callee := m.NewFunction("store_through", calleeSig)
	cEntry := callee.AppendBlock("entry")
	cb := ir.NewBuilder(ctx, cEntry)
	one := ctx.IntConstant(i32, 1)
	cb.Store(&one.Value, &callee.Args[0].Value)
	cb.Ret(nil)

	callerSig := ctx.FunctionType(ctx.VoidType(), nil, false)
	caller := m.NewFunction("caller", callerSig)
	callerEntry := caller.AppendBlock("entry")
	b := ir.NewBuilder(ctx, callerEntry)
	alloc := b.Alloca(i32, "p")
	b.Call(callee, []*ir.Value{&alloc.Value}, "")
	b.Ret(nil)

	prog := BuildProgram(m)
	prog.CloseBottomUp()

	callerGraph := prog.Graphs[caller]
	calleeGraph := prog.Graphs[callee]
	allocHandle := callerGraph.Scalars[&alloc.Value]
	formalHandle := calleeGraph.Scalars[&callee.Args[0].Value]
	require.Equal(t, allocHandle.Node().Find(), formalHandle.Node().Find())
}

func TestCloseEquivalenceClassMergesMutuallyRecursiveFunctions(t *testing.T) {
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	ptrI32 := ctx.PointerType(i32)
	sig := ctx.FunctionType(ctx.VoidType(), []*ir.Type{ptrI32}, false)

	even := m.NewFunction("even", sig)
	odd := m.NewFunction("odd", sig)

	evenEntry := even.AppendBlock("entry")
	eb := ir.NewBuilder(ctx, evenEntry)
	eb.Call(odd, []*ir.Value{&even.Args[0].Value}, "")
	eb.Ret(nil)

	oddEntry := odd.AppendBlock("entry")
	ob := ir.NewBuilder(ctx, oddEntry)
	ob.Call(even, []*ir.Value{&odd.Args[0].Value}, "")
	ob.Ret(nil)

	prog := BuildProgram(m)
	prog.CloseEquivalenceClass()

	require.Same(t, prog.Graphs[even], prog.Graphs[odd], "mutually recursive functions must share one merged graph")
}
