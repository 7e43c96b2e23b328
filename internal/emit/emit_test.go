package emit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRecordsSymbolOffsets(t *testing.T) {
	b := NewBuffer(nil)
	b.StartFunctionBody("f")
	b.EmitBytes([]byte{0x90, 0x90})
	b.EndFunctionBody()

	require.Equal(t, 0, b.Symbols["f"])
	require.Len(t, b.Code, 2)
}

func TestApplyRelocationsPatchesKnownSymbols(t *testing.T) {
	b := NewBuffer(nil)
	b.StartFunctionBody("caller")
	b.EmitBytes([]byte{0xe8, 0, 0, 0, 0}) // call rel32, placeholder displacement
	b.AddRelocation(Relocation{Offset: 1, Symbol: "callee", Kind: RelPCRelative32})
	b.EndFunctionBody()

	b.StartFunctionBody("callee")
	b.EmitBytes([]byte{0xc3})
	b.EndFunctionBody()

	unresolved := b.ApplyRelocations()
	require.Empty(t, unresolved)
}

func TestApplyRelocationsReportsUnresolvedSymbols(t *testing.T) {
	b := NewBuffer(nil)
	b.StartFunctionBody("caller")
	b.EmitBytes([]byte{0xe8, 0, 0, 0, 0})
	b.AddRelocation(Relocation{Offset: 1, Symbol: "missing", Kind: RelPCRelative32})
	b.EndFunctionBody()

	unresolved := b.ApplyRelocations()
	require.Len(t, unresolved, 1)
	require.Equal(t, "missing", unresolved[0].Symbol)
}

func TestResolveLazyCallFallsBackToResolver(t *testing.T) {
	b := NewBuffer(func(symbol string) uintptr {
		if symbol == "late" {
			return 0xdeadbeef
		}
		return 0
	})
	require.Equal(t, uintptr(0xdeadbeef), b.ResolveLazyCall("late"))
}
