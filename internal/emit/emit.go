// Package emit is the code-emission observer interface of §4.8:
// something that walks a lowered internal/mir.Function and wants
// bytes written to an executable buffer, relocations recorded against
// symbols not yet at a known address, and (per the JIT) a lazily
// resolved call stub for calls whose target hasn't been compiled yet.
// Grounded on JITEmitter.cpp's MachineCodeEmitter/JITMemoryManager
// split: a single growable RWX-shaped buffer, stubs carved from one
// end and function bodies from the other.
package emit

// RelocationKind distinguishes how a relocation's target address
// should be combined into the instruction bytes at Offset.
type RelocationKind uint8

const (
	// RelAbsolute writes the target's absolute address.
	RelAbsolute RelocationKind = iota
	// RelPCRelative32 writes target-minus-(offset+4), the common
	// "call rel32" encoding.
	RelPCRelative32
)

// Relocation records one not-yet-resolvable reference: Offset is a
// byte position already emitted into the current function body that
// needs Symbol's final address patched in once known.
type Relocation struct {
	Offset int
	Symbol string
	Kind   RelocationKind
}

// Emitter is the interface a code generator drives; internal/jitstub
// and any future ahead-of-time object writer both implement it
// instead of poking at a buffer directly, so the generator itself
// never needs to know whether it's writing into a JIT's RWX mapping
// or an object-file section.
type Emitter interface {
	EmitByte(b byte)
	EmitBytes(b []byte)
	StartFunctionBody(name string) (base int)
	EndFunctionBody()
	AddRelocation(r Relocation)

	// ResolveLazyCall returns the address of a stub to call instead of
	// Symbol's real body, which is not yet known (the symbol hasn't
	// been emitted). The stub's job, once control reaches it, is to
	// compile/locate the real body and rewrite the original call site
	// to call it directly from then on (§9's "lazy resolver stub").
	ResolveLazyCall(symbol string) uintptr
}

// Buffer is a simple growable-slice Emitter, standing in for
// JITMemoryManager's bump-pointer RWX block (real executable-memory
// allocation is a target/OS concern out of this package's scope; a
// concrete AOT or JIT backend would swap this buffer's backing store
// without changing how relocations are recorded).
type Buffer struct {
	Code         []byte
	Relocations  []Relocation
	Symbols      map[string]int // name -> byte offset once emitted
	funcStart    int
	currentName  string
	lazyResolver func(symbol string) uintptr
}

// NewBuffer returns an Emitter backed by an in-memory byte slice. A
// nil resolver means ResolveLazyCall always returns 0 (useful for an
// emitter used purely to size/validate output before a JIT is wired
// up).
func NewBuffer(resolver func(symbol string) uintptr) *Buffer {
	return &Buffer{Symbols: map[string]int{}, lazyResolver: resolver}
}

func (b *Buffer) EmitByte(x byte)     { b.Code = append(b.Code, x) }
func (b *Buffer) EmitBytes(x []byte)  { b.Code = append(b.Code, x...) }

func (b *Buffer) StartFunctionBody(name string) int {
	b.funcStart = len(b.Code)
	b.currentName = name
	return b.funcStart
}

func (b *Buffer) EndFunctionBody() {
	b.Symbols[b.currentName] = b.funcStart
	b.currentName = ""
}

func (b *Buffer) AddRelocation(r Relocation) {
	b.Relocations = append(b.Relocations, r)
}

func (b *Buffer) ResolveLazyCall(symbol string) uintptr {
	if addr, ok := b.Symbols[symbol]; ok {
		return uintptr(addr)
	}
	if b.lazyResolver != nil {
		return b.lazyResolver(symbol)
	}
	return 0
}

// ApplyRelocations patches every recorded relocation whose symbol is
// now known into b.Code, the way a linker's final relocation pass
// would (§8's "what the loader does at link time" scope, scaled down
// to this package's in-process emitter).
func (b *Buffer) ApplyRelocations() (unresolved []Relocation) {
	for _, r := range b.Relocations {
		addr, ok := b.Symbols[r.Symbol]
		if !ok {
			unresolved = append(unresolved, r)
			continue
		}
		switch r.Kind {
		case RelAbsolute:
			writeWord(b.Code, r.Offset, uint32(addr))
		case RelPCRelative32:
			writeWord(b.Code, r.Offset, uint32(addr-(r.Offset+4)))
		}
	}
	return unresolved
}

func writeWord(buf []byte, offset int, w uint32) {
	buf[offset] = byte(w)
	buf[offset+1] = byte(w >> 8)
	buf[offset+2] = byte(w >> 16)
	buf[offset+3] = byte(w >> 24)
}
