// Package jitstub implements the lazy call-resolution stub §9 directs
// be hidden behind Emitter.ResolveLazyCall: LLVM's JIT rewrote a call
// to an as-yet-uncompiled function into a call to a small stub that,
// on first execution, compiles the real function and patches the
// call site to go straight there from then on. This package supplies
// the bookkeeping half of that (which symbol a stub stands for, and
// the one-time compile-then-patch callback); the target-specific
// "decode this call instruction and overwrite its displacement" half
// is supplied by the caller as PatchCallSite, exactly as the open
// question in §4.8 directs (offset rewinding is target-supplied, not
// hardcoded here).
package jitstub

import (
	"fmt"
	"sync"
)

// PatchCallSite rewrites the call instruction that begins at
// callSiteOffset in code so it calls target directly instead of
// falling through the stub. The encoding of "a call instruction" is
// entirely target-specific, so this package takes it as a callback
// rather than assuming any particular ISA.
type PatchCallSite func(code []byte, callSiteOffset int, target uintptr)

// Compiler produces the final machine address for symbol, compiling
// it if it has not been compiled yet. Returning an error leaves the
// call routed through the stub permanently (every subsequent call
// keeps failing the same way, matching a missing-symbol link error
// rather than silently no-oping).
type Compiler func(symbol string) (uintptr, error)

// Manager owns every outstanding lazy stub for one emission session.
// Resolve is safe to call concurrently since a JIT's stub may be
// entered from multiple threads hitting the same uncompiled function
// at once; only the first caller actually compiles, the rest block on
// the same result.
type Manager struct {
	mu      sync.Mutex
	compile Compiler
	patch   PatchCallSite
	pending map[string]*stubState
}

type stubState struct {
	once sync.Once
	addr uintptr
	err  error
}

func NewManager(compile Compiler, patch PatchCallSite) *Manager {
	return &Manager{compile: compile, patch: patch, pending: map[string]*stubState{}}
}

// Resolve is what a stub calls into at the call site it stands in
// for: it compiles symbol exactly once (a second call for the same
// symbol, from a different, not-yet-patched caller, reuses that
// result), patches code at callSiteOffset in place, and returns the
// address execution should now jump to.
func (m *Manager) Resolve(code []byte, callSiteOffset int, symbol string) (uintptr, error) {
	m.mu.Lock()
	st, ok := m.pending[symbol]
	if !ok {
		st = &stubState{}
		m.pending[symbol] = st
	}
	m.mu.Unlock()

	st.once.Do(func() {
		st.addr, st.err = m.compile(symbol)
	})
	if st.err != nil {
		return 0, fmt.Errorf("jitstub: resolving %q: %w", symbol, st.err)
	}
	m.patch(code, callSiteOffset, st.addr)
	return st.addr, nil
}

// AsEmitterResolver adapts Manager to the resolver func shape
// emit.NewBuffer expects, so a JIT backend can wire a Manager straight
// into an emit.Buffer without extra glue.
func (m *Manager) AsEmitterResolver(code []byte, callSiteOffset int) func(symbol string) uintptr {
	return func(symbol string) uintptr {
		addr, err := m.Resolve(code, callSiteOffset, symbol)
		if err != nil {
			return 0
		}
		return addr
	}
}
