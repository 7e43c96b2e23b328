package codec

import (
	"bufio"
	"bytes"

	"ssamid/internal/diag"
	"ssamid/internal/ir"
)

// LazyModule is a module whose skeleton (target-data, type table,
// globals, and every function's name/signature/block shells) has been
// parsed, but whose function bodies have not: each defined function's
// instruction stream is kept as an unparsed byte slice until
// Materialize asks for it (§4.5: "get_module_provider(source) parses
// only the skeleton... each function body parses on first access to
// it"; §8 scenario 5).
type LazyModule struct {
	Module *ir.Module

	ctx        *ir.Context
	fns        []*ir.Function
	types      []*ir.Type
	instCounts [][]uint64
	raw        [][]byte // nil once materialized; raw[i] == nil for declarations too
}

// OpenLazy parses data's skeleton only under ctx: it never decodes a
// single instruction. Asking for a function's name, signature, or
// block labels via the returned *ir.Module is therefore free; call
// Materialize before reading a function's instructions.
func OpenLazy(data []byte, ctx *ir.Context) (*LazyModule, error) {
	br := bufio.NewReader(bytes.NewReader(data))
	if err := readHeader(br); err != nil {
		return nil, err
	}
	layout, err := readBytes(br)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated target datalayout")
	}
	td, err := ir.ParseTargetData(string(layout))
	if err != nil {
		return nil, err
	}

	types, err := readTypeTable(br, ctx)
	if err != nil {
		return nil, err
	}

	m := ctx.NewModule("")
	m.Target = td

	gcount, err := readVBR7(br)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated global count")
	}
	for i := uint64(0); i < gcount; i++ {
		if err := readGlobal(br, m, types); err != nil {
			return nil, err
		}
	}

	fcount, err := readVBR7(br)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated function count")
	}
	lm := &LazyModule{
		Module:     m,
		ctx:        ctx,
		fns:        make([]*ir.Function, fcount),
		instCounts: make([][]uint64, fcount),
		types:      types,
		raw:        make([][]byte, fcount),
	}
	for i := uint64(0); i < fcount; i++ {
		fn, counts, err := readFunctionHeader(br, m, types)
		if err != nil {
			return nil, err
		}
		lm.fns[i] = fn
		lm.instCounts[i] = counts
		if fn.IsDeclaration() {
			continue
		}
		raw, err := readBytes(br)
		if err != nil {
			return nil, diag.New(diag.CodecTruncated, "truncated function body")
		}
		lm.raw[i] = raw
	}
	return lm, nil
}

// Materialize decodes fn's instruction stream in place, if it hasn't
// been already. It is idempotent: a function materialized twice (or
// never lazily deferred, e.g. a declaration) is simply a no-op the
// second time.
func (lm *LazyModule) Materialize(fn *ir.Function) error {
	i := lm.indexOf(fn)
	if i < 0 {
		return diag.New(diag.CodecUnresolvedRef, "function does not belong to this lazy module")
	}
	if lm.raw[i] == nil {
		return nil
	}
	body := bufio.NewReader(bytes.NewReader(lm.raw[i]))
	if err := readFunctionBody(body, lm.ctx, fn, lm.fns, lm.types, lm.instCounts[i]); err != nil {
		return err
	}
	lm.raw[i] = nil
	return nil
}

// MaterializeAll forces every remaining deferred function body,
// equivalent to what DecodeModule does eagerly up front.
func (lm *LazyModule) MaterializeAll() error {
	for _, fn := range lm.fns {
		if err := lm.Materialize(fn); err != nil {
			return err
		}
	}
	return nil
}

func (lm *LazyModule) indexOf(fn *ir.Function) int {
	for i, f := range lm.fns {
		if f == fn {
			return i
		}
	}
	return -1
}
