package codec

import (
	"bufio"

	"ssamid/internal/diag"
	"ssamid/internal/ir"
)

// typeTag is the on-wire discriminant for a Type's Kind, encoded as a
// single VBR7 byte ahead of whatever payload that kind needs.
type typeTag uint64

const (
	tagVoid typeTag = iota
	tagBool
	tagInt8
	tagInt16
	tagInt32
	tagInt64
	tagUint8
	tagUint16
	tagUint32
	tagUint64
	tagFloat
	tagDouble
	tagLabel
	tagPointer
	tagArray
	tagStruct
	tagFunction
)

var kindToTag = map[ir.Kind]typeTag{
	ir.Void: tagVoid, ir.Bool: tagBool,
	ir.Int8: tagInt8, ir.Int16: tagInt16, ir.Int32: tagInt32, ir.Int64: tagInt64,
	ir.Uint8: tagUint8, ir.Uint16: tagUint16, ir.Uint32: tagUint32, ir.Uint64: tagUint64,
	ir.Float: tagFloat, ir.Double: tagDouble, ir.Label: tagLabel,
	ir.Pointer: tagPointer, ir.Array: tagArray, ir.Struct: tagStruct, ir.FuncKind: tagFunction,
}

// typeEntry is the decoded, not-yet-linked description of one type
// table slot (§4.5: "leaf-first type table with forward-reference
// placeholders" — struct entries may reference slots not yet filled).
type typeEntry struct {
	tag    typeTag
	elem   int
	length int
	fields []int
	name   string
	ret    int
	params []int
	vararg bool
}

// typeEncoder assigns a dense id to every type reachable from a
// module, in visiting order: a struct type is
// assigned its id before its field types are visited, so self- and
// mutually-recursive struct graphs encode without cycles.
type typeEncoder struct {
	ids     map[*ir.Type]int
	entries []typeEntry
}

func newTypeEncoder() *typeEncoder {
	return &typeEncoder{ids: make(map[*ir.Type]int)}
}

func (e *typeEncoder) intern(t *ir.Type) int {
	if id, ok := e.ids[t]; ok {
		return id
	}
	tag := kindToTag[t.Kind]

	if t.Kind == ir.Struct {
		id := len(e.entries)
		e.ids[t] = id
		e.entries = append(e.entries, typeEntry{}) // reserve the slot
		fieldIDs := make([]int, len(t.Fields))
		for i, f := range t.Fields {
			fieldIDs[i] = e.intern(f)
		}
		e.entries[id] = typeEntry{tag: tag, fields: fieldIDs, name: structName(t)}
		return id
	}

	var entry typeEntry
	entry.tag = tag
	switch t.Kind {
	case ir.Pointer:
		entry.elem = e.intern(t.Elem)
	case ir.Array:
		entry.elem = e.intern(t.Elem)
		entry.length = t.Length
	case ir.FuncKind:
		entry.ret = e.intern(t.Ret)
		entry.params = make([]int, len(t.Params))
		for i, p := range t.Params {
			entry.params[i] = e.intern(p)
		}
		entry.vararg = t.Vararg
	}
	id := len(e.entries)
	e.ids[t] = id
	e.entries = append(e.entries, entry)
	return id
}

// structName reaches into the Type's printed form only for the
// unnamed-vs-named distinction; anonymous structs round-trip as
// unnamed (empty name is a legal wire value, not a placeholder).
func structName(t *ir.Type) string {
	s := t.String()
	if len(s) > 0 && s[0] == '%' {
		return s[1:]
	}
	return ""
}

func writeTypeTable(w *bufio.Writer, enc *typeEncoder) error {
	if err := writeVBR7(w, uint64(len(enc.entries))); err != nil {
		return err
	}
	for _, entry := range enc.entries {
		if err := writeVBR7(w, uint64(entry.tag)); err != nil {
			return err
		}
		switch entry.tag {
		case tagPointer:
			if err := writeVBR7(w, uint64(entry.elem)); err != nil {
				return err
			}
		case tagArray:
			if err := writeVBR7(w, uint64(entry.elem)); err != nil {
				return err
			}
			if err := writeVBR7(w, uint64(entry.length)); err != nil {
				return err
			}
		case tagStruct:
			if err := writeBytes(w, []byte(entry.name)); err != nil {
				return err
			}
			if err := writeVBR7(w, uint64(len(entry.fields))); err != nil {
				return err
			}
			for _, f := range entry.fields {
				if err := writeVBR7(w, uint64(f)); err != nil {
					return err
				}
			}
		case tagFunction:
			if err := writeVBR7(w, uint64(entry.ret)); err != nil {
				return err
			}
			if err := writeVBR7(w, uint64(len(entry.params))); err != nil {
				return err
			}
			for _, p := range entry.params {
				if err := writeVBR7(w, uint64(p)); err != nil {
					return err
				}
			}
			vararg := uint64(0)
			if entry.vararg {
				vararg = 1
			}
			if err := writeVBR7(w, vararg); err != nil {
				return err
			}
		}
	}
	return nil
}

func readTypeTable(r *bufio.Reader, ctx *ir.Context) ([]*ir.Type, error) {
	count, err := readVBR7(r)
	if err != nil {
		return nil, diag.New(diag.CodecTruncated, "truncated type table count")
	}
	entries := make([]typeEntry, count)
	for i := range entries {
		tagv, err := readVBR7(r)
		if err != nil {
			return nil, diag.New(diag.CodecTruncated, "truncated type tag")
		}
		entry := typeEntry{tag: typeTag(tagv)}
		switch entry.tag {
		case tagPointer:
			elem, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			entry.elem = int(elem)
		case tagArray:
			elem, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			length, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			entry.elem, entry.length = int(elem), int(length)
		case tagStruct:
			name, err := readBytes(r)
			if err != nil {
				return nil, err
			}
			n, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			fields := make([]int, n)
			for j := range fields {
				f, err := readVBR7(r)
				if err != nil {
					return nil, err
				}
				fields[j] = int(f)
			}
			entry.name = string(name)
			entry.fields = fields
		case tagFunction:
			ret, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			n, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			params := make([]int, n)
			for j := range params {
				p, err := readVBR7(r)
				if err != nil {
					return nil, err
				}
				params[j] = int(p)
			}
			vararg, err := readVBR7(r)
			if err != nil {
				return nil, err
			}
			entry.ret, entry.params, entry.vararg = int(ret), params, vararg != 0
		}
		entries[i] = entry
	}
	return linkTypeTable(ctx, entries)
}

func primitiveType(ctx *ir.Context, tag typeTag) (*ir.Type, error) {
	switch tag {
	case tagVoid:
		return ctx.VoidType(), nil
	case tagBool:
		return ctx.BoolType(), nil
	case tagInt8:
		return ctx.Int8Type(), nil
	case tagInt16:
		return ctx.Int16Type(), nil
	case tagInt32:
		return ctx.Int32Type(), nil
	case tagInt64:
		return ctx.Int64Type(), nil
	case tagUint8:
		return ctx.Uint8Type(), nil
	case tagUint16:
		return ctx.Uint16Type(), nil
	case tagUint32:
		return ctx.Uint32Type(), nil
	case tagUint64:
		return ctx.Uint64Type(), nil
	case tagFloat:
		return ctx.FloatType(), nil
	case tagDouble:
		return ctx.DoubleType(), nil
	case tagLabel:
		return ctx.LabelType(), nil
	default:
		return nil, diag.New(diag.CodecTruncated, "unknown type tag")
	}
}

// linkTypeTable materializes every entry into a *ir.Type, creating
// struct placeholders up front so forward references within the same
// table resolve regardless of declaration order (§4.5, mirroring
// Context.NewOpaqueStruct/CompleteStruct).
func linkTypeTable(ctx *ir.Context, entries []typeEntry) ([]*ir.Type, error) {
	objs := make([]*ir.Type, len(entries))
	for id, entry := range entries {
		if entry.tag == tagStruct {
			objs[id] = ctx.NewOpaqueStruct(entry.name)
		}
	}
	for id, entry := range entries {
		switch entry.tag {
		case tagStruct:
			continue // completed in the second pass below
		case tagPointer:
			if objs[entry.elem] == nil {
				return nil, diag.New(diag.CodecUnresolvedRef, "pointer element type not yet resolved")
			}
			objs[id] = ctx.PointerType(objs[entry.elem])
		case tagArray:
			objs[id] = ctx.ArrayType(objs[entry.elem], entry.length)
		case tagFunction:
			params := make([]*ir.Type, len(entry.params))
			for i, p := range entry.params {
				params[i] = objs[p]
			}
			objs[id] = ctx.FunctionType(objs[entry.ret], params, entry.vararg)
		default:
			t, err := primitiveType(ctx, entry.tag)
			if err != nil {
				return nil, err
			}
			objs[id] = t
		}
	}
	for id, entry := range entries {
		if entry.tag != tagStruct {
			continue
		}
		fields := make([]*ir.Type, len(entry.fields))
		for i, f := range entry.fields {
			fields[i] = objs[f]
		}
		ctx.CompleteStruct(objs[id], fields)
	}
	return objs, nil
}
