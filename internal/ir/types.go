package ir

import (
	"fmt"
	"strings"
)

// Kind tags a Type's category so dispatch is a switch over the tag
// rather than dynamic type assertion (§9: "the opcode tag alone
// selects behavior"), applied here to types as well as instructions.
type Kind uint8

const (
	Void Kind = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float
	Double
	Label
	Pointer
	Array
	Struct
	FuncKind
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Uint8:
		return "u8"
	case Uint16:
		return "u16"
	case Uint32:
		return "u32"
	case Uint64:
		return "u64"
	case Float:
		return "float"
	case Double:
		return "double"
	case Label:
		return "label"
	case Pointer:
		return "pointer"
	case Array:
		return "array"
	case Struct:
		return "struct"
	case FuncKind:
		return "function"
	default:
		return "?"
	}
}

// IsInteger reports whether k is one of the signed/unsigned integer
// or bool primitive kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case Bool, Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64:
		return true
	}
	return false
}

// IsSigned reports whether k is a signed integer kind.
func (k Kind) IsSigned() bool {
	switch k {
	case Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// IsFloat reports whether k is float or double.
func (k Kind) IsFloat() bool { return k == Float || k == Double }

// BitWidth returns the bit width of an integer primitive kind, or 0.
func (k Kind) BitWidth() int {
	switch k {
	case Bool:
		return 1
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32:
		return 32
	case Int64, Uint64:
		return 64
	}
	return 0
}

// Type is content-uniqued and immutable after interning (§3.1): two
// types are equal iff their interned pointers are equal. A single
// struct covers every category rather than an interface hierarchy;
// only the fields relevant to Kind are populated.
type Type struct {
	Kind Kind

	Elem   *Type   // Pointer, Array: element type
	Length int     // Array: element count
	Fields []*Type // Struct: member types

	Ret    *Type   // Function: return type
	Params []*Type // Function: parameter types
	Vararg bool    // Function: variadic

	name string // Struct: optional tag, used only for printing/diagnostics
	key  string // canonical interning key; "" until placed in a table
}

// FirstClass reports whether a value of this type can reside in an
// SSA register (§3.1): primitives and pointers.
func (t *Type) FirstClass() bool {
	switch t.Kind {
	case Void, Label, FuncKind, Array, Struct:
		return false
	default:
		return true
	}
}

// Sized reports whether sizeof is defined for this type: all
// primitives except void/label, pointers, and arrays/structs whose
// elements are themselves sized.
func (t *Type) Sized() bool {
	switch t.Kind {
	case Void, Label, FuncKind:
		return false
	case Array:
		return t.Elem.Sized()
	case Struct:
		for _, f := range t.Fields {
			if !f.Sized() {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t *Type) String() string {
	switch t.Kind {
	case Pointer:
		return t.Elem.String() + "*"
	case Array:
		return fmt.Sprintf("[%d x %s]", t.Length, t.Elem.String())
	case Struct:
		if t.name != "" {
			return "%" + t.name
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case FuncKind:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		va := ""
		if t.Vararg {
			if len(parts) > 0 {
				va = ", "
			}
			va += "..."
		}
		return fmt.Sprintf("%s (%s%s)", t.Ret.String(), strings.Join(parts, ", "), va)
	default:
		return t.Kind.String()
	}
}

// Layout returns the struct layout for a struct type under the given
// TargetData, computed and cached lazily as an annotation (§3.5).
func (t *Type) Layout(ctx *Context, td *TargetData) *StructLayout {
	if t.Kind != Struct {
		return nil
	}
	key := layoutKey{t, td}
	v := ctx.Annotation(key, AnnStructLayout)
	if v == nil {
		return nil
	}
	return v.(*StructLayout)
}

type layoutKey struct {
	t  *Type
	td *TargetData
}

// -- Primitive constructors --------------------------------------------------

func (c *Context) primitive(k Kind) *Type {
	if t, ok := c.primitives[k]; ok {
		return t
	}
	t := &Type{Kind: k, key: "p:" + k.String()}
	c.primitives[k] = t
	c.types.intern(t)
	return t
}

func (c *Context) VoidType() *Type   { return c.primitive(Void) }
func (c *Context) BoolType() *Type   { return c.primitive(Bool) }
func (c *Context) Int8Type() *Type   { return c.primitive(Int8) }
func (c *Context) Int16Type() *Type  { return c.primitive(Int16) }
func (c *Context) Int32Type() *Type  { return c.primitive(Int32) }
func (c *Context) Int64Type() *Type  { return c.primitive(Int64) }
func (c *Context) Uint8Type() *Type  { return c.primitive(Uint8) }
func (c *Context) Uint16Type() *Type { return c.primitive(Uint16) }
func (c *Context) Uint32Type() *Type { return c.primitive(Uint32) }
func (c *Context) Uint64Type() *Type { return c.primitive(Uint64) }
func (c *Context) FloatType() *Type  { return c.primitive(Float) }
func (c *Context) DoubleType() *Type { return c.primitive(Double) }
func (c *Context) LabelType() *Type  { return c.primitive(Label) }

// IntType returns the integer primitive of the given bit width and
// signedness; width must be one of 8, 16, 32, 64.
func (c *Context) IntType(bits int, signed bool) *Type {
	switch {
	case bits == 8 && signed:
		return c.Int8Type()
	case bits == 16 && signed:
		return c.Int16Type()
	case bits == 32 && signed:
		return c.Int32Type()
	case bits == 64 && signed:
		return c.Int64Type()
	case bits == 8:
		return c.Uint8Type()
	case bits == 16:
		return c.Uint16Type()
	case bits == 32:
		return c.Uint32Type()
	case bits == 64:
		return c.Uint64Type()
	default:
		panic(fmt.Sprintf("ir: unsupported integer width %d", bits))
	}
}

// -- Derived constructors ----------------------------------------------------

// PointerType returns the (uniqued) pointer-to-elem type.
func (c *Context) PointerType(elem *Type) *Type {
	t := &Type{Kind: Pointer, Elem: elem, key: "ptr:" + elem.key}
	return c.types.intern(t)
}

// ArrayType returns the (uniqued) array type.
func (c *Context) ArrayType(elem *Type, length int) *Type {
	t := &Type{Kind: Array, Elem: elem, Length: length, key: fmt.Sprintf("arr:%d:%s", length, elem.key)}
	return c.types.intern(t)
}

// StructType returns the (uniqued) anonymous struct type for the
// given field types, in order.
func (c *Context) StructType(fields ...*Type) *Type {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	t := &Type{Kind: Struct, Fields: fields, key: "struct:" + strings.Join(keys, ",")}
	return c.types.intern(t)
}

// NewOpaqueStruct creates a placeholder named struct type with no
// fields yet, for recursive type construction (§4.1, §9): a pointer
// to this placeholder can be embedded in other types before the body
// is known. Call CompleteStruct once the field list is available.
func (c *Context) NewOpaqueStruct(name string) *Type {
	t := &Type{Kind: Struct, name: name, key: "namedstruct:" + name}
	return c.types.intern(t)
}

// CompleteStruct fills in a placeholder created by NewOpaqueStruct.
// The placeholder's identity (pointer) does not change, so every
// reference taken before completion remains valid; recursive field
// types are simply the placeholder pointer itself.
func (c *Context) CompleteStruct(placeholder *Type, fields []*Type) {
	if placeholder.Kind != Struct {
		panic("ir: CompleteStruct on non-struct type")
	}
	placeholder.Fields = fields
}

// FunctionType returns the (uniqued) function-signature type.
func (c *Context) FunctionType(ret *Type, params []*Type, vararg bool) *Type {
	keys := make([]string, len(params))
	for i, p := range params {
		keys[i] = p.key
	}
	va := "0"
	if vararg {
		va = "1"
	}
	t := &Type{Kind: FuncKind, Ret: ret, Params: params, Vararg: vararg,
		key: fmt.Sprintf("fn:%s:%s:%s", ret.key, strings.Join(keys, ","), va)}
	return c.types.intern(t)
}
