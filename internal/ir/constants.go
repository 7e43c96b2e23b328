package ir

import (
	"fmt"
	"strings"
)

// ConstantKind tags the payload a Constant carries (§3.2).
type ConstantKind uint8

const (
	ConstInt ConstantKind = iota
	ConstFloat
	ConstNullPointer
	ConstAggregate
	ConstExpr
)

// Constant is a content-uniqued Value: boolean, signed/unsigned
// integer, floating, null pointer, aggregate (array/struct of
// constants), or a typed constant expression (§3.2). Constant
// expressions constant-fold lazily at construction time via
// Context.ConstantExpr; if folding succeeds the resulting leaf
// constant is returned instead of a symbolic expression node.
type Constant struct {
	Value
	Kind ConstantKind

	Int   uint64  // ConstInt (and Bool, stored as 0/1)
	Float float64 // ConstFloat

	Elements []*Constant // ConstAggregate

	// ConstExpr
	Op       Opcode
	Operands []*Constant

	key string
}

func (c *Constant) String() string {
	switch c.Kind {
	case ConstInt:
		return fmt.Sprintf("%s %d", c.Type, int64(c.Int))
	case ConstFloat:
		return fmt.Sprintf("%s %g", c.Type, c.Float)
	case ConstNullPointer:
		return fmt.Sprintf("%s null", c.Type)
	case ConstAggregate:
		parts := make([]string, len(c.Elements))
		for i, e := range c.Elements {
			parts[i] = e.String()
		}
		return fmt.Sprintf("%s {%s}", c.Type, strings.Join(parts, ", "))
	case ConstExpr:
		parts := make([]string, len(c.Operands))
		for i, o := range c.Operands {
			parts[i] = o.String()
		}
		return fmt.Sprintf("%s (%s)", opcodeName(c.Op), strings.Join(parts, ", "))
	default:
		return "<const>"
	}
}

// -- interning helpers --------------------------------------------------------

func (c *Context) internConstant(cst *Constant) *Constant {
	return c.consts.intern(cst)
}

// IntConstant returns the uniqued integer (or bool) constant of the
// given type and raw bit pattern. Interning a value out of range for
// its type is a contract violation (§4.1 failure modes): callers are
// expected to mask before calling, as the fold algebra does.
func (c *Context) IntConstant(t *Type, bits uint64) *Constant {
	width := t.Kind.BitWidth()
	if width > 0 && width < 64 && bits > widthMask(width) {
		panic(fmt.Sprintf("ir: constant 0x%x out of range for %s", bits, t))
	}
	cst := &Constant{Kind: ConstInt, Int: bits, key: fmt.Sprintf("i:%s:%d", t.key, bits)}
	cst.Type = t
	return c.finishConstant(cst)
}

// BoolConstant returns the uniqued true/false constant.
func (c *Context) BoolConstant(v bool) *Constant {
	bits := uint64(0)
	if v {
		bits = 1
	}
	return c.IntConstant(c.BoolType(), bits)
}

// FloatConstant returns the uniqued floating constant of the given
// type (Float or Double).
func (c *Context) FloatConstant(t *Type, v float64) *Constant {
	cst := &Constant{Kind: ConstFloat, Float: v, key: fmt.Sprintf("f:%s:%g", t.key, v)}
	cst.Type = t
	return c.finishConstant(cst)
}

// NullConstant returns the uniqued null pointer constant for a
// pointer type (§4.1 null_constant).
func (c *Context) NullConstant(t *Type) *Constant {
	if t.Kind != Pointer {
		panic("ir: NullConstant requires a pointer type")
	}
	cst := &Constant{Kind: ConstNullPointer, key: "null:" + t.key}
	cst.Type = t
	return c.finishConstant(cst)
}

// ZeroValue returns the canonical zero constant for any first-class
// or aggregate type.
func (c *Context) ZeroValue(t *Type) *Constant {
	switch t.Kind {
	case Pointer:
		return c.NullConstant(t)
	case Float, Double:
		return c.FloatConstant(t, 0)
	case Array:
		elems := make([]*Constant, t.Length)
		zero := c.ZeroValue(t.Elem)
		for i := range elems {
			elems[i] = zero
		}
		return c.AggregateConstant(t, elems)
	case Struct:
		elems := make([]*Constant, len(t.Fields))
		for i, f := range t.Fields {
			elems[i] = c.ZeroValue(f)
		}
		return c.AggregateConstant(t, elems)
	default:
		return c.IntConstant(t, 0)
	}
}

// AggregateConstant returns the uniqued array/struct constant formed
// from the given element constants.
func (c *Context) AggregateConstant(t *Type, elems []*Constant) *Constant {
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.key
	}
	cst := &Constant{Kind: ConstAggregate, Elements: elems, key: "agg:" + t.key + ":" + strings.Join(keys, ",")}
	cst.Type = t
	return c.finishConstant(cst)
}

// ConstantExpr builds a typed constant expression over constant
// operands, eagerly constant-folding via the §4.4 algebra and
// returning the folded leaf constant when possible, else a symbolic
// ConstantExpr node (§4.1).
func (c *Context) ConstantExpr(op Opcode, operands ...*Constant) *Constant {
	if len(operands) == 2 && !isCastOpcode(op) {
		if folded, ok := ConstantFoldBinaryInstruction(c, op, operands[0], operands[1]); ok {
			return folded
		}
	}
	if isCastOpcode(op) && len(operands) == 1 {
		// ConstantExpr casts carry their destination type as Type.
	}
	keys := make([]string, len(operands))
	for i, o := range operands {
		keys[i] = o.key
	}
	cst := &Constant{Kind: ConstExpr, Op: op, Operands: operands,
		key: fmt.Sprintf("expr:%d:%s", op, strings.Join(keys, ","))}
	cst.Type = operands[0].Type
	return c.finishConstant(cst)
}

// ConstantCastExpr builds a (possibly folded) cast constant expression
// to dst.
func (c *Context) ConstantCastExpr(operand *Constant, dst *Type) *Constant {
	if folded, ok := ConstantFoldCastInstruction(c, operand, dst); ok {
		return folded
	}
	cst := &Constant{Kind: ConstExpr, Op: OpCast, Operands: []*Constant{operand},
		key: fmt.Sprintf("cast:%s:%s", dst.key, operand.key)}
	cst.Type = dst
	return c.finishConstant(cst)
}

func isCastOpcode(op Opcode) bool { return op == OpCast }

func (c *Context) finishConstant(cst *Constant) *Constant {
	existing := c.internConstant(cst)
	if existing == cst {
		existing.id = c.nextID()
		existing.owner = existing
	}
	return existing
}

func opcodeName(op Opcode) string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "op?"
}
