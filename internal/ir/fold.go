package ir

import "math"

// This file implements the constant-folding algebra of §4.4: for each
// (opcode, operand-type-class) pair, compute the result constant when
// inputs are constants, or report "no fold" otherwise. Constant
// folding never returns an error — "no fold" is a distinct non-error
// outcome (§7).
//
// Dispatch within each Kind's family (integer/float/pointer) is a
// plain Kind switch below; no annotation indirection is needed since
// the dispatch itself carries no per-Kind state worth caching.

// ConstantFoldBinaryInstruction is the public entry point for folding
// a binary opcode over two constant operands (§4.4). It returns
// (result, true) on success or (nil, false) for "no fold".
func ConstantFoldBinaryInstruction(ctx *Context, op Opcode, lhs, rhs *Constant) (*Constant, bool) {
	if lhs.Type != rhs.Type && !isCompare(op) {
		return nil, false
	}
	switch {
	case lhs.Type.Kind.IsInteger():
		return foldIntBinary(ctx, op, lhs, rhs)
	case lhs.Type.Kind.IsFloat():
		return foldFloatBinary(ctx, op, lhs, rhs)
	case lhs.Type.Kind == Pointer:
		return foldPointerBinary(ctx, op, lhs, rhs)
	default:
		return nil, false
	}
}

// ConstantFoldCastInstruction is the public entry point for folding a
// cast of a constant to a destination type (§4.4).
func ConstantFoldCastInstruction(ctx *Context, c *Constant, dst *Type) (*Constant, bool) {
	if c.Type == dst {
		// ConstantFoldCast on a constant narrowed to the same type is
		// the identity (§4.4).
		return c, true
	}
	if c.Type.Kind == Pointer && c.Kind == ConstNullPointer {
		return ctx.ZeroValue(dst), true
	}
	switch {
	case c.Type.Kind.IsInteger() && dst.Kind.IsInteger():
		return foldIntToInt(ctx, c, dst)
	case c.Type.Kind.IsInteger() && dst.Kind.IsFloat():
		return foldIntToFloat(ctx, c, dst)
	case c.Type.Kind.IsFloat() && dst.Kind.IsInteger():
		return foldFloatToInt(ctx, c, dst)
	case c.Type.Kind.IsFloat() && dst.Kind.IsFloat():
		return foldFloatToFloat(ctx, c, dst)
	default:
		return nil, false
	}
}

func isCompare(op Opcode) bool { return op.IsCompare() }

// -- integer folding ---------------------------------------------------------

func foldIntBinary(ctx *Context, op Opcode, lhs, rhs *Constant) (*Constant, bool) {
	signed := lhs.Type.Kind.IsSigned()
	a, b := lhs.Int, rhs.Int

	if isCompare(op) {
		var res bool
		if signed {
			sa, sb := int64(a), int64(b)
			switch op {
			case OpSetEQ:
				res = sa == sb
			case OpSetNE:
				res = sa != sb
			case OpSetLT:
				res = sa < sb
			case OpSetLE:
				res = sa <= sb
			case OpSetGT:
				res = sa > sb
			case OpSetGE:
				res = sa >= sb
			}
		} else {
			switch op {
			case OpSetEQ:
				res = a == b
			case OpSetNE:
				res = a != b
			case OpSetLT:
				res = a < b
			case OpSetLE:
				res = a <= b
			case OpSetGT:
				res = a > b
			case OpSetGE:
				res = a >= b
			}
		}
		return ctx.BoolConstant(res), true
	}

	width := lhs.Type.Kind.BitWidth()
	mask := widthMask(width)

	switch op {
	case OpAdd:
		return ctx.IntConstant(lhs.Type, (a+b)&mask), true
	case OpSub:
		return ctx.IntConstant(lhs.Type, (a-b)&mask), true
	case OpMul:
		return ctx.IntConstant(lhs.Type, (a*b)&mask), true
	case OpUDiv:
		if b == 0 {
			return nil, false
		}
		return ctx.IntConstant(lhs.Type, (a/b)&mask), true
	case OpSDiv:
		sb := signExtend(b, width)
		if sb == 0 {
			return nil, false
		}
		sa := signExtend(a, width)
		if sa == minSigned(width) && sb == -1 {
			// INT_MIN / -1 overflows; no fold (§8 boundary behavior).
			return nil, false
		}
		return ctx.IntConstant(lhs.Type, uint64(sa/sb)&mask), true
	case OpURem:
		if b == 0 {
			return nil, false
		}
		return ctx.IntConstant(lhs.Type, (a%b)&mask), true
	case OpSRem:
		sb := signExtend(b, width)
		if sb == 0 {
			return nil, false
		}
		sa := signExtend(a, width)
		return ctx.IntConstant(lhs.Type, uint64(sa%sb)&mask), true
	case OpAnd:
		return ctx.IntConstant(lhs.Type, a&b), true
	case OpOr:
		return ctx.IntConstant(lhs.Type, a|b), true
	case OpXor:
		return ctx.IntConstant(lhs.Type, a^b), true
	case OpShl:
		return ctx.IntConstant(lhs.Type, (a<<uint(b))&mask), true
	case OpLShr:
		return ctx.IntConstant(lhs.Type, (a&mask)>>uint(b)), true
	case OpAShr:
		sa := signExtend(a, width)
		return ctx.IntConstant(lhs.Type, uint64(sa>>uint(b))&mask), true
	default:
		return nil, false
	}
}

func foldIntToInt(ctx *Context, c *Constant, dst *Type) (*Constant, bool) {
	width := dst.Kind.BitWidth()
	return ctx.IntConstant(dst, c.Int&widthMask(width)), true
}

func foldIntToFloat(ctx *Context, c *Constant, dst *Type) (*Constant, bool) {
	var f float64
	if c.Type.Kind.IsSigned() {
		f = float64(signExtend(c.Int, c.Type.Kind.BitWidth()))
	} else {
		f = float64(c.Int)
	}
	return ctx.FloatConstant(dst, f), true
}

func foldFloatToInt(ctx *Context, c *Constant, dst *Type) (*Constant, bool) {
	width := dst.Kind.BitWidth()
	if dst.Kind.IsSigned() {
		return ctx.IntConstant(dst, uint64(int64(c.Float))&widthMask(width)), true
	}
	return ctx.IntConstant(dst, uint64(c.Float)&widthMask(width)), true
}

func foldFloatToFloat(ctx *Context, c *Constant, dst *Type) (*Constant, bool) {
	if dst.Kind == Float {
		return ctx.FloatConstant(dst, float64(float32(c.Float))), true
	}
	return ctx.FloatConstant(dst, c.Float), true
}

// -- float folding ------------------------------------------------------------

func foldFloatBinary(ctx *Context, op Opcode, lhs, rhs *Constant) (*Constant, bool) {
	a, b := lhs.Float, rhs.Float
	if isCompare(op) {
		var res bool
		switch op {
		case OpSetEQ:
			res = a == b
		case OpSetNE:
			res = a != b
		case OpSetLT:
			res = a < b
		case OpSetLE:
			res = a <= b
		case OpSetGT:
			res = a > b
		case OpSetGE:
			res = a >= b
		}
		return ctx.BoolConstant(res), true
	}
	switch op {
	case OpAdd:
		return ctx.FloatConstant(lhs.Type, a+b), true
	case OpSub:
		return ctx.FloatConstant(lhs.Type, a-b), true
	case OpMul:
		return ctx.FloatConstant(lhs.Type, a*b), true
	case OpUDiv, OpSDiv:
		if b == 0 {
			return nil, false
		}
		return ctx.FloatConstant(lhs.Type, a/b), true
	default:
		return nil, false
	}
}

// -- pointer folding ----------------------------------------------------------

// Pointer constants fold only when both are null or identity-equal
// (§4.4).
func foldPointerBinary(ctx *Context, op Opcode, lhs, rhs *Constant) (*Constant, bool) {
	if !isCompare(op) {
		return nil, false
	}
	lhsNull := lhs.Kind == ConstNullPointer
	rhsNull := rhs.Kind == ConstNullPointer
	var equal bool
	switch {
	case lhsNull && rhsNull:
		equal = true
	case lhs == rhs:
		equal = true
	default:
		return nil, false // neither null nor identity-equal: no fold
	}
	switch op {
	case OpSetEQ:
		return ctx.BoolConstant(equal), true
	case OpSetNE:
		return ctx.BoolConstant(!equal), true
	default:
		return nil, false
	}
}

// -- bit-twiddling helpers ----------------------------------------------------

func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(width)) - 1
}

func signExtend(v uint64, width int) int64 {
	if width >= 64 {
		return int64(v)
	}
	shift := uint(64 - width)
	return int64(v<<shift) >> shift
}

func minSigned(width int) int64 {
	if width >= 64 {
		return math.MinInt64
	}
	return -(int64(1) << uint(width-1))
}
