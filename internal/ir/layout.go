package ir

// StructLayout is the per-member byte offset, total size, and
// alignment of a struct type under a particular TargetData (§3.1). It
// is computed once and cached as an annotation on (type, targetdata).
type StructLayout struct {
	Size    int
	Align   int
	Offsets []int
}

// computeLayout lays out fields in declaration order with natural
// alignment and trailing padding to the struct's own alignment,
// mirroring a C-style ABI.
func computeLayout(ctx *Context, t *Type, td *TargetData) *StructLayout {
	layout := &StructLayout{Offsets: make([]int, len(t.Fields))}
	offset := 0
	maxAlign := 1
	for i, f := range t.Fields {
		size, align := sizeAndAlign(ctx, f, td)
		if align > maxAlign {
			maxAlign = align
		}
		offset = alignUp(offset, align)
		layout.Offsets[i] = offset
		offset += size
	}
	layout.Align = maxAlign
	layout.Size = alignUp(offset, maxAlign)
	return layout
}

func sizeAndAlign(ctx *Context, t *Type, td *TargetData) (size, align int) {
	switch t.Kind {
	case Struct:
		l := structLayoutFor(ctx, t, td)
		return l.Size, l.Align
	case Array:
		elemSize, elemAlign := sizeAndAlign(ctx, t.Elem, td)
		return elemSize * t.Length, elemAlign
	default:
		return td.sizeOf(t.Kind), td.alignOf(t.Kind)
	}
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// structLayoutFor fetches-or-builds the annotation directly, used
// internally so nested struct layouts don't require the caller to
// have registered the factory on ctx themselves (Context always does
// this in NewContext).
func structLayoutFor(ctx *Context, t *Type, td *TargetData) *StructLayout {
	key := layoutKey{t, td}
	if v := ctx.Annotation(key, AnnStructLayout); v != nil {
		return v.(*StructLayout)
	}
	return computeLayout(ctx, t, td)
}
