package ir

import (
	"fmt"
	"io"
	"strings"
)

// printer renders a Module to its textual form, the same surface
// format internal/textir parses back in. It is deliberately close to
// the original implementation's human-readable dump: one definition
// per line, blocks headed by their label, SSA names prefixed with %.
type printer struct {
	w    io.Writer
	fn   *Function
	slot *SlotTracker
}

// WriteModule prints m in its textual IR form.
func WriteModule(w io.Writer, m *Module) {
	fmt.Fprintf(w, "; target datalayout = %q\n", m.Target.String())
	for _, gv := range m.Globals {
		printGlobal(w, gv)
	}
	for _, fn := range m.Functions {
		p := &printer{w: w, fn: fn}
		if !fn.IsDeclaration() {
			p.slot = NewSlotTracker(fn)
		}
		p.writeFunction()
	}
}

// WriteFunction prints a single function in isolation, the same way
// WriteModule prints each of a module's functions in turn. Useful for
// a driver that has lazily materialized one function (see
// internal/codec.LazyModule) and wants to print just that one without
// forcing every other function's body to parse.
func WriteFunction(w io.Writer, fn *Function) {
	p := &printer{w: w, fn: fn}
	if !fn.IsDeclaration() {
		p.slot = NewSlotTracker(fn)
	}
	p.writeFunction()
}

func printGlobal(w io.Writer, gv *GlobalVariable) {
	kw := "global"
	if gv.Constant {
		kw = "constant"
	}
	init := "undef"
	if gv.Initializer != nil {
		init = gv.Initializer.String()
	}
	fmt.Fprintf(w, "@%s = %s %s\n", gv.Name, kw, init)
}

func (p *printer) writeFunction() {
	fn := p.fn
	params := make([]string, len(fn.Args))
	for i, a := range fn.Args {
		params[i] = a.Type.String() + " " + p.valueRef(&a.Value)
	}
	if fn.IsDeclaration() {
		fmt.Fprintf(p.w, "declare %s @%s(%s)\n", fn.ReturnType(), fn.Name, strings.Join(params, ", "))
		return
	}
	fmt.Fprintf(p.w, "define %s @%s(%s) {\n", fn.ReturnType(), fn.Name, strings.Join(params, ", "))
	for _, b := range fn.Blocks {
		p.writeBlock(b)
	}
	fmt.Fprintln(p.w, "}")
}

func (p *printer) writeBlock(b *BasicBlock) {
	fmt.Fprintf(p.w, "%s:\n", p.blockLabel(b))
	for _, inst := range b.Insts {
		fmt.Fprintf(p.w, "  %s\n", p.instructionLine(inst))
	}
}

func (p *printer) blockLabel(b *BasicBlock) string {
	if b.Name != "" {
		return b.Name
	}
	n, _ := p.slot.Slot(&b.Value)
	return fmt.Sprintf("bb%d", n)
}

func (p *printer) valueRef(v *Value) string {
	if v.Name != "" {
		return "%" + v.Name
	}
	if n, ok := p.slot.Slot(v); ok {
		return fmt.Sprintf("%%%d", n)
	}
	return "%?"
}

func (p *printer) operandRef(u *Use) string {
	if u == nil || u.Def == nil {
		return "undef"
	}
	if owner, ok := u.Def.owner.(*Constant); ok {
		return owner.String()
	}
	return p.valueRef(u.Def)
}

func (p *printer) instructionLine(inst *Instruction) string {
	var dst string
	if inst.Type.Kind != Void {
		dst = p.valueRef(&inst.Value) + " = "
	}
	switch inst.Op {
	case OpBr:
		return fmt.Sprintf("br label %s", p.blockLabel(inst.Succs[0]))
	case OpCondBr:
		return fmt.Sprintf("condbr %s, label %s, label %s",
			p.operandRef(inst.Operands[0]), p.blockLabel(inst.Succs[0]), p.blockLabel(inst.Succs[1]))
	case OpRet:
		if len(inst.Operands) == 0 {
			return "ret void"
		}
		return fmt.Sprintf("ret %s %s", inst.Operands[0].Def.Type, p.operandRef(inst.Operands[0]))
	case OpPhi:
		parts := make([]string, len(inst.Incoming))
		for i, inc := range inst.Incoming {
			parts[i] = fmt.Sprintf("[ %s, %s ]", p.valueRef(inc.Value), p.blockLabel(inc.Block))
		}
		return fmt.Sprintf("%sphi %s %s", dst, inst.Type, strings.Join(parts, ", "))
	case OpCall:
		args := make([]string, len(inst.Operands))
		for i, op := range inst.Operands {
			args[i] = p.operandRef(op)
		}
		return fmt.Sprintf("%scall %s @%s(%s)", dst, inst.Type, inst.Callee.Name, strings.Join(args, ", "))
	default:
		ops := make([]string, len(inst.Operands))
		for i, op := range inst.Operands {
			ops[i] = p.operandRef(op)
		}
		return fmt.Sprintf("%s%s %s %s", dst, opcodeName(inst.Op), inst.Type, strings.Join(ops, ", "))
	}
}
