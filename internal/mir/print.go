package mir

import (
	"fmt"
	"strings"
)

var opNames = map[Opcode]string{
	Add: "add", Sub: "sub", Mul: "mul", UDiv: "udiv", SDiv: "sdiv", URem: "urem", SRem: "srem",
	And: "and", Or: "or", Xor: "xor", Shl: "shl", LShr: "lshr", AShr: "ashr",
	CmpEQ: "cmpeq", CmpNE: "cmpne", CmpLT: "cmplt", CmpLE: "cmple", CmpGT: "cmpgt", CmpGE: "cmpge",
	Move: "move", Load: "load", Store: "store", FrameAlloc: "framealloc",
	Br: "br", CondBr: "condbr", Ret: "ret", Call: "call",
}

func (op Opcode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown"
}

// Print renders fn in a readable, not-round-trippable assembly form
// for debugging and test golden output.
func Print(fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s(%d args) {\n", fn.Name, fn.NumArgs)
	for _, b := range fn.Blocks {
		fmt.Fprintf(&sb, "%s:\n", b.Label)
		for _, inst := range b.Instrs {
			sb.WriteString("  ")
			sb.WriteString(printInstr(inst))
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

func printInstr(inst Instr) string {
	switch inst.Op {
	case Br:
		return fmt.Sprintf("br %s", inst.Target.Label)
	case CondBr:
		return fmt.Sprintf("condbr %s, %s, %s", inst.Uses[0], inst.Targets[0].Label, inst.Targets[1].Label)
	case Ret:
		if len(inst.Uses) == 0 {
			return "ret"
		}
		return fmt.Sprintf("ret %s", inst.Uses[0])
	case Move:
		if len(inst.Uses) == 0 {
			return fmt.Sprintf("%s = move %d", inst.Defs[0], inst.Imm)
		}
		return fmt.Sprintf("%s = move %s", inst.Defs[0], inst.Uses[0])
	case FrameAlloc:
		return fmt.Sprintf("%s = framealloc", inst.Defs[0])
	case Call:
		uses := make([]string, len(inst.Uses))
		for i, u := range inst.Uses {
			uses[i] = u.String()
		}
		if len(inst.Defs) == 0 {
			return fmt.Sprintf("call(%s)", strings.Join(uses, ", "))
		}
		return fmt.Sprintf("%s = call(%s)", inst.Defs[0], strings.Join(uses, ", "))
	default:
		uses := make([]string, len(inst.Uses))
		for i, u := range inst.Uses {
			uses[i] = u.String()
		}
		return fmt.Sprintf("%s = %s %s", inst.Defs[0], inst.Op, strings.Join(uses, ", "))
	}
}
