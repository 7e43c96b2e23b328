package ir

// Global is the header shared by every module-level symbol: functions
// and global variables (§3.4). It embeds Value so a global can be
// used as an operand (e.g. the callee of a call, or the pointer
// operand of a load) like any other first-class value.
type Global struct {
	Value
	Module  *Module
	Linkage Linkage
}

// Linkage controls cross-module symbol resolution (§3.4, §4.5
// archives): External symbols are visible to the linker, Internal
// ones are private to their module.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
)

// GlobalVariable is a module-level storage location with a fixed
// address, optionally pre-initialized (§3.4).
type GlobalVariable struct {
	Global
	ValueType   *Type // type of the pointee, not of the GlobalVariable itself (always a pointer)
	Initializer *Constant
	Constant    bool
}

// Argument is a function parameter (§3.4): a first-class Value owned
// by its Function, numbered by position.
type Argument struct {
	Value
	Parent *Function
	Index  int
}

// Function is a module-level symbol with a signature and, unless it
// is an external declaration, a body of basic blocks (§3.4). The
// entry block is always Blocks[0] and by invariant has no
// predecessors (§4.2).
type Function struct {
	Global
	Sig    *Type // Function-kind Type: return + parameter types
	Args   []*Argument
	Blocks []*BasicBlock

	context *Context
	symtab  *symbolTable
}

func (fn *Function) ctx() *Context { return fn.context }

// IsDeclaration reports whether fn has no body (an external
// reference, as opposed to a definition).
func (fn *Function) IsDeclaration() bool { return len(fn.Blocks) == 0 }

// EntryBlock returns the function's entry block, or nil for a
// declaration.
func (fn *Function) EntryBlock() *BasicBlock {
	if len(fn.Blocks) == 0 {
		return nil
	}
	return fn.Blocks[0]
}

// AppendBlock creates a new basic block, appends it to the function,
// and returns it. The first block appended to an empty function
// becomes the entry block.
func (fn *Function) AppendBlock(name string) *BasicBlock {
	b := newBasicBlock(fn, name)
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// ReturnType returns the function's declared return type.
func (fn *Function) ReturnType() *Type { return fn.Sig.Ret }

// ParamType returns the declared type of parameter i.
func (fn *Function) ParamType(i int) *Type { return fn.Sig.Params[i] }
