package ir

// Module is the top-level compilation unit: a target data layout plus
// the functions and global variables it defines or declares (§3.4).
// Every value reachable from a Module was allocated through the same
// Context, so pointer identity of types and constants holds across
// the whole module.
type Module struct {
	ctx    *Context
	Name   string
	Target *TargetData

	Functions []*Function
	Globals   []*GlobalVariable

	symtab *symbolTable
}

// Context returns the owning Context.
func (m *Module) Context() *Context { return m.ctx }

// NewFunction declares (and, if the caller later appends blocks to
// it, defines) a function with the given signature, inserting it into
// the module's symbol table under name (disambiguated on collision).
func (m *Module) NewFunction(name string, sig *Type) *Function {
	if sig.Kind != FuncKind {
		panic("ir: NewFunction requires a Function-kind signature type")
	}
	fn := &Function{
		Sig:     sig,
		context: m.ctx,
		symtab:  newSymbolTable(),
	}
	fn.Module = m
	fn.Type = m.ctx.PointerType(sig)
	fn.id = m.ctx.nextID()
	fn.owner = fn
	fn.Name = m.symtab.Insert(name, fn)

	fn.Args = make([]*Argument, len(sig.Params))
	for i, pt := range sig.Params {
		arg := &Argument{Parent: fn, Index: i}
		arg.Type = pt
		arg.id = m.ctx.nextID()
		arg.owner = arg
		fn.Args[i] = arg
	}

	m.Functions = append(m.Functions, fn)
	return fn
}

// NewGlobalVariable declares a module-level storage location of the
// given pointee type.
func (m *Module) NewGlobalVariable(name string, valueType *Type, constant bool) *GlobalVariable {
	gv := &GlobalVariable{ValueType: valueType, Constant: constant}
	gv.Module = m
	gv.Type = m.ctx.PointerType(valueType)
	gv.id = m.ctx.nextID()
	gv.owner = gv
	gv.Name = m.symtab.Insert(name, gv)
	m.Globals = append(m.Globals, gv)
	return gv
}

// Lookup resolves a top-level symbol by name.
func (m *Module) Lookup(name string) (interface{}, bool) {
	return m.symtab.Lookup(name)
}
