// Package ir implements the IR object model: a strongly-typed SSA
// value/use graph with uniqued types and constants, arranged in the
// module -> function -> block -> instruction ownership hierarchy.
//
// Process-wide state (the type table, the constant table, and the
// annotation side-tables) is modeled as a single Context value rather
// than as package globals, so that a driver can run several
// independent compilations in one process and tear each down
// independently.
package ir

// Context owns every uniquing table and annotation side-table used
// during a single compilation. Every constructor in this package
// takes a *Context. The scheduling model is single-threaded
// throughout (see the concurrency notes in the project design
// document); a Context is not safe for concurrent use without an
// external lock.
type Context struct {
	types  *TypeTable
	consts *ConstantTable
	anns   *annotationStore

	nextValueID uint64

	// Cached primitive type singletons, populated on first request.
	primitives map[Kind]*Type
}

// NewContext creates a fresh, empty Context.
func NewContext() *Context {
	c := &Context{
		types:      newTypeTable(),
		consts:     newConstantTable(),
		anns:       newAnnotationStore(),
		primitives: make(map[Kind]*Type),
	}
	c.RegisterAnnotation(AnnStructLayout, func(ctx *Context, host interface{}) interface{} {
		key := host.(layoutKey)
		return computeLayout(ctx, key.t, key.td)
	})
	return c
}

func (c *Context) nextID() uint64 {
	c.nextValueID++
	return c.nextValueID
}

// NewModule creates an empty module owned by this context.
func (c *Context) NewModule(name string) *Module {
	return &Module{
		ctx:    c,
		Name:   name,
		Target: DefaultTargetData(),
		symtab: newSymbolTable(),
	}
}
