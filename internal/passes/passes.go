// Package passes implements the pass-manager infrastructure of §4.3:
// module/function/block-granularity passes, analysis results declared
// as required/provided/preserved, and a scheduler that batches passes
// of the same granularity and releases cached analyses once their last
// consumer has run.
package passes

import "ssamid/internal/ir"

// Granularity is the scope a Pass operates over.
type Granularity int

const (
	ModuleGranularity Granularity = iota
	FunctionGranularity
	BasicBlockGranularity
)

// AnalysisID names a cacheable derived result (e.g. dominator sets,
// data-structure graphs) that a pass can require, provide, or
// preserve.
type AnalysisID string

// PreserveAll and PreserveAllCFGOnly are synthetic AnalysisIDs a pass
// may put in its Preserves list instead of naming every individual
// analysis (§4.3 step 4). PreserveAll means the pass changes nothing
// an analysis could depend on (a pure analysis, or a no-op): every
// cached result survives. PreserveAllCFGOnly means the pass may
// rewrite instructions but never adds, removes, or reorders basic
// blocks or edges: analyses registered as CFG-only (Info.CFGOnly)
// survive, everything else is invalidated.
const (
	PreserveAll        AnalysisID = "all"
	PreserveAllCFGOnly AnalysisID = "all-CFG-only"
)

// Info is the static declaration every registered pass carries: its
// name, granularity, and its analysis contract (§4.3).
type Info struct {
	Name        string
	Granularity Granularity
	Requires    []AnalysisID
	Provides    []AnalysisID
	// Preserves lists analyses this pass leaves valid; any analysis not
	// listed is assumed invalidated once the pass runs. May contain the
	// PreserveAll/PreserveAllCFGOnly classes instead of (or alongside)
	// individual AnalysisIDs.
	Preserves []AnalysisID
	// CFGOnly marks an analysis pass (one with a non-empty Provides) as
	// depending only on control flow, never on instruction content —
	// the dominator tree qualifies, a data-structure graph does not.
	CFGOnly bool
}

// ModulePass transforms an entire module.
type ModulePass interface {
	Info() Info
	RunOnModule(m *ir.Module, am *AnalysisManager) (changed bool, err error)
}

// FunctionPass transforms one function at a time.
type FunctionPass interface {
	Info() Info
	RunOnFunction(fn *ir.Function, am *AnalysisManager) (changed bool, err error)
}

// BasicBlockPass transforms one basic block at a time.
type BasicBlockPass interface {
	Info() Info
	RunOnBasicBlock(b *ir.BasicBlock, am *AnalysisManager) (changed bool, err error)
}

// Pass is the union any of the three granularities satisfies; the
// PassManager type-switches on it at schedule time.
type Pass interface {
	Info() Info
}
