package passes

import (
	"fmt"

	"ssamid/internal/dsa"
	"ssamid/internal/ir"
	"ssamid/internal/verify"
)

// Analysis identities this package registers a provider for. A
// consumer pass Requires one of these; the manager instantiates and
// runs its provider automatically if it isn't already cached (§4.3
// step 1).
const (
	DomTreeAnalysisID AnalysisID = "domtree"
	EscapeAnalysisID  AnalysisID = "dsa-escape"
)

func init() {
	RegisterAnalysis(DomTreeAnalysisID, func() Pass { return &DomTreeAnalysis{} })
	RegisterAnalysis(EscapeAnalysisID, func() Pass { return &EscapeAnalysis{} })
}

// DomTreeAnalysis computes every defined function's dominator tree in
// one module walk and caches the result under DomTreeAnalysisID, so
// VerifyPass (and any other consumer) never rebuilds it. It changes
// nothing in the module, so it preserves everything, and what it
// provides depends only on control flow (§4.3 "all-CFG-only").
type DomTreeAnalysis struct{}

func (DomTreeAnalysis) Info() Info {
	return Info{
		Name:        "domtree",
		Granularity: ModuleGranularity,
		Provides:    []AnalysisID{DomTreeAnalysisID},
		Preserves:   []AnalysisID{PreserveAll},
		CFGOnly:     true,
	}
}

func (DomTreeAnalysis) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	trees := make(map[*ir.Function]*verify.DomTree, len(m.Functions))
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		trees[fn] = verify.BuildDomTree(fn)
	}
	am.Set(DomTreeAnalysisID, trees)
	return false, nil
}

// EscapeAnalysis runs the data-structure graph's complete bottom-up
// closure (§4.7) over the whole module and caches, per function, the
// set of nodes its escape analysis judges to have escaped. Unlike
// DomTreeAnalysis, its result depends on instruction content, not just
// control flow, so it is not CFG-only: any pass that rewrites
// instructions (even without touching the CFG) must invalidate it.
type EscapeAnalysis struct{}

func (EscapeAnalysis) Info() Info {
	return Info{
		Name:        "dsa-escape",
		Granularity: ModuleGranularity,
		Provides:    []AnalysisID{EscapeAnalysisID},
		Preserves:   []AnalysisID{PreserveAll},
		CFGOnly:     false,
	}
}

func (EscapeAnalysis) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	prog := dsa.BuildProgram(m)
	prog.CloseEquivalenceClass()
	prog.CloseTopDown()
	prog.CloseBottomUp()
	escaping := make(map[*ir.Function][]*dsa.Node, len(prog.Graphs))
	for fn, g := range prog.Graphs {
		escaping[fn] = dsa.EscapingNodes(g)
	}
	am.Set(EscapeAnalysisID, escaping)
	return false, nil
}

// VerifyPass runs the structural verifier over every defined function
// using the manager-provided dominator tree instead of recomputing one
// per function, demonstrating a genuine Requires consumer for
// DomTreeAnalysisID (§4.9: "the recommended last pass of any
// pipeline"). A non-empty verification result is reported as an error
// so a pipeline driver can treat it as fatal, matching the policy
// internal/codec already applies on decode.
type VerifyPass struct{}

func (VerifyPass) Info() Info {
	return Info{
		Name:        "verify",
		Granularity: ModuleGranularity,
		Requires:    []AnalysisID{DomTreeAnalysisID},
		Preserves:   []AnalysisID{PreserveAll},
	}
}

func (VerifyPass) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	trees, _ := am.Get(DomTreeAnalysisID).(map[*ir.Function]*verify.DomTree)
	r := &verify.Result{}
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		dom := trees[fn]
		if dom == nil {
			dom = verify.BuildDomTree(fn)
		}
		verify.FunctionWithDomTree(fn, dom, r)
	}
	if r.HasErrors() {
		return false, fmt.Errorf("module failed verification: %d violation(s)", len(r.Errors))
	}
	return false, nil
}
