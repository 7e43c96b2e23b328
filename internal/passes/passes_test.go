package passes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssamid/internal/ir"
)

// buildBranchingFunction builds a three-block function (entry branching
// to either of two blocks that both return) so dominator-tree
// construction has nontrivial structure to compute.
func buildBranchingFunction(t *testing.T) (*ir.Context, *ir.Module, *ir.Function) {
	t.Helper()
	ctx := ir.NewContext()
	m := ctx.NewModule("t")
	i32 := ctx.Int32Type()
	sig := ctx.FunctionType(i32, []*ir.Type{ctx.BoolType()}, false)
	fn := m.NewFunction("pick", sig)

	entry := fn.AppendBlock("entry")
	left := fn.AppendBlock("left")
	right := fn.AppendBlock("right")

	eb := ir.NewBuilder(ctx, entry)
	eb.CondBr(&fn.Args[0].Value, left, right)

	lb := ir.NewBuilder(ctx, left)
	one := ctx.IntConstant(i32, 1)
	lb.Ret(&one.Value)

	rb := ir.NewBuilder(ctx, right)
	zero := ctx.IntConstant(i32, 0)
	rb.Ret(&zero.Value)

	return ctx, m, fn
}

// countingAnalysis is a test-local ModulePass that records how many
// times it actually ran, so a test can distinguish "recomputed" from
// "served from cache".
type countingAnalysis struct {
	id       AnalysisID
	runs     *int
	cfg      bool
	preserve []AnalysisID
}

func (c *countingAnalysis) Info() Info {
	return Info{
		Name:        string(c.id),
		Granularity: ModuleGranularity,
		Provides:    []AnalysisID{c.id},
		Preserves:   c.preserve,
		CFGOnly:     c.cfg,
	}
}

func (c *countingAnalysis) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	*c.runs++
	am.Set(c.id, *c.runs)
	return false, nil
}

// requireAnalysis is a test-local ModulePass that requires id, forcing
// buildBatches to flush whatever batch precedes it and, if id isn't
// already cached, PassManager.Run's synthesis path to compute it.
type requireAnalysis struct {
	id   AnalysisID
	seen *[]interface{}
}

func (r *requireAnalysis) Info() Info {
	return Info{
		Name:      "require-" + string(r.id),
		Granularity: ModuleGranularity,
		Requires:  []AnalysisID{r.id},
		Preserves: []AnalysisID{PreserveAll},
	}
}

func (r *requireAnalysis) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	*r.seen = append(*r.seen, am.Get(r.id))
	return false, nil
}

// noopNoPreserve declares no Preserves at all, so every cached analysis
// must be invalidated once it finishes.
type noopNoPreserve struct{ granularity Granularity }

func (n noopNoPreserve) Info() Info {
	return Info{Name: "noop", Granularity: n.granularity}
}

func (n noopNoPreserve) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	return false, nil
}

func (n noopNoPreserve) RunOnFunction(fn *ir.Function, am *AnalysisManager) (bool, error) {
	return false, nil
}

func (n noopNoPreserve) RunOnBasicBlock(b *ir.BasicBlock, am *AnalysisManager) (bool, error) {
	return false, nil
}

func TestDomTreeAnalysisProvidesAndVerifyPassConsumesIt(t *testing.T) {
	_, m, _ := buildBranchingFunction(t)

	pm := NewPassManager(&DomTreeAnalysis{}, &VerifyPass{})
	changed, err := pm.Run(m)
	require.NoError(t, err)
	require.False(t, changed)
}

func TestEnsureAnalysisSynthesizesMissingRequiredAnalysis(t *testing.T) {
	_, m, _ := buildBranchingFunction(t)

	var seen []interface{}
	// VerifyPass alone, with no DomTreeAnalysis explicitly scheduled:
	// the manager must synthesize DomTreeAnalysisID on demand.
	pm := NewPassManager(&VerifyPass{}, &requireAnalysis{id: DomTreeAnalysisID, seen: &seen})
	_, err := pm.Run(m)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	require.NotNil(t, seen[0], "synthesized analysis must be cached and retrievable")
}

// TestCFGOnlyPreservationAvoidsRecompute is scenario 6: a pass declaring
// PreserveAllCFGOnly, run between two requirers of a CFG-only analysis,
// must not force that analysis to be recomputed.
func TestCFGOnlyPreservationAvoidsRecompute(t *testing.T) {
	runs := 0
	analysisID := AnalysisID("counting-cfg")
	provider := &countingAnalysis{id: analysisID, runs: &runs, cfg: true, preserve: []AnalysisID{PreserveAll}}

	var seen []interface{}
	// A CFG-only-preserving pass sits between two requirers, matching
	// the teacher's fold.Peephole contract.
	pm := NewPassManager(
		provider,
		&requireAnalysis{id: analysisID, seen: &seen},
		&cfgOnlyPass{},
		&requireAnalysis{id: analysisID, seen: &seen},
	)
	_, m, _ := buildBranchingFunction(t)
	_, err := pm.Run(m)
	require.NoError(t, err)

	require.Equal(t, 1, runs, "a CFG-only analysis must survive a pass that preserves all-CFG-only")
	require.Len(t, seen, 2)
	require.Equal(t, seen[0], seen[1], "both requirers must observe the same cached result")
}

// TestNoPreservationForcesRecompute is the contrasting half of scenario
// 6: a pass declaring no preservation at all must cause the next
// requirer to see the analysis recomputed.
func TestNoPreservationForcesRecompute(t *testing.T) {
	runs := 0
	analysisID := AnalysisID("counting-none")
	provider := &countingAnalysis{id: analysisID, runs: &runs, cfg: true, preserve: []AnalysisID{PreserveAll}}
	RegisterAnalysis(analysisID, func() Pass { return provider })

	var seen []interface{}
	pm := NewPassManager(
		provider,
		&requireAnalysis{id: analysisID, seen: &seen},
		noopNoPreserve{granularity: ModuleGranularity},
		&requireAnalysis{id: analysisID, seen: &seen},
	)
	_, m, _ := buildBranchingFunction(t)
	_, err := pm.Run(m)
	require.NoError(t, err)

	require.Equal(t, 2, runs, "an analysis must be recomputed once a pass with no Preserves runs")
	require.Len(t, seen, 2)
	require.NotEqual(t, seen[0], seen[1], "the two requirers must observe distinct (recomputed) results")
}

// cfgOnlyPass is a ModulePass that changes nothing but declares
// PreserveAllCFGOnly, mirroring fold.Peephole's contract without
// depending on the internal/fold package.
type cfgOnlyPass struct{}

func (cfgOnlyPass) Info() Info {
	return Info{
		Name:        "cfg-only-noop",
		Granularity: ModuleGranularity,
		Preserves:   []AnalysisID{PreserveAllCFGOnly},
	}
}

func (cfgOnlyPass) RunOnModule(m *ir.Module, am *AnalysisManager) (bool, error) {
	return false, nil
}

func TestBuildBatchesGroupsConsecutiveSameGranularityPasses(t *testing.T) {
	a := noopNoPreserve{granularity: FunctionGranularity}
	b := noopNoPreserve{granularity: FunctionGranularity}
	c := &DomTreeAnalysis{} // ModuleGranularity, Provides non-empty: flushes

	batches := buildBatches([]Pass{a, b, c})
	require.Len(t, batches, 2)
	require.Len(t, batches[0].passes, 2)
	require.Len(t, batches[1].passes, 1)
}

func TestBuildBatchesFlushesAfterAnalysisProvider(t *testing.T) {
	runs := 0
	provider := &countingAnalysis{id: "x", runs: &runs, preserve: []AnalysisID{PreserveAll}}
	a := noopNoPreserve{granularity: ModuleGranularity}

	batches := buildBatches([]Pass{provider, a})
	require.Len(t, batches, 2, "a pass that Provides an analysis must flush its batch even though the next pass shares its granularity")
}

func TestAnalysisManagerInvalidateNotPreservedHonorsClasses(t *testing.T) {
	am := NewAnalysisManager()
	am.Set("cfg", 1)
	am.registerCFGOnly("cfg", true)
	am.Set("content", 2)

	am.invalidateNotPreserved([]AnalysisID{PreserveAllCFGOnly})
	require.True(t, am.Has("cfg"))
	require.False(t, am.Has("content"))

	am.Set("content", 2)
	am.invalidateNotPreserved([]AnalysisID{PreserveAll})
	require.True(t, am.Has("cfg"))
	require.True(t, am.Has("content"))

	am.invalidateNotPreserved(nil)
	require.False(t, am.Has("cfg"))
	require.False(t, am.Has("content"))
}
