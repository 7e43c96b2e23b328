package passes

// analysisProviders maps an AnalysisID to the pass that computes it,
// so PassManager.Run can synthesize a missing required analysis
// on demand (§4.3 step 1) instead of returning a nil Get result.
// Populated by RegisterAnalysis, normally from an init() alongside the
// analysis pass's definition.
var analysisProviders = map[AnalysisID]func() Pass{}

// RegisterAnalysis records ctor as the pass that provides id. A pass
// registered this way need not appear in a pipeline explicitly: any
// later pass that Requires id causes the manager to instantiate and
// run ctor() first.
func RegisterAnalysis(id AnalysisID, ctor func() Pass) {
	analysisProviders[id] = ctor
}
