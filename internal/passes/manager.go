package passes

import (
	"fmt"

	"ssamid/internal/ir"
)

// PassManager schedules a fixed pipeline of passes over a module
// (§4.3). Consecutive passes sharing a granularity are batched into a
// single walk of their unit (function or basic block) rather than
// each re-walking the module independently — the "coarser batches
// finer" rule of step 2 — and a pass that Provides an analysis flushes
// the current batch (step 3), so anything scheduled after it sees a
// result computed fresh rather than one cached mid-batch.
type PassManager struct {
	pipeline []Pass
	am       *AnalysisManager
}

// NewPassManager builds a manager for the given ordered pipeline.
func NewPassManager(pipeline ...Pass) *PassManager {
	pm := &PassManager{pipeline: pipeline, am: NewAnalysisManager()}
	pm.computeLastUses()
	return pm
}

func (pm *PassManager) computeLastUses() {
	for idx, p := range pm.pipeline {
		for _, req := range p.Info().Requires {
			pm.am.lastUse[req] = idx
		}
	}
}

// passBatch is a maximal run of consecutive pipeline passes sharing a
// granularity, with no intervening analysis-providing pass.
type passBatch struct {
	granularity Granularity
	passes      []Pass
}

func buildBatches(pipeline []Pass) []passBatch {
	var batches []passBatch
	for _, p := range pipeline {
		g := p.Info().Granularity
		if n := len(batches); n > 0 {
			last := &batches[n-1]
			lastPass := last.passes[len(last.passes)-1]
			flushed := len(lastPass.Info().Provides) > 0
			if last.granularity == g && g != ModuleGranularity && !flushed {
				last.passes = append(last.passes, p)
				continue
			}
		}
		batches = append(batches, passBatch{granularity: g, passes: []Pass{p}})
	}
	return batches
}

// Run executes the pipeline over m, returning whether any pass
// reported a change and the first error encountered, if any.
func (pm *PassManager) Run(m *ir.Module) (changed bool, err error) {
	batches := buildBatches(pm.pipeline)
	idx := -1
	for _, bt := range batches {
		for _, p := range bt.passes {
			for _, req := range p.Info().Requires {
				if err := pm.ensureAnalysis(m, req); err != nil {
					return changed, fmt.Errorf("pass %s requires %s: %w", p.Info().Name, req, err)
				}
			}
		}

		var c bool
		switch bt.granularity {
		case ModuleGranularity:
			c, err = pm.runSinglePass(m, bt.passes[0])
		case FunctionGranularity:
			c, err = pm.runFunctionBatch(m, bt.passes)
		case BasicBlockGranularity:
			c, err = pm.runBlockBatch(m, bt.passes)
		default:
			err = fmt.Errorf("passes: %s declares no supported granularity", bt.passes[0].Info().Name)
		}
		if err != nil {
			return changed, err
		}
		changed = changed || c

		for _, p := range bt.passes {
			idx++
			info := p.Info()
			for _, pid := range info.Provides {
				pm.am.registerCFGOnly(pid, info.CFGOnly)
			}
			pm.am.invalidateNotPreserved(info.Preserves)
			pm.am.releaseExpired(idx)
		}
	}
	return changed, nil
}

// ensureAnalysis instantiates and runs id's registered provider if it
// is not already cached (§4.3 step 1: required-analysis synthesis).
// The provider's own Requires are satisfied recursively first.
func (pm *PassManager) ensureAnalysis(m *ir.Module, id AnalysisID) error {
	if pm.am.Has(id) {
		return nil
	}
	ctor, ok := analysisProviders[id]
	if !ok {
		return fmt.Errorf("no registered provider for analysis %q", id)
	}
	provider := ctor()
	for _, req := range provider.Info().Requires {
		if err := pm.ensureAnalysis(m, req); err != nil {
			return err
		}
	}
	if _, err := pm.runSinglePass(m, provider); err != nil {
		return fmt.Errorf("synthesizing %s: %w", provider.Info().Name, err)
	}
	info := provider.Info()
	for _, pid := range info.Provides {
		pm.am.registerCFGOnly(pid, info.CFGOnly)
	}
	if !pm.am.Has(id) {
		return fmt.Errorf("pass %s ran but did not provide %q", info.Name, id)
	}
	return nil
}

func (pm *PassManager) runSinglePass(m *ir.Module, p Pass) (bool, error) {
	var c bool
	var err error
	switch pass := p.(type) {
	case ModulePass:
		c, err = pass.RunOnModule(m, pm.am)
	case FunctionPass:
		c, err = pm.runFunctionBatch(m, []Pass{pass})
	case BasicBlockPass:
		c, err = pm.runBlockBatch(m, []Pass{pass})
	default:
		err = fmt.Errorf("passes: %s declares no supported granularity", p.Info().Name)
	}
	if err != nil {
		return c, fmt.Errorf("pass %s: %w", p.Info().Name, err)
	}
	return c, nil
}

func (pm *PassManager) runFunctionBatch(m *ir.Module, batch []Pass) (bool, error) {
	changed := false
	fps := make([]FunctionPass, len(batch))
	for i, p := range batch {
		fp, ok := p.(FunctionPass)
		if !ok {
			return changed, fmt.Errorf("passes: %s declares FunctionGranularity but is not a FunctionPass", p.Info().Name)
		}
		fps[i] = fp
	}
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		for i, fp := range fps {
			c, err := fp.RunOnFunction(fn, pm.am)
			if err != nil {
				return changed, fmt.Errorf("pass %s: %w", batch[i].Info().Name, err)
			}
			changed = changed || c
		}
	}
	return changed, nil
}

func (pm *PassManager) runBlockBatch(m *ir.Module, batch []Pass) (bool, error) {
	changed := false
	bps := make([]BasicBlockPass, len(batch))
	for i, p := range batch {
		bp, ok := p.(BasicBlockPass)
		if !ok {
			return changed, fmt.Errorf("passes: %s declares BasicBlockGranularity but is not a BasicBlockPass", p.Info().Name)
		}
		bps[i] = bp
	}
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		for _, b := range fn.Blocks {
			for i, bp := range bps {
				c, err := bp.RunOnBasicBlock(b, pm.am)
				if err != nil {
					return changed, fmt.Errorf("pass %s: %w", batch[i].Info().Name, err)
				}
				changed = changed || c
			}
		}
	}
	return changed, nil
}
