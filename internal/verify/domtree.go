package verify

import "ssamid/internal/ir"

// DomTree is the iterative dominator-set computation (Cooper, Harvey,
// Kennedy's engineered algorithm, simplified to sets rather than
// immediate-dominator trees since verify only needs dominance
// queries, not a tree for later passes to walk). It depends only on
// control flow, not on instruction content, which is why
// internal/passes marks the pass that computes it CFG-only (§4.3
// "all-CFG-only" preservation class).
type DomTree struct {
	order map[*ir.BasicBlock]int
	doms  []map[int]bool
}

// BuildDomTree computes the dominator sets of every block in fn.
func BuildDomTree(fn *ir.Function) *DomTree {
	order := make(map[*ir.BasicBlock]int, len(fn.Blocks))
	for i, b := range fn.Blocks {
		order[b] = i
	}
	n := len(fn.Blocks)
	doms := make([]map[int]bool, n)
	all := make(map[int]bool, n)
	for i := 0; i < n; i++ {
		all[i] = true
	}
	doms[0] = map[int]bool{0: true}
	for i := 1; i < n; i++ {
		doms[i] = all
	}

	changed := true
	for changed {
		changed = false
		for i := 1; i < n; i++ {
			b := fn.Blocks[i]
			preds := b.Predecessors()
			if len(preds) == 0 {
				continue
			}
			var merged map[int]bool
			for _, p := range preds {
				pi, ok := order[p]
				if !ok {
					continue
				}
				if merged == nil {
					merged = cloneSet(doms[pi])
				} else {
					intersect(merged, doms[pi])
				}
			}
			if merged == nil {
				continue
			}
			merged[i] = true
			if !equalSets(merged, doms[i]) {
				doms[i] = merged
				changed = true
			}
		}
	}

	return &DomTree{order: order, doms: doms}
}

// Dominates reports whether def's block dominates use's block.
func (d *DomTree) Dominates(defBlock, useBlock *ir.BasicBlock) bool {
	di, ok := d.order[defBlock]
	if !ok {
		return false
	}
	ui, ok := d.order[useBlock]
	if !ok {
		return false
	}
	return d.doms[ui][di]
}

func cloneSet(s map[int]bool) map[int]bool {
	out := make(map[int]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersect(a, b map[int]bool) {
	for k := range a {
		if !b[k] {
			delete(a, k)
		}
	}
}

func equalSets(a, b map[int]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
