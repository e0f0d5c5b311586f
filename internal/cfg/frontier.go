package cfg

import "scatha/internal/ir"

// computeDominanceFrontiers computes, for every node in g, the set of
// nodes in its dominance frontier: Cytron et al.'s recursive postorder
// formulation (DF_local ∪ DF_up over children), grounded directly on
// original_source/lib/Opt/Dominance.cc's DFContext.compute.
func computeDominanceFrontiers(g *cfgGraph, t *DomTree) map[*ir.BasicBlock][]*ir.BasicBlock {
	df := make(map[*ir.BasicBlock]blockSet, len(g.nodes))
	for _, b := range g.nodes {
		df[b] = blockSet{}
	}

	var compute func(*ir.BasicBlock)
	compute = func(x *ir.BasicBlock) {
		for _, child := range t.children[x] {
			compute(child)
		}

		// DF_local: successors of x not strictly dominated by x.
		for _, y := range g.succs(x) {
			if t.idom[y] != x {
				df[x][y] = true
			}
		}
		// DF_up: for each child z of x, frontier entries of z not
		// strictly dominated by x.
		for _, z := range t.children[x] {
			for y := range df[z] {
				if t.idom[y] != x {
					df[x][y] = true
				}
			}
		}
	}
	compute(t.root)

	out := make(map[*ir.BasicBlock][]*ir.BasicBlock, len(df))
	for b, set := range df {
		for y := range set {
			out[b] = append(out[b], y)
		}
	}
	return out
}

// DominanceFrontier returns fn's dominance frontier map, computing and
// caching it on first use.
func DominanceFrontier(fn *ir.Function) map[*ir.BasicBlock][]*ir.BasicBlock {
	return analysesFor(fn).domFrontier()
}

// PostDominanceFrontier returns fn's post-dominance frontier map,
// computing and caching it on first use. It never contains the virtual
// exit node as a value, only as a (possible) key.
func PostDominanceFrontier(fn *ir.Function) map[*ir.BasicBlock][]*ir.BasicBlock {
	return analysesFor(fn).postDomFrontier()
}
