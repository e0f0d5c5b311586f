package cfg

import "scatha/internal/ir"

// funcAnalyses caches every analysis this package can compute for one
// Function. Each field is filled in lazily, the first time it's asked
// for, and wiped by Invalidate.
type funcAnalyses struct {
	fn *ir.Function

	fwd      *cfgGraph
	rev      *cfgGraph
	dom      *DomTree
	postDom  *DomTree
	frontier map[*ir.BasicBlock][]*ir.BasicBlock
	pFront   map[*ir.BasicBlock][]*ir.BasicBlock
	lnf      *LoopNestingForest
}

var caches = make(map[*ir.Function]*funcAnalyses)

func analysesFor(fn *ir.Function) *funcAnalyses {
	if a, ok := caches[fn]; ok {
		return a
	}
	a := &funcAnalyses{fn: fn}
	caches[fn] = a
	return a
}

// Invalidate drops every cached analysis for fn. Any transformation that
// adds, removes, or rewires a basic block must call this before the next
// analysis query, or cfg will hand back a stale answer.
func Invalidate(fn *ir.Function) {
	delete(caches, fn)
}

func (a *funcAnalyses) forwardGraph() *cfgGraph {
	if a.fwd == nil {
		a.fwd = forwardGraph(a.fn)
	}
	return a.fwd
}

func (a *funcAnalyses) reverseGraph() *cfgGraph {
	if a.rev == nil {
		a.rev = reverseGraph(a.fn, newVirtualExit(a.fn))
	}
	return a.rev
}

func (a *funcAnalyses) domTree() *DomTree {
	if a.dom == nil {
		a.dom = computeDomTree(a.forwardGraph())
	}
	return a.dom
}

func (a *funcAnalyses) postDomTree() *DomTree {
	if a.postDom == nil {
		a.postDom = computeDomTree(a.reverseGraph())
	}
	return a.postDom
}

func (a *funcAnalyses) domFrontier() map[*ir.BasicBlock][]*ir.BasicBlock {
	if a.frontier == nil {
		a.frontier = computeDominanceFrontiers(a.forwardGraph(), a.domTree())
	}
	return a.frontier
}

func (a *funcAnalyses) postDomFrontier() map[*ir.BasicBlock][]*ir.BasicBlock {
	if a.pFront == nil {
		a.pFront = computeDominanceFrontiers(a.reverseGraph(), a.postDomTree())
	}
	return a.pFront
}

func (a *funcAnalyses) loopForest() *LoopNestingForest {
	if a.lnf == nil {
		a.lnf = computeLoopNestingForest(a.fn, a.domTree())
	}
	return a.lnf
}
