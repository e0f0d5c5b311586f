// Package cfg implements the control-flow analyses built on top of
// internal/ir's BasicBlock graph: dominance, dominance frontiers,
// post-dominance, the loop nesting forest, and LCSSA construction.
//
// Every analysis here is computed lazily and cached on the Function the
// first time it's asked for; a transformation that edits a function's
// CFG must call Invalidate(f) so a stale answer is never handed back.
package cfg

import "scatha/internal/ir"

// blockSet is a small set-of-blocks helper used throughout dominance and
// loop computation. Functions in this package are typically small
// enough that a map-backed set outperforms bit-vector bookkeeping in
// code clarity without costing anything observable.
type blockSet map[*ir.BasicBlock]bool

func newBlockSet(blocks ...*ir.BasicBlock) blockSet {
	s := make(blockSet, len(blocks))
	for _, b := range blocks {
		s[b] = true
	}
	return s
}

func (s blockSet) clone() blockSet {
	out := make(blockSet, len(s))
	for b := range s {
		out[b] = true
	}
	return out
}

func (s blockSet) equal(o blockSet) bool {
	if len(s) != len(o) {
		return false
	}
	for b := range s {
		if !o[b] {
			return false
		}
	}
	return true
}

func intersect(sets []blockSet) blockSet {
	if len(sets) == 0 {
		return blockSet{}
	}
	out := sets[0].clone()
	for _, s := range sets[1:] {
		for b := range out {
			if !s[b] {
				delete(out, b)
			}
		}
	}
	return out
}

// cfgGraph is a direction-agnostic view of a control-flow graph: a node
// set, an entry node, and a predecessor function. Dominance and
// post-dominance are the same fixpoint computation run over two
// different cfgGraphs (the real CFG, and the reversed CFG rooted at a
// virtual exit node).
type cfgGraph struct {
	entry *ir.BasicBlock
	nodes []*ir.BasicBlock
	preds func(*ir.BasicBlock) []*ir.BasicBlock
	succs func(*ir.BasicBlock) []*ir.BasicBlock
}

func forwardGraph(fn *ir.Function) *cfgGraph {
	return &cfgGraph{
		entry: fn.Entry(),
		nodes: fn.Blocks,
		preds: func(b *ir.BasicBlock) []*ir.BasicBlock { return b.Predecessors },
		succs: func(b *ir.BasicBlock) []*ir.BasicBlock { return b.Successors },
	}
}

// DomTree is a dominator tree over a cfgGraph: every node but the graph's
// entry has exactly one immediate dominator. The same type represents
// both a forward dominator tree and a post-dominator tree (built over
// the reversed graph); Dominates/StrictlyDominates read correctly for
// either, relative to the graph it was built from.
type DomTree struct {
	root     *ir.BasicBlock
	idom     map[*ir.BasicBlock]*ir.BasicBlock
	children map[*ir.BasicBlock][]*ir.BasicBlock
	domSets  map[*ir.BasicBlock]blockSet
}

// IDom returns b's immediate dominator, or nil for the tree's root.
func (t *DomTree) IDom(b *ir.BasicBlock) *ir.BasicBlock { return t.idom[b] }

// Children returns the blocks whose immediate dominator is b.
func (t *DomTree) Children(b *ir.BasicBlock) []*ir.BasicBlock { return t.children[b] }

// Root returns the tree's root (the function entry, for a dominator
// tree; the virtual exit, for a post-dominator tree).
func (t *DomTree) Root() *ir.BasicBlock { return t.root }

// Dominates reports whether a dominates b (reflexively: a dominates
// itself).
func (t *DomTree) Dominates(a, b *ir.BasicBlock) bool {
	return t.domSets[b][a]
}

// StrictlyDominates reports whether a dominates b and a != b.
func (t *DomTree) StrictlyDominates(a, b *ir.BasicBlock) bool {
	return a != b && t.Dominates(a, b)
}

// Preorder returns every block reachable from the root in dominator-tree
// preorder: a node always precedes its children.
func (t *DomTree) Preorder() []*ir.BasicBlock {
	var out []*ir.BasicBlock
	var visit func(*ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		out = append(out, b)
		for _, c := range t.children[b] {
			visit(c)
		}
	}
	visit(t.root)
	return out
}

// Postorder returns every block reachable from the root in
// dominator-tree postorder: a node always follows its children. This is
// the traversal order Cytron's dominance-frontier algorithm relies on.
func (t *DomTree) Postorder() []*ir.BasicBlock {
	var out []*ir.BasicBlock
	var visit func(*ir.BasicBlock)
	visit = func(b *ir.BasicBlock) {
		for _, c := range t.children[b] {
			visit(c)
		}
		out = append(out, b)
	}
	visit(t.root)
	return out
}

// computeDominanceSets runs the classical iterative fixpoint: the
// dominator set of a node is itself plus the intersection of its
// predecessors' dominator sets. Grounded on
// original_source/lib/Opt/Dominance.cc's computeDominanceSets.
func computeDominanceSets(g *cfgGraph) map[*ir.BasicBlock]blockSet {
	sets := make(map[*ir.BasicBlock]blockSet, len(g.nodes))
	all := newBlockSet(g.nodes...)
	for _, b := range g.nodes {
		if b == g.entry {
			sets[b] = newBlockSet(g.entry)
		} else {
			sets[b] = all.clone()
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range g.nodes {
			preds := g.preds(b)
			if b == g.entry || len(preds) == 0 {
				continue
			}
			predSets := make([]blockSet, len(preds))
			for i, p := range preds {
				predSets[i] = sets[p]
			}
			next := intersect(predSets)
			next[b] = true
			if !next.equal(sets[b]) {
				sets[b] = next
				changed = true
			}
		}
	}
	return sets
}

// buildDomTree picks each node's immediate dominator out of its
// dominator set: the unique strict dominator that is itself dominated
// by every other strict dominator of b.
func buildDomTree(g *cfgGraph, sets map[*ir.BasicBlock]blockSet) *DomTree {
	t := &DomTree{
		root:     g.entry,
		idom:     make(map[*ir.BasicBlock]*ir.BasicBlock),
		children: make(map[*ir.BasicBlock][]*ir.BasicBlock),
		domSets:  sets,
	}
	for _, b := range g.nodes {
		if b == g.entry {
			continue
		}
		strict := sets[b].clone()
		delete(strict, b)
		for cand := range strict {
			isImmediate := true
			for other := range strict {
				if other != cand && !sets[cand][other] {
					isImmediate = false
					break
				}
			}
			if isImmediate {
				t.idom[b] = cand
				break
			}
		}
	}
	for b, d := range t.idom {
		t.children[d] = append(t.children[d], b)
	}
	return t
}

func computeDomTree(g *cfgGraph) *DomTree {
	return buildDomTree(g, computeDominanceSets(g))
}

// Dominance returns fn's dominator tree, computing and caching it on
// first use.
func Dominance(fn *ir.Function) *DomTree {
	return analysesFor(fn).domTree()
}
