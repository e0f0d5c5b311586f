package cfg

import "scatha/internal/ir"

// virtualExit is a synthetic sink node added to a function's CFG for the
// sole purpose of computing post-dominance: every exiting block (a
// Return, or any block with no successors) is treated as a predecessor
// of it in the reversed graph. It is never inserted into the real IR
// graph (never appended to Function.Blocks, never reachable from
// Entry()) and carries no instructions.
type virtualExit struct {
	node *ir.BasicBlock
}

func newVirtualExit(fn *ir.Function) *virtualExit {
	return &virtualExit{node: &ir.BasicBlock{}}
}

// exitingBlocks returns every block with no successors: the real
// predecessors of the virtual exit in the reversed graph.
func exitingBlocks(fn *ir.Function) []*ir.BasicBlock {
	var out []*ir.BasicBlock
	for _, b := range fn.Blocks {
		if len(b.Successors) == 0 {
			out = append(out, b)
		}
	}
	return out
}

// reverseGraph builds the cfgGraph for post-dominance: nodes are fn's
// real blocks plus the virtual exit, rooted at the virtual exit, with
// "predecessors" in this reversed world being each node's real
// successors (the virtual exit's real successors are the exiting
// blocks).
func reverseGraph(fn *ir.Function, ve *virtualExit) *cfgGraph {
	exits := exitingBlocks(fn)
	nodes := make([]*ir.BasicBlock, 0, len(fn.Blocks)+1)
	nodes = append(nodes, fn.Blocks...)
	nodes = append(nodes, ve.node)

	return &cfgGraph{
		entry: ve.node,
		nodes: nodes,
		preds: func(b *ir.BasicBlock) []*ir.BasicBlock {
			if b == ve.node {
				return nil
			}
			if len(b.Successors) == 0 {
				return []*ir.BasicBlock{ve.node}
			}
			return b.Successors
		},
		succs: func(b *ir.BasicBlock) []*ir.BasicBlock {
			if b == ve.node {
				return exits
			}
			return b.Predecessors
		},
	}
}

// PostDominance returns fn's post-dominator tree, computing and caching
// it on first use. Its Root() is a synthetic virtual-exit block that is
// not part of fn's real CFG.
func PostDominance(fn *ir.Function) *DomTree {
	return analysesFor(fn).postDomTree()
}

// PostDominates reports whether a post-dominates b: every path from b
// to a function exit passes through a.
func PostDominates(fn *ir.Function, a, b *ir.BasicBlock) bool {
	return PostDominance(fn).Dominates(a, b)
}
