package cfg

import "scatha/internal/ir"

// LNFNode is one node of a function's loop nesting forest: either a
// proper loop header or a block that is not itself a loop header but
// still needs a place in the forest. Grounded on
// original_source/lib/IR/Loop.h's LNFNode.
type LNFNode struct {
	block    *ir.BasicBlock
	parent   *LNFNode
	children []*LNFNode
}

// BasicBlock returns the block this forest node represents.
func (n *LNFNode) BasicBlock() *ir.BasicBlock { return n.block }

// Parent returns the node whose loop (if any) immediately contains n,
// or nil at forest roots.
func (n *LNFNode) Parent() *LNFNode { return n.parent }

// Children returns the nodes immediately nested under n.
func (n *LNFNode) Children() []*LNFNode { return n.children }

// IsProperLoop reports whether n's block is an actual loop header: it
// has children in the forest, or a self-edge (a single-block loop).
func (n *LNFNode) IsProperLoop() bool {
	if len(n.children) > 0 {
		return true
	}
	for _, s := range n.block.Successors {
		if s == n.block {
			return true
		}
	}
	return false
}

// LoopNestingForest is a function's loops arranged as a forest: a loop's
// children are the headers of loops immediately nested inside it (or
// non-header blocks that belong only to it).
type LoopNestingForest struct {
	fn    *ir.Function
	nodes map[*ir.BasicBlock]*LNFNode
	roots []*LNFNode
}

// Node returns the forest node for b, or nil if b is not a block of the
// function. Every block of the function, reachable or not, has a node.
func (f *LoopNestingForest) Node(b *ir.BasicBlock) *LNFNode { return f.nodes[b] }

// Roots returns the forest's top-level nodes.
func (f *LoopNestingForest) Roots() []*LNFNode { return f.roots }

// Empty reports whether fn contains no loops at all.
func (f *LoopNestingForest) Empty() bool {
	for _, n := range f.nodes {
		if n.IsProperLoop() {
			return false
		}
	}
	return true
}

// PreorderDFS visits every forest node in preorder (a loop header before
// the loops nested in it).
func (f *LoopNestingForest) PreorderDFS(visit func(*LNFNode)) {
	var walk func(*LNFNode)
	walk = func(n *LNFNode) {
		visit(n)
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, r := range f.roots {
		walk(r)
	}
}

// backEdge is a control-flow edge u -> v where v dominates u: a
// candidate natural loop with header v.
type backEdge struct {
	from, to *ir.BasicBlock
}

func findBackEdges(fn *ir.Function, dom *DomTree) []backEdge {
	var edges []backEdge
	for _, b := range fn.Blocks {
		for _, s := range b.Successors {
			if dom.Dominates(s, b) {
				edges = append(edges, backEdge{from: b, to: s})
			}
		}
	}
	return edges
}

// naturalLoopBody computes the natural loop of the back edge (from,
// header): every block that can reach from without passing through
// header, plus header and from themselves. This is the standard
// backward-worklist construction.
func naturalLoopBody(header, from *ir.BasicBlock) blockSet {
	body := newBlockSet(header, from)
	worklist := []*ir.BasicBlock{from}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range b.Predecessors {
			if !body[p] {
				body[p] = true
				worklist = append(worklist, p)
			}
		}
	}
	return body
}

// computeLoopNestingForest builds the loop nesting forest by finding
// back edges, merging those that share a header into one natural loop
// body, and nesting loops whose bodies contain another loop's header.
// Grounded on original_source/lib/IR/Loop.h's LoopNestingForest::compute.
func computeLoopNestingForest(fn *ir.Function, dom *DomTree) *LoopNestingForest {
	edges := findBackEdges(fn, dom)

	bodies := make(map[*ir.BasicBlock]blockSet)
	var headers []*ir.BasicBlock
	for _, e := range edges {
		if _, ok := bodies[e.to]; !ok {
			bodies[e.to] = blockSet{}
			headers = append(headers, e.to)
		}
		for b := range naturalLoopBody(e.to, e.from) {
			bodies[e.to][b] = true
		}
	}

	nodes := make(map[*ir.BasicBlock]*LNFNode, len(fn.Blocks))
	for _, b := range fn.Blocks {
		nodes[b] = &LNFNode{block: b}
	}

	// Nest headers: header h1 is nested inside header h2 when h2's body
	// contains h1 and h1 != h2, choosing the innermost such h2 (the one
	// whose body is the smallest superset).
	for _, h := range headers {
		var bestParent *ir.BasicBlock
		for _, other := range headers {
			if other == h {
				continue
			}
			if bodies[other][h] {
				if bestParent == nil || len(bodies[other]) < len(bodies[bestParent]) {
					bestParent = other
				}
			}
		}
		if bestParent != nil {
			nodes[h].parent = nodes[bestParent]
			nodes[bestParent].children = append(nodes[bestParent].children, nodes[h])
		}
	}

	// Every non-header block belongs under the innermost header whose
	// body contains it, if any; otherwise it is its own forest root.
	for _, b := range fn.Blocks {
		if nodes[b].parent != nil || isHeader(headers, b) {
			continue
		}
		var bestHeader *ir.BasicBlock
		for _, h := range headers {
			if bodies[h][b] {
				if bestHeader == nil || len(bodies[h]) < len(bodies[bestHeader]) {
					bestHeader = h
				}
			}
		}
		if bestHeader != nil {
			nodes[b].parent = nodes[bestHeader]
			nodes[bestHeader].children = append(nodes[bestHeader].children, nodes[b])
		}
	}

	var roots []*LNFNode
	for _, b := range fn.Blocks {
		if nodes[b].parent == nil {
			roots = append(roots, nodes[b])
		}
	}

	return &LoopNestingForest{fn: fn, nodes: nodes, roots: roots}
}

func isHeader(headers []*ir.BasicBlock, b *ir.BasicBlock) bool {
	for _, h := range headers {
		if h == b {
			return true
		}
	}
	return false
}

// LoopForest returns fn's loop nesting forest, computing and caching it
// on first use.
func LoopForest(fn *ir.Function) *LoopNestingForest {
	return analysesFor(fn).loopForest()
}

// LoopInfo describes one natural loop in detail: its header, the blocks
// it contains, and how control leaves it. Grounded on
// original_source/lib/IR/Loop.h's LoopInfo.
type LoopInfo struct {
	Header        *ir.BasicBlock
	InnerBlocks   []*ir.BasicBlock
	ExitingBlocks []*ir.BasicBlock
	ExitBlocks    []*ir.BasicBlock
}

// ComputeLoopInfo computes the LoopInfo for the loop headed by
// header.BasicBlock(). header must be a proper loop (IsProperLoop());
// ComputeLoopInfo panics otherwise, mirroring LoopInfo::Compute's
// precondition in the original.
func ComputeLoopInfo(fn *ir.Function, header *LNFNode) *LoopInfo {
	if !header.IsProperLoop() {
		panic("cfg: ComputeLoopInfo: node is not a proper loop header")
	}
	body := collectLoopBody(header)

	info := &LoopInfo{Header: header.block}
	for b := range body {
		info.InnerBlocks = append(info.InnerBlocks, b)
	}
	for b := range body {
		isExiting := false
		for _, s := range b.Successors {
			if !body[s] {
				isExiting = true
				if !blockSliceContains(info.ExitBlocks, s) {
					info.ExitBlocks = append(info.ExitBlocks, s)
				}
			}
		}
		if isExiting {
			info.ExitingBlocks = append(info.ExitingBlocks, b)
		}
	}
	return info
}

// collectLoopBody gathers header's block plus every block belonging to
// header or to any loop nested inside it.
func collectLoopBody(header *LNFNode) blockSet {
	body := blockSet{header.block: true}
	var walk func(*LNFNode)
	walk = func(n *LNFNode) {
		body[n.block] = true
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, c := range header.children {
		walk(c)
	}
	return body
}

func blockSliceContains(blocks []*ir.BasicBlock, b *ir.BasicBlock) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}

// IsExiting reports whether b has at least one successor outside info's
// loop body.
func (info *LoopInfo) IsExiting(b *ir.BasicBlock) bool {
	return blockSliceContains(info.ExitingBlocks, b)
}

// IsExit reports whether b is a target of some exiting block's
// out-of-loop edge.
func (info *LoopInfo) IsExit(b *ir.BasicBlock) bool {
	return blockSliceContains(info.ExitBlocks, b)
}

// InductionVariable is a header phi that is advanced by a step
// instruction each iteration: one incoming value from outside the loop (the initial
// value) and one from a binary instruction inside the loop that uses
// the phi itself as an operand (the step).
type InductionVariable struct {
	Phi  *ir.Instruction
	Init ir.Value
	Step *ir.Instruction
}

// InductionVariables finds the header phis of info's loop that fit the
// simple induction-variable pattern. This is computed on demand, kept
// separate from LoopInfo itself, since not every caller of LoopInfo
// needs it and it is the more expensive of the two to derive.
func InductionVariables(info *LoopInfo) []InductionVariable {
	body := newBlockSet(info.InnerBlocks...)
	var out []InductionVariable
	for _, phi := range info.Header.Phis() {
		for _, edge := range phi.Incoming {
			if body[edge.Block] {
				if step, ok := edge.Value.(*ir.Instruction); ok && step.Op == ir.OpBinary {
					if usesOperand(step, phi) {
						var init ir.Value
						for _, e2 := range phi.Incoming {
							if !body[e2.Block] {
								init = e2.Value
							}
						}
						out = append(out, InductionVariable{Phi: phi, Init: init, Step: step})
					}
				}
			}
		}
	}
	return out
}

func usesOperand(u *ir.Instruction, v ir.Value) bool {
	for _, op := range u.Operands() {
		if op == v {
			return true
		}
	}
	return false
}
