package promote

import (
	"scatha/internal/cfg"
	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// variableInfo tracks the bookkeeping needed to promote one alloca: the
// blocks that define it (contain a store) and use it (contain a load),
// which blocks are live-in for it, the phis inserted for it, and the
// per-block rename stack used while rewriting. Grounded on
// AllocaPromotion.cc's VariableInfo.
type variableInfo struct {
	alloca         *ir.Instruction
	definingBlocks map[*ir.BasicBlock]bool
	usingBlocks    map[*ir.BasicBlock]bool
	liveBlocks     map[*ir.BasicBlock]bool
	phis           map[*ir.BasicBlock]*ir.Instruction

	stack []ir.Value
}

func newVariableInfo(alloca *ir.Instruction) *variableInfo {
	vi := &variableInfo{
		alloca:         alloca,
		definingBlocks: map[*ir.BasicBlock]bool{},
		usingBlocks:    map[*ir.BasicBlock]bool{},
		phis:           map[*ir.BasicBlock]*ir.Instruction{},
	}
	for _, use := range alloca.Uses() {
		inst := use.User.(*ir.Instruction)
		switch inst.Op {
		case ir.OpStore:
			vi.definingBlocks[inst.Parent()] = true
		case ir.OpLoad:
			vi.usingBlocks[inst.Parent()] = true
		}
	}
	return vi
}

// computeLiveBlocks finds which using-blocks see alloca's value flow in
// from a predecessor (as opposed to always being overwritten by a store
// before the first load in that block), then propagates liveness
// backward through predecessors, stopping at defining blocks. Grounded
// on AllocaPromotion.cc's VariableInfo::computeLiveBlocks.
func (vi *variableInfo) computeLiveBlocks() {
	vi.liveBlocks = map[*ir.BasicBlock]bool{}
	var worklist []*ir.BasicBlock

	for bb := range vi.usingBlocks {
		liveIn := true
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpLoad && inst.Operands()[0] == ir.Value(vi.alloca) {
				break // load before any store: this block is live-in
			}
			if inst.Op == ir.OpStore && inst.Operands()[0] == ir.Value(vi.alloca) {
				liveIn = false
				break
			}
		}
		if liveIn && !vi.liveBlocks[bb] {
			vi.liveBlocks[bb] = true
			worklist = append(worklist, bb)
		}
	}

	for len(worklist) > 0 {
		bb := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, pred := range bb.Predecessors {
			if vi.liveBlocks[pred] || vi.definingBlocks[pred] {
				continue
			}
			vi.liveBlocks[pred] = true
			worklist = append(worklist, pred)
		}
	}
}

// insertPhis places a phi in every block y in the iterated dominance
// frontier of a defining block, provided y is live for this variable.
// Grounded on AllocaPromotion.cc's VariableInfo::insertPhis (Cytron
// worklist over dominance frontiers).
func (vi *variableInfo) insertPhis(c *ctx.Context, frontier map[*ir.BasicBlock][]*ir.BasicBlock) {
	hasPhi := map[*ir.BasicBlock]bool{}
	worklist := make([]*ir.BasicBlock, 0, len(vi.definingBlocks))
	for bb := range vi.definingBlocks {
		worklist = append(worklist, bb)
	}

	for len(worklist) > 0 {
		x := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, y := range frontier[x] {
			if hasPhi[y] || !vi.liveBlocks[y] {
				continue
			}
			phi := ir.NewPhi(vi.alloca.AllocaType)
			phi.SetName(vi.alloca.Name())
			y.PushFront(phi)
			vi.phis[y] = phi
			hasPhi[y] = true
			worklist = append(worklist, y)
		}
	}
}

// push records a new version of the variable on the rename stack.
// Grounded on AllocaPromotion.cc's VariableInfo::genName, simplified
// since this package never needs the version's synthetic name, only
// the value itself.
func (vi *variableInfo) push(v ir.Value) { vi.stack = append(vi.stack, v) }

func (vi *variableInfo) top() ir.Value {
	if len(vi.stack) == 0 {
		return nil
	}
	return vi.stack[len(vi.stack)-1]
}

func (vi *variableInfo) popTo(n int) { vi.stack = vi.stack[:n] }

// rename performs the dominator-tree preorder renaming pass: within bb,
// the alloca's phi (if any) becomes the current version, loads are
// replaced by the current version, stores push a new version and are
// erased, and outgoing phi edges on successors are filled from the
// version live at the end of bb. Grounded on AllocaPromotion.cc's
// VariableInfo::rename and golang.org/x/tools/go/ssa's lift.go rename.
func (vi *variableInfo) rename(c *ctx.Context, dom *cfg.DomTree, bb *ir.BasicBlock) {
	mark := len(vi.stack)

	if phi, ok := vi.phis[bb]; ok {
		vi.push(ir.Value(phi))
	}

	for _, inst := range append([]*ir.Instruction(nil), bb.Instructions...) {
		switch inst.Op {
		case ir.OpLoad:
			if inst.Operands()[0] == ir.Value(vi.alloca) {
				cur := vi.top()
				if cur == nil {
					cur = ir.Value(ir.NewConstantValue(c.Undef(vi.alloca.AllocaType)))
				}
				inst.ReplaceAllUsesWith(cur)
				inst.EraseFromParent()
			}
		case ir.OpStore:
			if inst.Operands()[0] == ir.Value(vi.alloca) {
				vi.push(inst.Operands()[1])
				inst.EraseFromParent()
			}
		}
	}

	for _, succ := range bb.Successors {
		if phi, ok := vi.phis[succ]; ok {
			cur := vi.top()
			if cur == nil {
				cur = ir.Value(ir.NewConstantValue(c.Undef(vi.alloca.AllocaType)))
			}
			phi.AddIncoming(bb, cur)
		}
	}

	for _, child := range dom.Children(bb) {
		vi.rename(c, dom, child)
	}

	vi.popTo(mark)
}

// clean erases the now-unused alloca. Every load/store referencing it
// was removed during rename; only the alloca's remaining (zero) uses
// should be left.
func (vi *variableInfo) clean() {
	vi.alloca.EraseFromParent()
}

func promoteOne(c *ctx.Context, fn *ir.Function, alloca *ir.Instruction, dom *cfg.DomTree, frontier map[*ir.BasicBlock][]*ir.BasicBlock) {
	vi := newVariableInfo(alloca)
	vi.computeLiveBlocks()
	vi.insertPhis(c, frontier)
	vi.rename(c, dom, fn.Entry())
	vi.clean()
}
