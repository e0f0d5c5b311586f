package cfg

import (
	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// IsLCSSA reports whether every value defined inside info's loop that is
// used outside it is only ever used through a phi in an exit block (a
// "loop-closing phi"). Grounded on original_source/lib/IR/Loop.h's free
// function isLCSSA(LoopInfo const&).
func IsLCSSA(info *LoopInfo) bool {
	body := newBlockSet(info.InnerBlocks...)
	for _, b := range info.InnerBlocks {
		for _, inst := range b.Instructions {
			for _, use := range inst.Uses() {
				if !usedThroughClosingPhi(use, body) {
					return false
				}
			}
		}
	}
	return true
}

func usedThroughClosingPhi(use *ir.Use, body blockSet) bool {
	userInst, ok := use.User.(*ir.Instruction)
	if !ok {
		return true // global/foreign-function users are never inside the loop
	}
	if userInst.Op == ir.OpPhi {
		for _, e := range userInst.Incoming {
			if e.Value == use.Value && body[e.Block] {
				return true
			}
		}
	}
	return body[userInst.Parent()]
}

// MakeLCSSA rewrites fn so that info's loop satisfies IsLCSSA: for every
// value defined inside the loop with a use outside it, a phi is
// inserted in each exit block collecting that value from the exiting
// predecessors, and non-phi uses located in an exit block are redirected
// to that block's phi. Uses in blocks other than the exit blocks, and
// uses by phi instructions, are left unchanged.
// Grounded on original_source/lib/IR/Loop.h's makeLCSSA(LoopInfo&).
func MakeLCSSA(c *ctx.Context, fn *ir.Function, info *LoopInfo) {
	body := newBlockSet(info.InnerBlocks...)

	for _, b := range info.InnerBlocks {
		for _, inst := range append([]*ir.Instruction(nil), b.Instructions...) {
			outsideUses := externalUses(inst, body)
			if len(outsideUses) == 0 {
				continue
			}
			closingPhis := make(map[*ir.BasicBlock]*ir.Instruction)
			for _, exit := range info.ExitBlocks {
				if existing := findClosingPhi(exit, inst); existing != nil {
					closingPhis[exit] = existing
					continue
				}
				phi := ir.NewPhi(inst.Type())
				phi.SetName(inst.Name() + ".lcssa")
				for _, pred := range exit.Predecessors {
					if body[pred] {
						phi.AddIncoming(pred, inst)
					} else {
						phi.AddIncoming(pred, ir.NewConstantValue(c.Undef(inst.Type())))
					}
				}
				exit.PushFront(phi)
				closingPhis[exit] = phi
			}
			for _, use := range outsideUses {
				exit := enclosingExit(use, info.ExitBlocks)
				if exit == nil {
					continue
				}
				use.User.SetOperand(use.Index, closingPhis[exit])
			}
		}
	}
}

func externalUses(v ir.Value, body blockSet) []*ir.Use {
	var out []*ir.Use
	for _, use := range v.Uses() {
		inst, ok := use.User.(*ir.Instruction)
		if !ok {
			out = append(out, use)
			continue
		}
		if inst.Op == ir.OpPhi {
			continue // phi incoming edges are handled per-predecessor, not here
		}
		if !body[inst.Parent()] {
			out = append(out, use)
		}
	}
	return out
}

func enclosingExit(use *ir.Use, exits []*ir.BasicBlock) *ir.BasicBlock {
	inst, ok := use.User.(*ir.Instruction)
	if !ok {
		return nil
	}
	p := inst.Parent()
	for _, e := range exits {
		if e == p {
			return e
		}
	}
	return nil
}

func findClosingPhi(exit *ir.BasicBlock, defining *ir.Instruction) *ir.Instruction {
	for _, phi := range exit.Phis() {
		for _, e := range phi.Incoming {
			if e.Value == ir.Value(defining) {
				return phi
			}
		}
	}
	return nil
}
