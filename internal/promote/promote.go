// Package promote implements alloca-to-register promotion ("mem2reg"):
// rewriting stack-allocated scalars with no address-taking uses other
// than load/store into ordinary SSA values, inserting phi nodes at
// points where control flow merges conflicting definitions.
//
// Grounded on original_source/lib/Opt/AllocaPromotion.cc (isPromotable,
// VariableInfo, computeLiveBlocks, insertPhis, rename, clean) and
// golang.org/x/tools/go/ssa's lift.go, which implements the same
// algorithm as a standalone pass over already-built IR rather than
// inline during lowering — the shape this package follows, since the
// frontend that would otherwise build SSA form inline is out of scope.
package promote

import (
	"scatha/internal/cfg"
	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// Run promotes every promotable alloca in fn to SSA registers and
// reports whether it changed anything.
func Run(c *ctx.Context, fn *ir.Function) bool {
	allocas := findAllocas(fn)
	if len(allocas) == 0 {
		return false
	}

	changed := false
	dom := cfg.Dominance(fn)
	frontier := cfg.DominanceFrontier(fn)

	for _, alloca := range allocas {
		if !isPromotable(alloca) {
			continue
		}
		promoteOne(c, fn, alloca, dom, frontier)
		changed = true
	}
	if changed {
		cfg.Invalidate(fn)
	}
	return changed
}

func findAllocas(fn *ir.Function) []*ir.Instruction {
	var out []*ir.Instruction
	for _, bb := range fn.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpAlloca {
				out = append(out, inst)
			}
		}
	}
	return out
}

// isPromotable reports whether every user of alloca is a Load of
// exactly alloca's allocated type, or a Store in which alloca is the
// pointer operand (never the stored value — storing the address itself
// would let it escape). Grounded on AllocaPromotion.cc's
// opt::isPromotable.
func isPromotable(alloca *ir.Instruction) bool {
	for _, use := range alloca.Uses() {
		inst, ok := use.User.(*ir.Instruction)
		if !ok {
			return false
		}
		switch inst.Op {
		case ir.OpLoad:
			if inst.Type() != alloca.AllocaType {
				return false
			}
		case ir.OpStore:
			if use.Index != 0 {
				return false // alloca is the stored value, not the address
			}
		default:
			return false
		}
	}
	return true
}
