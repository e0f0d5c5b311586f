package promote

import (
	"math/big"
	"testing"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// buildDiamondWithAlloca builds:
//
//	entry: %a = alloca i32; br cond, left, right
//	left:  store 1, %a; goto merge
//	right: store 2, %a; goto merge
//	merge: %v = load i32, %a; ret %v
//
// so that promoting %a requires exactly one phi in merge (S2).
func buildDiamondWithAlloca(t *testing.T) (*ctx.Context, *ir.Function, *ir.BasicBlock) {
	t.Helper()
	c := ctx.New()
	i32 := c.IntegralType(32)
	f := ir.NewFunction(c, "diamond", c.FunctionType(i32, []ctx.Type{i32}))

	entry := ir.NewBasicBlock(c, "entry")
	left := ir.NewBasicBlock(c, "left")
	right := ir.NewBasicBlock(c, "right")
	merge := ir.NewBasicBlock(c, "merge")
	f.AppendBlock(entry)
	f.AppendBlock(left)
	f.AppendBlock(right)
	f.AppendBlock(merge)

	alloca := ir.NewAlloca(c, i32, nil)
	alloca.SetName("a")
	entry.PushBack(alloca)
	cond := ir.NewCompare(c, ir.Signed, ir.CompareEq, f.Params[0], ir.NewConstantValue(c.IntConstant(big.NewInt(0), i32)))
	entry.PushBack(cond)
	entry.SetTerminator(ir.NewBranch(c, cond, left, right))

	left.PushBack(ir.NewStore(c, alloca, ir.NewConstantValue(c.IntConstant(big.NewInt(1), i32))))
	left.SetTerminator(ir.NewGoto(c, merge))

	right.PushBack(ir.NewStore(c, alloca, ir.NewConstantValue(c.IntConstant(big.NewInt(2), i32))))
	right.SetTerminator(ir.NewGoto(c, merge))

	load := ir.NewLoad(alloca, i32)
	load.SetName("v")
	merge.PushBack(load)
	merge.SetTerminator(ir.NewReturn(c, load))

	return c, f, merge
}

func TestPromotePlacesPhiOnDiamond(t *testing.T) {
	c, f, merge := buildDiamondWithAlloca(t)

	changed := Run(c, f)
	if !changed {
		t.Fatalf("Run should report a change")
	}

	phis := merge.Phis()
	if len(phis) != 1 {
		t.Fatalf("expected exactly 1 phi in merge, got %d", len(phis))
	}
	if len(phis[0].Incoming) != 2 {
		t.Fatalf("expected phi to have 2 incoming edges, got %d", len(phis[0].Incoming))
	}

	ret := merge.Terminator()
	if ret.Operands()[0] != ir.Value(phis[0]) {
		t.Errorf("return should now use the phi's value directly")
	}
}

func TestPromoteRemovesAlloca(t *testing.T) {
	c, f, _ := buildDiamondWithAlloca(t)
	Run(c, f)

	for _, bb := range f.Blocks {
		for _, inst := range bb.Instructions {
			if inst.Op == ir.OpAlloca {
				t.Fatalf("alloca should have been removed after promotion")
			}
			if inst.Op == ir.OpLoad || inst.Op == ir.OpStore {
				t.Fatalf("load/store of the promoted variable should have been removed")
			}
		}
	}
}

func TestPromoteIsIdempotent(t *testing.T) {
	c, f, _ := buildDiamondWithAlloca(t)
	Run(c, f)

	if changed := Run(c, f); changed {
		t.Errorf("a second Run over an already-promoted function should report no change")
	}
}

func TestNonPromotableAllocaIsLeftAlone(t *testing.T) {
	c := ctx.New()
	i32 := c.IntegralType(32)
	f := ir.NewFunction(c, "escaping", c.FunctionType(c.Void(), []ctx.Type{c.Ptr()}))
	entry := ir.NewBasicBlock(c, "entry")
	f.AppendBlock(entry)

	alloca := ir.NewAlloca(c, i32, nil)
	entry.PushBack(alloca)
	// Store the alloca's own address through a pointer parameter: this
	// alloca escapes and must not be promoted.
	entry.PushBack(ir.NewStore(c, f.Params[0], alloca))
	entry.SetTerminator(ir.NewReturn(c, nil))

	if changed := Run(c, f); changed {
		t.Errorf("Run should not promote an alloca whose address escapes")
	}
	found := false
	for _, inst := range entry.Instructions {
		if inst == alloca {
			found = true
		}
	}
	if !found {
		t.Errorf("escaping alloca should still be present")
	}
}
