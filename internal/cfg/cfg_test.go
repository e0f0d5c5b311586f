package cfg

import (
	"math/big"
	"testing"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

func buildDiamond(t *testing.T) (*ctx.Context, *ir.Function, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock) {
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

	cond := ir.NewCompare(c, ir.Signed, ir.CompareEq, f.Params[0], ir.NewConstantValue(c.IntConstant(big.NewInt(0), i32)))
	entry.PushBack(cond)
	entry.SetTerminator(ir.NewBranch(c, cond, left, right))
	left.SetTerminator(ir.NewGoto(c, merge))
	right.SetTerminator(ir.NewGoto(c, merge))
	merge.SetTerminator(ir.NewReturn(c, f.Params[0]))

	return c, f, entry, left, right, merge
}

// S1: in a diamond, entry dominates every block and merge is dominated
// only by entry (neither left nor right dominates merge).
func TestDominanceDiamond(t *testing.T) {
	_, f, entry, left, right, merge := buildDiamond(t)
	dom := Dominance(f)

	for _, b := range []*ir.BasicBlock{entry, left, right, merge} {
		if !dom.Dominates(entry, b) {
			t.Errorf("entry should dominate %s", b.Name())
		}
	}
	if dom.Dominates(left, merge) || dom.Dominates(right, merge) {
		t.Errorf("neither left nor right should dominate merge")
	}
	if dom.IDom(merge) != entry {
		t.Errorf("merge's immediate dominator should be entry, got %v", dom.IDom(merge))
	}
}

// S2 (phi placement itself is exercised in internal/promote; here we
// check the frontier merge needs, which phi placement is driven by):
// left and right's dominance frontier is exactly {merge}.
func TestDominanceFrontierDiamond(t *testing.T) {
	_, f, _, left, right, merge := buildDiamond(t)
	df := DominanceFrontier(f)

	for _, b := range []*ir.BasicBlock{left, right} {
		if len(df[b]) != 1 || df[b][0] != merge {
			t.Errorf("%s's dominance frontier should be exactly {merge}, got %v", b.Name(), df[b])
		}
	}
}

func buildLoop(t *testing.T) (*ctx.Context, *ir.Function, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock, *ir.BasicBlock) {
	t.Helper()
	c := ctx.New()
	i32 := c.IntegralType(32)
	f := ir.NewFunction(c, "loopy", c.FunctionType(i32, []ctx.Type{i32}))

	entry := ir.NewBasicBlock(c, "entry")
	header := ir.NewBasicBlock(c, "header")
	body := ir.NewBasicBlock(c, "body")
	exit := ir.NewBasicBlock(c, "exit")
	f.AppendBlock(entry)
	f.AppendBlock(header)
	f.AppendBlock(body)
	f.AppendBlock(exit)

	entry.SetTerminator(ir.NewGoto(c, header))

	phi := ir.NewPhi(i32)
	phi.SetName("i")
	header.PushFront(phi)
	cond := ir.NewCompare(c, ir.Signed, ir.CompareLt, phi, ir.NewConstantValue(c.IntConstant(big.NewInt(10), i32)))
	header.PushBack(cond)
	header.SetTerminator(ir.NewBranch(c, cond, body, exit))

	step := ir.NewBinary(ir.BinaryAdd, phi, ir.NewConstantValue(c.IntConstant(big.NewInt(1), i32)), i32)
	step.SetName("i.next")
	body.PushBack(step)
	body.SetTerminator(ir.NewGoto(c, header))

	phi.AddIncoming(entry, ir.NewConstantValue(c.IntConstant(big.NewInt(0), i32)))
	phi.AddIncoming(body, step)

	exit.SetTerminator(ir.NewReturn(c, phi))

	return c, f, entry, header, body, exit
}

// S3: header/body form a natural loop with header as the loop header and
// exit outside the loop body.
func TestNaturalLoopDetection(t *testing.T) {
	_, f, _, header, body, exit := buildLoop(t)
	dom := Dominance(f)
	lnf := computeLoopNestingForest(f, dom)

	node := lnf.Node(header)
	if node == nil || !node.IsProperLoop() {
		t.Fatalf("header should be detected as a proper loop")
	}

	info := ComputeLoopInfo(f, node)
	if !blockSliceContains(info.InnerBlocks, header) || !blockSliceContains(info.InnerBlocks, body) {
		t.Errorf("loop body should contain header and body, got %v", info.InnerBlocks)
	}
	if blockSliceContains(info.InnerBlocks, exit) {
		t.Errorf("loop body should not contain exit")
	}
	if !info.IsExit(exit) {
		t.Errorf("exit should be recorded as a loop exit block")
	}
	if !info.IsExiting(header) {
		t.Errorf("header should be recorded as an exiting block")
	}
}

func TestInductionVariableDetection(t *testing.T) {
	_, f, _, header, _, _ := buildLoop(t)
	dom := Dominance(f)
	lnf := computeLoopNestingForest(f, dom)
	info := ComputeLoopInfo(f, lnf.Node(header))

	ivs := InductionVariables(info)
	if len(ivs) != 1 {
		t.Fatalf("expected exactly 1 induction variable, got %d", len(ivs))
	}
	if ivs[0].Phi.Name() != "i" {
		t.Errorf("expected induction variable phi named i, got %s", ivs[0].Phi.Name())
	}
}

// S4: after MakeLCSSA, the value computed by the loop (here, body's
// step value, used outside via the exit block's return) satisfies IsLCSSA.
func TestMakeLCSSA(t *testing.T) {
	c, f, _, header, body, exit := buildLoop(t)
	dom := Dominance(f)
	lnf := computeLoopNestingForest(f, dom)
	info := ComputeLoopInfo(f, lnf.Node(header))

	// step is defined in body and used only within the loop (by the
	// header phi), so it's already fine; construct a case where a
	// loop-internal value leaks outside by returning step directly
	// instead of the phi, to exercise MakeLCSSA's insertion path.
	ret := exit.Terminator()
	ret.SetOperand(0, body.Instructions[0])

	if IsLCSSA(info) {
		t.Fatalf("expected loop to violate LCSSA before MakeLCSSA")
	}
	MakeLCSSA(c, f, info)
	if !IsLCSSA(info) {
		t.Errorf("expected loop to satisfy LCSSA after MakeLCSSA")
	}
}

func TestPostDominance(t *testing.T) {
	_, f, entry, _, _, merge := buildDiamond(t)
	pdom := PostDominance(f)

	if !pdom.Dominates(merge, entry) {
		t.Errorf("merge should post-dominate entry in a diamond with a single exit")
	}
}
