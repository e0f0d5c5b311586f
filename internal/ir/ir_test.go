package ir

import (
	"math/big"
	"testing"

	ctx "scatha/internal/context"
)

func newBig(v int64) *big.Int { return big.NewInt(v) }

func buildDiamond(t *testing.T) (*ctx.Context, *Function, *BasicBlock, *BasicBlock, *BasicBlock, *BasicBlock) {
	t.Helper()
	c := ctx.New()
	i32 := c.IntegralType(32)
	ft := c.FunctionType(i32, []ctx.Type{i32})
	f := NewFunction(c, "diamond", ft)

	entry := NewBasicBlock(c, "entry")
	left := NewBasicBlock(c, "left")
	right := NewBasicBlock(c, "right")
	merge := NewBasicBlock(c, "merge")
	f.AppendBlock(entry)
	f.AppendBlock(left)
	f.AppendBlock(right)
	f.AppendBlock(merge)

	cond := NewCompare(c, Signed, CompareEq, f.Params[0], NewConstantValue(c.IntConstant(newBig(0), i32)))
	cond.SetName("cond")
	entry.PushBack(cond)
	entry.SetTerminator(NewBranch(c, cond, left, right))

	left.SetTerminator(NewGoto(c, merge))
	right.SetTerminator(NewGoto(c, merge))

	merge.SetTerminator(NewReturn(c, f.Params[0]))

	return c, f, entry, left, right, merge
}

func TestBasicBlockWiring(t *testing.T) {
	_, _, entry, left, right, merge := buildDiamond(t)

	if len(entry.Successors) != 2 {
		t.Fatalf("entry should have 2 successors, got %d", len(entry.Successors))
	}
	if len(merge.Predecessors) != 2 {
		t.Fatalf("merge should have 2 predecessors, got %d", len(merge.Predecessors))
	}
	if left.Successors[0] != merge || right.Successors[0] != merge {
		t.Fatalf("left/right should both target merge")
	}
}

func TestUseListBidirectional(t *testing.T) {
	_, _, entry, _, _, _ := buildDiamond(t)
	cond := entry.Instructions[0]
	term := entry.Terminator()

	found := false
	for _, u := range cond.Uses() {
		if u.User == User(term) {
			found = true
		}
	}
	if !found {
		t.Fatalf("cond's use-list should contain the branch terminator")
	}
}

func TestReplaceAllUsesWith(t *testing.T) {
	c, _, entry, _, _, _ := buildDiamond(t)
	cond := entry.Instructions[0]
	term := entry.Terminator()

	repl := NewConstantValue(c.IntConstant(newBig(1), c.IntegralType(1)))
	cond.ReplaceAllUsesWith(repl)

	if len(cond.Uses()) != 0 {
		t.Fatalf("cond should have no uses after ReplaceAllUsesWith")
	}
	if term.Operands()[0] != Value(repl) {
		t.Fatalf("terminator's condition operand should now be repl")
	}
}

func TestEraseFromParentRequiresNoUses(t *testing.T) {
	_, _, entry, _, _, _ := buildDiamond(t)
	cond := entry.Instructions[0]

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic erasing an instruction with remaining uses")
		}
	}()
	cond.EraseFromParent()
}

func TestPhiIncomingRoundTrip(t *testing.T) {
	c, f, _, left, right, merge := buildDiamond(t)
	i32 := c.IntegralType(32)

	phi := NewPhi(i32)
	phi.SetName("result")
	merge.PushFront(phi)
	phi.AddIncoming(left, f.Params[0])
	phi.AddIncoming(right, NewConstantValue(c.IntConstant(newBig(7), i32)))

	if phi.IncomingFrom(left) != Value(f.Params[0]) {
		t.Fatalf("phi incoming from left should be the parameter")
	}
	if len(phi.Operands()) != 2 {
		t.Fatalf("phi should have 2 operands, got %d", len(phi.Operands()))
	}
}

func TestValidateAcceptsWellFormedFunction(t *testing.T) {
	c, f, _, _, _, _ := buildDiamond(t)
	m := NewModule("test", c)
	m.AddFunction(f)

	if errs := Validate(m); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}
}

func TestValidateRejectsMissingTerminator(t *testing.T) {
	c := ctx.New()
	i32 := c.IntegralType(32)
	f := NewFunction(c, "broken", c.FunctionType(c.Void(), nil))
	bb := NewBasicBlock(c, "entry")
	f.AppendBlock(bb)
	bb.PushBack(NewAlloca(c, i32, nil))

	m := NewModule("test", c)
	m.AddFunction(f)

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatalf("expected a validation error for a block without a terminator")
	}
}

func TestBinaryOpIsShift(t *testing.T) {
	shifts := []BinaryOp{BinaryLShL, BinaryLShR, BinaryAShL, BinaryAShR}
	for _, op := range shifts {
		if !op.IsShift() {
			t.Errorf("expected %v to be a shift", op)
		}
	}
	nonShifts := []BinaryOp{BinaryAdd, BinarySDiv, BinaryUDiv, BinaryFAdd, BinaryAnd}
	for _, op := range nonShifts {
		if op.IsShift() {
			t.Errorf("expected %v not to be a shift", op)
		}
	}
}

func TestBinaryOpIsCommutative(t *testing.T) {
	commutative := []BinaryOp{BinaryAdd, BinaryMul, BinaryFAdd, BinaryFMul, BinaryAnd, BinaryOr, BinaryXor}
	for _, op := range commutative {
		if !op.IsCommutative() {
			t.Errorf("expected %v to be commutative", op)
		}
	}
	nonCommutative := []BinaryOp{BinarySub, BinarySDiv, BinaryUDiv, BinaryFSub, BinaryLShL, BinaryAShR}
	for _, op := range nonCommutative {
		if op.IsCommutative() {
			t.Errorf("expected %v not to be commutative", op)
		}
	}
}

func TestCompareOpInverseRoundTrips(t *testing.T) {
	ops := []CompareOp{CompareEq, CompareNe, CompareLt, CompareLe, CompareGt, CompareGe}
	for _, op := range ops {
		if inv := op.Inverse().Inverse(); inv != op {
			t.Errorf("Inverse(Inverse(%v)) = %v, want %v", op, inv, op)
		}
		if op.Inverse() == op {
			t.Errorf("Inverse(%v) should differ from %v", op, op)
		}
	}
	pairs := map[CompareOp]CompareOp{
		CompareEq: CompareNe,
		CompareLt: CompareGe,
		CompareLe: CompareGt,
	}
	for op, want := range pairs {
		if got := op.Inverse(); got != want {
			t.Errorf("Inverse(%v) = %v, want %v", op, got, want)
		}
	}
}

func TestValidateRejectsNonDominatingOperand(t *testing.T) {
	c := ctx.New()
	i32 := c.IntegralType(32)
	f := NewFunction(c, "bad", c.FunctionType(i32, []ctx.Type{i32}))

	entry := NewBasicBlock(c, "entry")
	left := NewBasicBlock(c, "left")
	right := NewBasicBlock(c, "right")
	f.AppendBlock(entry)
	f.AppendBlock(left)
	f.AppendBlock(right)

	cond := NewCompare(c, Signed, CompareEq, f.Params[0], NewConstantValue(c.IntConstant(newBig(0), i32)))
	entry.PushBack(cond)
	entry.SetTerminator(NewBranch(c, cond, left, right))

	val := NewBinary(BinaryAdd, f.Params[0], NewConstantValue(c.IntConstant(newBig(1), i32)), i32)
	val.SetName("val")
	left.PushBack(val)
	left.SetTerminator(NewReturn(c, val))

	// right is a sibling of left, not dominated by it: using val here is
	// a dominance violation even though both blocks are reachable.
	right.SetTerminator(NewReturn(c, val))

	m := NewModule("test", c)
	m.AddFunction(f)

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatalf("expected a validation error for a non-dominating operand")
	}
}

func TestValidateRejectsCompareTypeMismatch(t *testing.T) {
	c := ctx.New()
	i32 := c.IntegralType(32)
	i64 := c.IntegralType(64)
	f := NewFunction(c, "bad", c.FunctionType(i32, nil))

	entry := NewBasicBlock(c, "entry")
	f.AppendBlock(entry)

	cond := NewCompare(c, Signed, CompareEq,
		NewConstantValue(c.IntConstant(newBig(0), i32)),
		NewConstantValue(c.IntConstant(newBig(0), i64)))
	entry.PushBack(cond)
	entry.SetTerminator(NewReturn(c, NewConstantValue(c.IntConstant(newBig(0), i32))))

	m := NewModule("test", c)
	m.AddFunction(f)

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatalf("expected a validation error for mismatched compare operand types")
	}
}

func TestValidateRejectsPhiArityMismatch(t *testing.T) {
	c, f, _, left, _, merge := buildDiamond(t)
	i32 := c.IntegralType(32)

	phi := NewPhi(i32)
	merge.PushFront(phi)
	phi.AddIncoming(left, f.Params[0]) // only one of two predecessors

	m := NewModule("test", c)
	m.AddFunction(f)

	errs := Validate(m)
	if len(errs) == 0 {
		t.Fatalf("expected a validation error for phi/predecessor arity mismatch")
	}
}
