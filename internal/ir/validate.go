package ir

import (
	"fmt"

	ctx "scatha/internal/context"
)

// ValidationError describes one structural defect found by Validate. It
// is the "malformed input" diagnostic kind: Validate is the sole
// surface that reports these as values instead of trapping, so that a
// producer of IR (a parser, a builder) can report all of them to a user
// instead of crashing on the first one.
type ValidationError struct {
	Message  string
	Function string
	Block    string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Block != "":
		return fmt.Sprintf("%s: block %s: %s", e.Function, e.Block, e.Message)
	case e.Function != "":
		return fmt.Sprintf("%s: %s", e.Function, e.Message)
	default:
		return e.Message
	}
}

// Validate checks every structural invariant the rest of this package
// assumes holds: every non-terminator instruction is followed by at
// most one terminator at the end of its block, every block ends in
// exactly one terminator, phi operand counts match predecessor counts,
// every non-constant/non-parameter operand dominates its use, every
// instruction's operand types are well-formed for its opcode, and the
// use/def graph is bidirectionally consistent. It returns every
// violation found, not just the first.
//
// Once Validate passes, no other function in this package (or in
// internal/cfg, internal/promote, internal/passes) needs to re-check
// these invariants — a violation found later indicates a bug in a
// transformation, not in the input, and is reported by panicking
// instead.
func Validate(m *Module) []error {
	var errs []error
	for _, f := range m.Functions {
		errs = append(errs, validateFunction(f)...)
		errs = append(errs, validateDominance(f)...)
		errs = append(errs, validateOperandTypes(f)...)
	}
	errs = append(errs, validateUseListConsistency(m)...)
	return errs
}

func validateFunction(f *Function) []error {
	var errs []error
	if f.IsDeclaration() {
		return errs
	}
	fname := f.Name()
	for _, bb := range f.Blocks {
		if bb.Parent() != f {
			errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
				Message: "block's parent does not point back to this function"})
		}
		n := len(bb.Instructions)
		if n == 0 {
			errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
				Message: "block has no instructions (missing terminator)"})
			continue
		}
		for i, inst := range bb.Instructions {
			isLast := i == n-1
			if inst.IsTerminator() != isLast {
				if inst.IsTerminator() {
					errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
						Message: "terminator is not the last instruction in the block"})
				} else {
					errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
						Message: "block does not end in a terminator"})
				}
			}
			if inst.Parent() != bb {
				errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
					Message: "instruction's parent does not point back to this block"})
			}
		}
		errs = append(errs, validatePhis(fname, bb)...)
		if term := bb.Terminator(); term != nil {
			for _, s := range term.Successors() {
				if !blockIn(s.Predecessors, bb) {
					errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
						Message: fmt.Sprintf("terminator targets %s but that block does not list this block as a predecessor", s.Name())})
				}
			}
		}
	}
	return errs
}

func blockIn(blocks []*BasicBlock, b *BasicBlock) bool {
	for _, x := range blocks {
		if x == b {
			return true
		}
	}
	return false
}

func validatePhis(fname string, bb *BasicBlock) []error {
	var errs []error
	for _, phi := range bb.Phis() {
		if len(phi.Incoming) != len(bb.Predecessors) {
			errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
				Message: fmt.Sprintf("phi has %d incoming edges but block has %d predecessors", len(phi.Incoming), len(bb.Predecessors))})
			continue
		}
		for _, pred := range bb.Predecessors {
			if phi.IncomingFrom(pred) == nil {
				errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
					Message: fmt.Sprintf("phi has no incoming value for predecessor %s", pred.Name())})
			}
		}
	}
	return errs
}

// validateUseListConsistency checks invariant v ∈ u.operands ⇔ u ∈
// v.users() over every User reachable from the module.
func validateUseListConsistency(m *Module) []error {
	var errs []error
	check := func(owner string, u User) {
		for _, op := range u.Operands() {
			if op == nil {
				continue
			}
			found := false
			for _, use := range op.Uses() {
				if use.User == u {
					found = true
					break
				}
			}
			if !found {
				errs = append(errs, &ValidationError{Function: owner,
					Message: "operand is missing a matching back-reference in its use-list"})
			}
		}
	}
	checkUses := func(owner string, v Value) {
		for _, use := range v.Uses() {
			ops := use.User.Operands()
			if use.Index >= len(ops) || ops[use.Index] != v {
				errs = append(errs, &ValidationError{Function: owner,
					Message: "use-list entry does not match an operand of its user"})
			}
		}
	}
	for _, f := range m.Functions {
		for _, p := range f.Params {
			checkUses(f.Name(), p)
		}
		for _, bb := range f.Blocks {
			checkUses(f.Name(), bb)
			for _, inst := range bb.Instructions {
				check(f.Name(), inst)
				checkUses(f.Name(), inst)
			}
		}
	}
	return errs
}

// reachableBlocks returns the set of f's blocks reachable from its entry
// block by following Successors. Dominance is only meaningful over this
// set: a block control never reaches has no well-defined dominator, and
// is left unchecked by validateDominance rather than reported as its own
// defect (an unreachable block is a dead-code smell, not a structural
// violation anything in this package currently names).
func reachableBlocks(f *Function) map[*BasicBlock]bool {
	reach := make(map[*BasicBlock]bool)
	entry := f.Entry()
	if entry == nil {
		return reach
	}
	stack := []*BasicBlock{entry}
	reach[entry] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Successors {
			if !reach[s] {
				reach[s] = true
				stack = append(stack, s)
			}
		}
	}
	return reach
}

// localDominance computes, for every block in reach, the set of blocks
// (including itself) that dominate it, via the standard iterative
// dataflow fixpoint (dom[entry] = {entry}; dom[b] = {b} ∪ ⋂ dom[p] over
// b's reachable predecessors p).
//
// This duplicates internal/cfg's Dominance rather than calling it:
// internal/cfg imports internal/ir, so the reverse import would cycle.
// Both copies use the same set-based fixpoint.
func localDominance(f *Function, reach map[*BasicBlock]bool) map[*BasicBlock]map[*BasicBlock]bool {
	entry := f.Entry()
	all := make([]*BasicBlock, 0, len(reach))
	for b := range reach {
		all = append(all, b)
	}

	dom := make(map[*BasicBlock]map[*BasicBlock]bool, len(all))
	for _, b := range all {
		full := make(map[*BasicBlock]bool, len(all))
		for _, x := range all {
			full[x] = true
		}
		dom[b] = full
	}
	dom[entry] = map[*BasicBlock]bool{entry: true}

	for changed := true; changed; {
		changed = false
		for _, b := range all {
			if b == entry {
				continue
			}
			var inter map[*BasicBlock]bool
			for _, p := range b.Predecessors {
				if !reach[p] {
					continue
				}
				if inter == nil {
					inter = copyBlockSet(dom[p])
					continue
				}
				for x := range inter {
					if !dom[p][x] {
						delete(inter, x)
					}
				}
			}
			if inter == nil {
				inter = map[*BasicBlock]bool{}
			}
			inter[b] = true
			if !blockSetEqual(inter, dom[b]) {
				dom[b] = inter
				changed = true
			}
		}
	}
	return dom
}

func copyBlockSet(s map[*BasicBlock]bool) map[*BasicBlock]bool {
	out := make(map[*BasicBlock]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func blockSetEqual(a, b map[*BasicBlock]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// validateDominance checks invariant 1: every operand that is itself an
// instruction result (as opposed to a constant, parameter, or block
// label) must dominate the point where it is used. A phi's incoming
// value is checked against the end of the corresponding predecessor
// block, not against the phi itself, since that is where the value is
// actually read in control flow.
func validateDominance(f *Function) []error {
	if f.IsDeclaration() {
		return nil
	}
	fname := f.Name()
	reach := reachableBlocks(f)
	dom := localDominance(f, reach)

	pos := make(map[*Instruction]int)
	blockOf := make(map[*Instruction]*BasicBlock)
	for b := range reach {
		for idx, inst := range b.Instructions {
			pos[inst] = idx
			blockOf[inst] = b
		}
	}

	dominates := func(defBlock *BasicBlock, defIdx int, useBlock *BasicBlock, useIdx int) bool {
		if defBlock == useBlock {
			return defIdx < useIdx
		}
		return dom[useBlock][defBlock]
	}

	var errs []error
	checkOperand := func(bb *BasicBlock, user *Instruction, op Value, atBlock *BasicBlock, atIdx int) {
		def, ok := op.(*Instruction)
		if !ok {
			return // constants, parameters, and block labels are exempt
		}
		defBlock, ok := blockOf[def]
		if !ok {
			return // def lives in an unreachable block; not our concern here
		}
		if !dominates(defBlock, pos[def], atBlock, atIdx) {
			errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
				Message: fmt.Sprintf("operand %%%s does not dominate its use in %%%s", def.Name(), user.Name())})
		}
	}

	for b := range reach {
		for idx, inst := range b.Instructions {
			if inst.Op == OpPhi {
				for _, e := range inst.Incoming {
					if e.Block == nil || e.Value == nil {
						continue
					}
					checkOperand(b, inst, e.Value, e.Block, len(e.Block.Instructions))
				}
				continue
			}
			for _, op := range inst.Operands() {
				if op == nil {
					continue
				}
				checkOperand(b, inst, op, b, idx)
			}
		}
	}
	return errs
}

func isIntegralType(t ctx.Type) bool {
	_, ok := t.(*ctx.IntegralType)
	return ok
}

func isPointerType(t ctx.Type) bool {
	_, ok := t.(*ctx.PointerType)
	return ok
}

func isBoolType(t ctx.Type) bool {
	it, ok := t.(*ctx.IntegralType)
	return ok && it.Bits == 1
}

// validateOperandTypes checks invariant 6: each opcode's operand and
// result types are well-formed. This only checks the shapes Validate's
// own contract promises — arithmetic operands share the instruction's
// type, Compare yields bool over matching operand types, Load/Store
// operate through a pointer, GEP's base is a pointer and its dynamic
// index (if any) is integral, Alloca's count (if any) is integral, and
// Branch's condition is bool. It does not attempt full type inference
// (Select/Call/ExtractValue/InsertValue's results are fixed at
// construction time by their own constructors, not re-derived here).
func validateOperandTypes(f *Function) []error {
	var errs []error
	fname := f.Name()
	fail := func(bb *BasicBlock, format string, args ...any) {
		errs = append(errs, &ValidationError{Function: fname, Block: bb.Name(),
			Message: fmt.Sprintf(format, args...)})
	}
	for _, bb := range f.Blocks {
		for _, inst := range bb.Instructions {
			ops := inst.Operands()
			switch inst.Op {
			case OpUnary:
				if ops[0].Type() != inst.Type() {
					fail(bb, "unary operand type %s does not match result type %s", ops[0].Type(), inst.Type())
				}
			case OpBinary:
				if inst.BinaryOp.IsShift() {
					if ops[0].Type() != inst.Type() {
						fail(bb, "shifted operand type %s does not match result type %s", ops[0].Type(), inst.Type())
					}
					if !isIntegralType(ops[1].Type()) {
						fail(bb, "shift amount operand must be integral, got %s", ops[1].Type())
					}
				} else {
					if ops[0].Type() != inst.Type() || ops[1].Type() != inst.Type() {
						fail(bb, "binary operands must share the instruction's result type %s", inst.Type())
					}
				}
			case OpCompare:
				if ops[0].Type() != ops[1].Type() {
					fail(bb, "compare operands have mismatched types %s and %s", ops[0].Type(), ops[1].Type())
				}
				if !isBoolType(inst.Type()) {
					fail(bb, "compare result type must be i1, got %s", inst.Type())
				}
			case OpLoad:
				if !isPointerType(ops[0].Type()) {
					fail(bb, "load's pointer operand must be ptr-typed, got %s", ops[0].Type())
				}
			case OpStore:
				if !isPointerType(ops[operandPointer].Type()) {
					fail(bb, "store's pointer operand must be ptr-typed, got %s", ops[operandPointer].Type())
				}
			case OpGetElementPointer:
				if !isPointerType(ops[0].Type()) {
					fail(bb, "gep's base operand must be ptr-typed, got %s", ops[0].Type())
				}
				if dyn := inst.DynamicIndex(); dyn != nil && !isIntegralType(dyn.Type()) {
					fail(bb, "gep's dynamic index must be integral, got %s", dyn.Type())
				}
			case OpAlloca:
				if count := inst.Count(); count != nil && !isIntegralType(count.Type()) {
					fail(bb, "alloca's count operand must be integral, got %s", count.Type())
				}
			case OpBranch:
				if !isBoolType(ops[0].Type()) {
					fail(bb, "branch condition must be i1, got %s", ops[0].Type())
				}
			case OpPhi:
				for _, e := range inst.Incoming {
					if e.Value != nil && e.Value.Type() != inst.Type() {
						fail(bb, "phi incoming value from %s has type %s, expected %s", e.Block.Name(), e.Value.Type(), inst.Type())
					}
				}
			}
		}
	}
	return errs
}
