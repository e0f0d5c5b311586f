package ir

import (
	"fmt"

	ctx "scatha/internal/context"
)

// Opcode tags the operation an Instruction performs. Scatha represents
// every instruction kind as a single Instruction struct rather than one
// Go type per opcode: the operand list and use-list machinery are
// identical across opcodes, and a tagged struct keeps pass code from
// having to type-switch over a large interface set just to read operands.
type Opcode int

const (
	OpAlloca Opcode = iota
	OpLoad
	OpStore
	OpUnary
	OpBinary
	OpCompare
	OpConversion
	OpGetElementPointer
	OpExtractValue
	OpInsertValue
	OpSelect
	OpCall
	OpPhi
	OpGoto
	OpBranch
	OpReturn
)

func (op Opcode) String() string {
	switch op {
	case OpAlloca:
		return "alloca"
	case OpLoad:
		return "load"
	case OpStore:
		return "store"
	case OpUnary:
		return "unary"
	case OpBinary:
		return "binary"
	case OpCompare:
		return "cmp"
	case OpConversion:
		return "conv"
	case OpGetElementPointer:
		return "gep"
	case OpExtractValue:
		return "extract_value"
	case OpInsertValue:
		return "insert_value"
	case OpSelect:
		return "select"
	case OpCall:
		return "call"
	case OpPhi:
		return "phi"
	case OpGoto:
		return "goto"
	case OpBranch:
		return "branch"
	case OpReturn:
		return "return"
	default:
		return fmt.Sprintf("opcode(%d)", int(op))
	}
}

// UnaryOp names the operation of an OpUnary instruction.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryBitwiseNot
	UnaryLogicalNot
)

// BinaryOp names the operation of an OpBinary instruction. Signed and
// unsigned division/remainder are distinct opcodes (not a Mode flag,
// unlike Compare) because they also differ in which hardware
// instruction they lower to, not only in how they read their operands.
type BinaryOp int

const (
	BinaryAdd BinaryOp = iota
	BinarySub
	BinaryMul
	BinarySDiv
	BinaryUDiv
	BinarySRem
	BinaryURem
	BinaryFAdd
	BinaryFSub
	BinaryFMul
	BinaryFDiv
	BinaryFRem
	BinaryAnd
	BinaryOr
	BinaryXor
	BinaryLShL
	BinaryLShR
	BinaryAShL
	BinaryAShR
)

// IsShift reports whether op is one of the four shift operators. Shift
// amounts are not required to match the left operand's width the way
// every other binary op's operands must, so passes that reason about
// operand types generically need to special-case shifts.
func (op BinaryOp) IsShift() bool {
	switch op {
	case BinaryLShL, BinaryLShR, BinaryAShL, BinaryAShR:
		return true
	default:
		return false
	}
}

// IsCommutative reports whether swapping op's operands leaves its
// result unchanged. Canonicalization passes use this to put a constant
// operand on a fixed side without changing semantics.
func (op BinaryOp) IsCommutative() bool {
	switch op {
	case BinaryAdd, BinaryMul, BinaryFAdd, BinaryFMul, BinaryAnd, BinaryOr, BinaryXor:
		return true
	default:
		return false
	}
}

// CompareMode distinguishes how a Compare instruction's operand bits
// are interpreted: two's-complement signed, unsigned, or IEEE float.
// Lt/Le/Gt/Ge give different answers for signed vs. unsigned operands
// on the same bit pattern, so Mode is not derivable from the operand
// type alone (an i32 says nothing about whether it holds a signed or
// unsigned quantity).
type CompareMode int

const (
	Signed CompareMode = iota
	Unsigned
	Float
)

func (m CompareMode) String() string {
	switch m {
	case Signed:
		return "signed"
	case Unsigned:
		return "unsigned"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("comparemode(%d)", int(m))
	}
}

// CompareOp names the relation tested by an OpCompare instruction.
type CompareOp int

const (
	CompareEq CompareOp = iota
	CompareNe
	CompareLt
	CompareLe
	CompareGt
	CompareGe
)

// Inverse returns the relation that holds exactly when op does not:
// Inverse(op)(a, b) == !op(a, b) for every a, b. simplifycfg-style
// passes use this to flip a branch's sense instead of negating its
// condition with an extra instruction.
func (op CompareOp) Inverse() CompareOp {
	switch op {
	case CompareEq:
		return CompareNe
	case CompareNe:
		return CompareEq
	case CompareLt:
		return CompareGe
	case CompareGe:
		return CompareLt
	case CompareLe:
		return CompareGt
	case CompareGt:
		return CompareLe
	default:
		return op
	}
}

// ConversionKind names the representation change performed by an
// OpConversion instruction.
type ConversionKind int

const (
	ConvZext ConversionKind = iota
	ConvSext
	ConvTrunc
	ConvFtoI
	ConvItoF
	ConvBitcast
)

// PhiEdge is one incoming (predecessor block, value) pair of a phi
// instruction.
type PhiEdge struct {
	Block *BasicBlock
	Value Value
}

// Instruction is every non-terminator and terminator operation in a
// basic block. Which fields are meaningful is determined by Op; see the
// per-opcode constructors below, which are the only supported way to
// build one.
type Instruction struct {
	userBase

	Op     Opcode
	parent *BasicBlock

	UnaryOp         UnaryOp
	BinaryOp        BinaryOp
	CompareOp       CompareOp
	CompareMode     CompareMode // OpCompare only
	Conversion      ConversionKind
	Indices         []int64 // GEP static indices, ExtractValue/InsertValue path
	HasDynamicIndex bool    // OpGetElementPointer only: operand after Indices is a dynamic index
	AllocaType      ctx.Type
	HasCount        bool      // OpAlloca only: whether operand 0 is a count, not absent
	Incoming        []PhiEdge // OpPhi only
	succBlocks      []*BasicBlock
}

// operand indices shared by several opcodes.
const (
	operandPointer = 0 // Load, Store(ptr)
	operandValue   = 1 // Store
)

func newInst(op Opcode, typ ctx.Type, numOperands int) *Instruction {
	inst := &Instruction{Op: op}
	inst.init(inst, typ, numOperands)
	return inst
}

// NewAlloca allocates stack storage for a value of typ, yielding a
// pointer. count is the number of contiguous typ-sized elements to
// allocate; pass nil for the ordinary single-value case (an implicit
// count of 1), or an integral-typed value to allocate an
// array-sized, runtime-computed stack slot.
func NewAlloca(c *ctx.Context, typ ctx.Type, count Value) *Instruction {
	n := 0
	if count != nil {
		n = 1
	}
	inst := newInst(OpAlloca, c.Ptr(), n)
	inst.AllocaType = typ
	if count != nil {
		inst.HasCount = true
		inst.SetOperand(0, count)
	}
	return inst
}

// Count returns the alloca's element-count operand, or nil if it was
// constructed with an implicit count of 1.
func (i *Instruction) Count() Value {
	if !i.HasCount {
		return nil
	}
	return i.operands[0]
}

// NewLoad reads the value of type typ stored at ptr.
func NewLoad(ptr Value, typ ctx.Type) *Instruction {
	inst := newInst(OpLoad, typ, 1)
	inst.SetOperand(0, ptr)
	return inst
}

// NewStore writes val to the address ptr. Stores have no result
// (operate for effect only) and so carry the Void type.
func NewStore(c *ctx.Context, ptr, val Value) *Instruction {
	inst := newInst(OpStore, c.Void(), 2)
	inst.SetOperand(operandPointer, ptr)
	inst.SetOperand(operandValue, val)
	return inst
}

// NewUnary applies op to x.
func NewUnary(op UnaryOp, x Value, typ ctx.Type) *Instruction {
	inst := newInst(OpUnary, typ, 1)
	inst.UnaryOp = op
	inst.SetOperand(0, x)
	return inst
}

// NewBinary applies op to lhs and rhs.
func NewBinary(op BinaryOp, lhs, rhs Value, typ ctx.Type) *Instruction {
	inst := newInst(OpBinary, typ, 2)
	inst.BinaryOp = op
	inst.SetOperand(0, lhs)
	inst.SetOperand(1, rhs)
	return inst
}

// NewCompare tests op between lhs and rhs under mode, producing an i1.
// mode disambiguates how the operand bits are read: Signed/Unsigned
// give different answers for Lt/Le/Gt/Ge on negative two's-complement
// operands, and Float selects IEEE comparison instead of integer.
func NewCompare(c *ctx.Context, mode CompareMode, op CompareOp, lhs, rhs Value) *Instruction {
	inst := newInst(OpCompare, c.IntegralType(1), 2)
	inst.CompareMode = mode
	inst.CompareOp = op
	inst.SetOperand(0, lhs)
	inst.SetOperand(1, rhs)
	return inst
}

// NewConversion converts x to typ using kind.
func NewConversion(kind ConversionKind, x Value, typ ctx.Type) *Instruction {
	inst := newInst(OpConversion, typ, 1)
	inst.Conversion = kind
	inst.SetOperand(0, x)
	return inst
}

// NewGetElementPointer computes the address of a member/element reached
// from base by the given static index path, yielding a pointer.
// dynamic, if non-nil, is an additional runtime-computed index applied
// after the static path (array indexing by a value unknown until run
// time, e.g. `a[i]`); it must be an integral-typed value.
func NewGetElementPointer(c *ctx.Context, base Value, indices []int64, dynamic Value) *Instruction {
	n := 1
	if dynamic != nil {
		n = 2
	}
	inst := newInst(OpGetElementPointer, c.Ptr(), n)
	inst.Indices = append([]int64(nil), indices...)
	inst.SetOperand(0, base)
	if dynamic != nil {
		inst.HasDynamicIndex = true
		inst.SetOperand(1, dynamic)
	}
	return inst
}

// DynamicIndex returns the GEP's runtime-computed trailing index, or
// nil if it was constructed with only static indices.
func (i *Instruction) DynamicIndex() Value {
	if !i.HasDynamicIndex {
		return nil
	}
	return i.operands[1]
}

// NewExtractValue reads one member out of an aggregate value (not
// through memory).
func NewExtractValue(agg Value, indices []int64, typ ctx.Type) *Instruction {
	inst := newInst(OpExtractValue, typ, 1)
	inst.Indices = append([]int64(nil), indices...)
	inst.SetOperand(0, agg)
	return inst
}

// NewInsertValue returns a copy of agg with one member replaced (not
// through memory).
func NewInsertValue(agg, elem Value, indices []int64) *Instruction {
	inst := newInst(OpInsertValue, agg.Type(), 2)
	inst.Indices = append([]int64(nil), indices...)
	inst.SetOperand(0, agg)
	inst.SetOperand(1, elem)
	return inst
}

// NewSelect chooses ifTrue or ifFalse based on cond.
func NewSelect(cond, ifTrue, ifFalse Value) *Instruction {
	inst := newInst(OpSelect, ifTrue.Type(), 3)
	inst.SetOperand(0, cond)
	inst.SetOperand(1, ifTrue)
	inst.SetOperand(2, ifFalse)
	return inst
}

// NewCall invokes callee with args. callee is operand 0; args follow.
func NewCall(callee Value, args []Value, typ ctx.Type) *Instruction {
	inst := newInst(OpCall, typ, 1+len(args))
	inst.SetOperand(0, callee)
	for i, a := range args {
		inst.SetOperand(1+i, a)
	}
	return inst
}

// Callee returns the called value of a Call instruction.
func (i *Instruction) Callee() Value { return i.operands[0] }

// Args returns the argument values of a Call instruction.
func (i *Instruction) Args() []Value { return i.operands[1:] }

// NewPhi creates an empty phi of type typ; incoming edges are added with
// AddIncoming.
func NewPhi(typ ctx.Type) *Instruction {
	inst := newInst(OpPhi, typ, 0)
	return inst
}

// AddIncoming records that val flows in from pred. Order corresponds to
// pred's position amongst the owning block's Predecessors.
func (i *Instruction) AddIncoming(pred *BasicBlock, val Value) {
	idx := len(i.operands)
	i.operands = append(i.operands, nil)
	i.Incoming = append(i.Incoming, PhiEdge{Block: pred})
	i.SetOperand(idx, val)
	i.Incoming[len(i.Incoming)-1].Value = val
}

// IncomingFrom returns the value associated with pred, or nil if pred is
// not (yet) a recorded incoming edge.
func (i *Instruction) IncomingFrom(pred *BasicBlock) Value {
	for _, e := range i.Incoming {
		if e.Block == pred {
			return e.Value
		}
	}
	return nil
}

// SetIncomingFrom overwrites the value associated with pred.
func (i *Instruction) SetIncomingFrom(pred *BasicBlock, val Value) {
	for idx, e := range i.Incoming {
		if e.Block == pred {
			i.SetOperand(idx, val)
			i.Incoming[idx].Value = val
			return
		}
	}
	panic("ir: SetIncomingFrom: no such predecessor edge")
}

// RemoveIncoming drops the edge from pred entirely, compacting the
// operand list. Used when simplifying the CFG removes a predecessor.
func (i *Instruction) RemoveIncoming(pred *BasicBlock) {
	for idx, e := range i.Incoming {
		if e.Block == pred {
			i.SetOperand(idx, nil)
			i.operands = append(i.operands[:idx], i.operands[idx+1:]...)
			i.Incoming = append(i.Incoming[:idx], i.Incoming[idx+1:]...)
			i.renumberOperandUses()
			return
		}
	}
}

// renumberOperandUses fixes up Use.Index after operands has been
// spliced, since SetOperand records the index at assignment time.
func (i *Instruction) renumberOperandUses() {
	for idx, v := range i.operands {
		if v == nil {
			continue
		}
		for _, u := range v.Uses() {
			if u.User == User(i) && u.Value == v {
				u.Index = idx
			}
		}
	}
}

// NewGoto creates an unconditional terminator to target.
func NewGoto(c *ctx.Context, target *BasicBlock) *Instruction {
	inst := newInst(OpGoto, c.Void(), 1)
	inst.SetOperand(0, target)
	inst.succBlocks = []*BasicBlock{target}
	return inst
}

// NewBranch creates a conditional terminator: ifTrue when cond is
// nonzero, ifFalse otherwise.
func NewBranch(c *ctx.Context, cond Value, ifTrue, ifFalse *BasicBlock) *Instruction {
	inst := newInst(OpBranch, c.Void(), 3)
	inst.SetOperand(0, cond)
	inst.SetOperand(1, ifTrue)
	inst.SetOperand(2, ifFalse)
	inst.succBlocks = []*BasicBlock{ifTrue, ifFalse}
	return inst
}

// NewReturn creates a Return terminator. val is nil for a void return.
func NewReturn(c *ctx.Context, val Value) *Instruction {
	n := 0
	if val != nil {
		n = 1
	}
	inst := newInst(OpReturn, c.Void(), n)
	if val != nil {
		inst.SetOperand(0, val)
	}
	return inst
}

// IsTerminator reports whether i ends its basic block.
func (i *Instruction) IsTerminator() bool {
	switch i.Op {
	case OpGoto, OpBranch, OpReturn:
		return true
	default:
		return false
	}
}

// Successors returns the blocks a terminator may transfer control to.
// It panics if i is not a terminator.
func (i *Instruction) Successors() []*BasicBlock {
	switch i.Op {
	case OpGoto:
		return []*BasicBlock{i.operands[0].(*BasicBlock)}
	case OpBranch:
		return []*BasicBlock{i.operands[1].(*BasicBlock), i.operands[2].(*BasicBlock)}
	case OpReturn:
		return nil
	default:
		panic("ir: Successors called on a non-terminator instruction")
	}
}

// Parent returns the BasicBlock i is currently inserted into, or nil.
func (i *Instruction) Parent() *BasicBlock { return i.parent }

// ReplaceAllUsesWith redirects every use of i's result to v and leaves i
// with no uses. It does not remove i from its block; call
// EraseFromParent for that.
func (i *Instruction) ReplaceAllUsesWith(v Value) { replaceAllUsesWith(i, v) }

// EraseFromParent removes i from its basic block. i must have no
// remaining uses; callers that need to drop a used value entirely call
// ReplaceAllUsesWith first.
func (i *Instruction) EraseFromParent() {
	if len(i.Uses()) != 0 {
		panic("ir: EraseFromParent: instruction still has uses")
	}
	for idx, v := range i.operands {
		if v != nil {
			i.SetOperand(idx, nil)
		}
	}
	if i.parent != nil {
		i.parent.removeInstruction(i)
	}
}
