package ir

import ctx "scatha/internal/context"

// BasicBlock is a maximal straight-line sequence of instructions ending
// in exactly one terminator. It is itself a Value so that it can appear
// as an operand (a branch target, or a phi's incoming label).
type BasicBlock struct {
	valueBase

	parent       *Function
	Instructions []*Instruction
	Predecessors []*BasicBlock
	Successors   []*BasicBlock
}

// NewBasicBlock creates an unattached block named name. Use
// Function.AppendBlock (or InsertBlockAfter) to attach it.
func NewBasicBlock(c *ctx.Context, name string) *BasicBlock {
	bb := &BasicBlock{}
	bb.typ = c.Void()
	bb.name = name
	return bb
}

// Parent returns the Function bb belongs to, or nil if unattached.
func (bb *BasicBlock) Parent() *Function { return bb.parent }

// Terminator returns bb's terminator instruction, or nil if bb is not
// yet terminated (a transient state during construction).
func (bb *BasicBlock) Terminator() *Instruction {
	if n := len(bb.Instructions); n > 0 {
		if last := bb.Instructions[n-1]; last.IsTerminator() {
			return last
		}
	}
	return nil
}

// PushBack appends inst to the end of bb's instruction list.
func (bb *BasicBlock) PushBack(inst *Instruction) {
	inst.parent = bb
	bb.Instructions = append(bb.Instructions, inst)
}

// PushFront inserts inst at the very start of bb's instruction list,
// ahead of any existing phis — callers inserting a phi use this directly;
// callers inserting a non-phi after the phis should use
// InsertAfterPhis.
func (bb *BasicBlock) PushFront(inst *Instruction) {
	inst.parent = bb
	bb.Instructions = append([]*Instruction{inst}, bb.Instructions...)
}

// InsertAfterPhis inserts inst immediately after bb's leading phi
// instructions (or at the front, if bb has none).
func (bb *BasicBlock) InsertAfterPhis(inst *Instruction) {
	i := 0
	for i < len(bb.Instructions) && bb.Instructions[i].Op == OpPhi {
		i++
	}
	bb.insertAt(i, inst)
}

// InsertBefore inserts inst immediately before mark, which must already
// be in bb.
func (bb *BasicBlock) InsertBefore(mark, inst *Instruction) {
	for i, in := range bb.Instructions {
		if in == mark {
			bb.insertAt(i, inst)
			return
		}
	}
	panic("ir: InsertBefore: mark not found in block")
}

func (bb *BasicBlock) insertAt(i int, inst *Instruction) {
	inst.parent = bb
	bb.Instructions = append(bb.Instructions, nil)
	copy(bb.Instructions[i+1:], bb.Instructions[i:])
	bb.Instructions[i] = inst
}

func (bb *BasicBlock) removeInstruction(inst *Instruction) {
	for i, in := range bb.Instructions {
		if in == inst {
			bb.Instructions = append(bb.Instructions[:i], bb.Instructions[i+1:]...)
			inst.parent = nil
			return
		}
	}
}

// Phis returns bb's leading phi instructions.
func (bb *BasicBlock) Phis() []*Instruction {
	var out []*Instruction
	for _, in := range bb.Instructions {
		if in.Op != OpPhi {
			break
		}
		out = append(out, in)
	}
	return out
}

// addEdge links from -> to. Used only by the terminator
// constructors/replacement logic below; callers build control flow via
// NewGoto/NewBranch and SetTerminator, not by calling this directly.
func addEdge(from, to *BasicBlock) {
	from.Successors = append(from.Successors, to)
	to.Predecessors = append(to.Predecessors, from)
}

// SetTerminator appends term (which must be a terminator instruction) to
// bb and wires the Predecessors/Successors edges implied by its target
// blocks. bb must not already be terminated.
func (bb *BasicBlock) SetTerminator(term *Instruction) {
	if !term.IsTerminator() {
		panic("ir: SetTerminator: instruction is not a terminator")
	}
	if bb.Terminator() != nil {
		panic("ir: SetTerminator: block already terminated")
	}
	bb.PushBack(term)
	for _, succ := range term.Successors() {
		addEdge(bb, succ)
	}
}

// replaceSucc rewrites every instance of old among bb's Successors (and
// the matching Predecessors entry on old/new) to new, and fixes up the
// terminator operand. Phi incoming edges in old and new are not
// updated. Used by CFG-simplifying passes that redirect a branch target
// in place.
func (bb *BasicBlock) replaceSucc(old, new *BasicBlock) {
	for i, s := range bb.Successors {
		if s == old {
			bb.Successors[i] = new
		}
	}
	for i, p := range old.Predecessors {
		if p == bb {
			old.Predecessors = append(old.Predecessors[:i], old.Predecessors[i+1:]...)
			break
		}
	}
	new.Predecessors = append(new.Predecessors, bb)

	if term := bb.Terminator(); term != nil {
		for i, op := range term.operands {
			if op == Value(old) {
				term.SetOperand(i, new)
			}
		}
	}
}
