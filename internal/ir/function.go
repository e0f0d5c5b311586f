package ir

import ctx "scatha/internal/context"

// Parameter is an incoming function argument. It is a Value (instructions
// reference it as an operand) but never a User: it has no operands of
// its own.
type Parameter struct {
	valueBase

	parent *Function
	Index  int
}

// NewParameter creates an unattached parameter; NewFunction creates and
// attaches a function's parameters and assigns their Index.
func NewParameter(typ ctx.Type, name string) *Parameter {
	p := &Parameter{}
	p.typ = typ
	p.name = name
	return p
}

// Parent returns the Function p belongs to.
func (p *Parameter) Parent() *Function { return p.parent }

// Function is a defined, callable region of IR: a signature plus a body
// of basic blocks. Function is itself a Value (its address is a valid
// Call operand) but not a User — its body references values, but the
// Function value itself has no operands.
type Function struct {
	valueBase

	parent     *Module
	returnType ctx.Type
	Params     []*Parameter
	Blocks     []*BasicBlock
}

// NewFunction creates a Function with the given name and signature. typ
// must be a *context.FunctionType; its Params are synthesized as
// Parameters of the function, matching the FunctionType's argument
// types positionally.
func NewFunction(c *ctx.Context, name string, typ ctx.Type) *Function {
	ft, ok := typ.(*ctx.FunctionType)
	if !ok {
		panic("ir: NewFunction: typ is not a function type")
	}
	f := &Function{}
	f.typ = c.Ptr()
	f.name = name
	f.returnType = ft.Return
	for i, pt := range ft.Params {
		p := NewParameter(pt, "")
		p.parent = f
		p.Index = i
		f.Params = append(f.Params, p)
	}
	return f
}

// ReturnType returns f's declared return type.
func (f *Function) ReturnType() ctx.Type { return f.returnType }

// AppendBlock adds bb to the end of f's block list and marks it owned by
// f. The first appended block is f's entry block.
func (f *Function) AppendBlock(bb *BasicBlock) {
	bb.parent = f
	f.Blocks = append(f.Blocks, bb)
}

// Entry returns f's entry block, or nil if f has no blocks (a
// declaration, not a definition).
func (f *Function) Entry() *BasicBlock {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// RemoveBlock detaches bb from f. bb must have no predecessors and no
// instructions with remaining uses.
func (f *Function) RemoveBlock(bb *BasicBlock) {
	for i, b := range f.Blocks {
		if b == bb {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			bb.parent = nil
			return
		}
	}
}

// Parent returns the Module f belongs to.
func (f *Function) Parent() *Module { return f.parent }

// IsDeclaration reports whether f has no body (no blocks).
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }
