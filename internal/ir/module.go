package ir

import ctx "scatha/internal/context"

// Global is any module-level value with a fixed address: a global
// variable or a callable (defined function or foreign declaration).
type Global interface {
	Value
	GlobalName() string
}

// GlobalVariable is a module-level storage location with a constant
// initializer.
type GlobalVariable struct {
	valueBase

	parent      *Module
	ValueType   ctx.Type
	Initializer ctx.Constant
}

// NewGlobalVariable creates a global of type valueType (the pointee
// type; the GlobalVariable's own Type() is always a pointer) with the
// given initializer.
func NewGlobalVariable(c *ctx.Context, name string, valueType ctx.Type, init ctx.Constant) *GlobalVariable {
	g := &GlobalVariable{ValueType: valueType, Initializer: init}
	g.typ = c.Ptr()
	g.name = name
	return g
}

func (g *GlobalVariable) GlobalName() string { return g.Name() }
func (g *GlobalVariable) Parent() *Module    { return g.parent }

// Callable is a Global with a call signature: a defined Function or a
// ForeignFunction declaration.
type Callable interface {
	Global
	Signature() ctx.Type
}

// ForeignFunction is a declaration of a function defined outside the
// module (e.g. a runtime or host-provided intrinsic). It has a
// signature but no body.
type ForeignFunction struct {
	valueBase

	parent *Module
	sig    ctx.Type
}

// NewForeignFunction declares name with signature typ.
func NewForeignFunction(c *ctx.Context, name string, typ ctx.Type) *ForeignFunction {
	if _, ok := typ.(*ctx.FunctionType); !ok {
		panic("ir: NewForeignFunction: typ is not a function type")
	}
	f := &ForeignFunction{sig: typ}
	f.typ = c.Ptr()
	f.name = name
	return f
}

func (f *ForeignFunction) GlobalName() string  { return f.Name() }
func (f *ForeignFunction) Signature() ctx.Type { return f.sig }
func (f *ForeignFunction) Parent() *Module     { return f.parent }

// Signature returns f's FunctionType, satisfying Callable alongside
// *ForeignFunction.
func (f *Function) Signature() ctx.Type {
	params := make([]ctx.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type()
	}
	return &ctx.FunctionType{Return: f.returnType, Params: params}
}

func (f *Function) GlobalName() string { return f.Name() }

// Module owns every Global (function, foreign function, global
// variable) defined or declared in one compilation unit, plus the
// Context that owns their types and constants.
type Module struct {
	Name      string
	Context   *ctx.Context
	Functions []*Function
	Foreign   []*ForeignFunction
	Globals   []*GlobalVariable
}

// NewModule creates an empty module named name, owning c.
func NewModule(name string, c *ctx.Context) *Module {
	return &Module{Name: name, Context: c}
}

// AddFunction defines f in m.
func (m *Module) AddFunction(f *Function) {
	f.parent = m
	m.Functions = append(m.Functions, f)
}

// AddForeignFunction declares f in m.
func (m *Module) AddForeignFunction(f *ForeignFunction) {
	f.parent = m
	m.Foreign = append(m.Foreign, f)
}

// AddGlobalVariable defines g in m.
func (m *Module) AddGlobalVariable(g *GlobalVariable) {
	g.parent = m
	m.Globals = append(m.Globals, g)
}

// FindFunction returns the function named name, or nil.
func (m *Module) FindFunction(name string) *Function {
	for _, f := range m.Functions {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// Callables returns every function-shaped global in the module:
// definitions followed by foreign declarations.
func (m *Module) Callables() []Callable {
	out := make([]Callable, 0, len(m.Functions)+len(m.Foreign))
	for _, f := range m.Functions {
		out = append(out, f)
	}
	for _, f := range m.Foreign {
		out = append(out, f)
	}
	return out
}
