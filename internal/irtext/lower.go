package irtext

import (
	"fmt"
	"math/big"
	"strconv"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// build walks the parsed tree and constructs an *ir.Module against c.
//
// Structs are resolved in declaration order (a struct's members must
// name only already-declared structs), matching the declaration order
// the original parser's <module> ::= {<decl>}* grammar assumes. Function
// signatures and block labels are created in a first pass over every
// function before any instruction is built, so a call, goto, branch, or
// phi may forward-reference a function or block declared later in the
// text.
type builder struct {
	c       *ctx.Context
	m       *ir.Module
	structs map[string]ctx.Type
}

func build(c *ctx.Context, file *File) (*ir.Module, error) {
	b := &builder{c: c, m: ir.NewModule("module", c), structs: make(map[string]ctx.Type)}

	for _, sd := range file.Structs {
		members := make([]ctx.Type, len(sd.Members))
		for i, mt := range sd.Members {
			t, err := b.resolveType(mt)
			if err != nil {
				return nil, err
			}
			members[i] = t
		}
		b.structs[stripSigil(sd.Name)] = c.StructType(stripSigil(sd.Name), members)
	}

	fns := make([]*ir.Function, len(file.Functions))
	blockMaps := make([]map[string]*ir.BasicBlock, len(file.Functions))

	for i, fd := range file.Functions {
		ret, err := b.resolveType(fd.Ret)
		if err != nil {
			return nil, err
		}
		params := make([]ctx.Type, len(fd.Params))
		for j, pt := range fd.Params {
			t, err := b.resolveType(pt)
			if err != nil {
				return nil, err
			}
			params[j] = t
		}

		fn := ir.NewFunction(c, stripSigil(fd.Name), c.FunctionType(ret, params))
		for j, p := range fn.Params {
			p.SetName(strconv.Itoa(j))
		}
		b.m.AddFunction(fn)
		fns[i] = fn

		blocks := make(map[string]*ir.BasicBlock, len(fd.Blocks))
		for _, bd := range fd.Blocks {
			label := stripSigil(bd.Label)
			if _, dup := blocks[label]; dup {
				return nil, fmt.Errorf("irtext: %s: duplicate block label %%%s", fd.Pos, label)
			}
			bb := ir.NewBasicBlock(c, label)
			fn.AppendBlock(bb)
			blocks[label] = bb
		}
		blockMaps[i] = blocks
	}

	for i, fd := range file.Functions {
		fb := &funcBuilder{builder: b, fn: fns[i], blocks: blockMaps[i], values: make(map[string]ir.Value)}
		for j, p := range fb.fn.Params {
			fb.values[strconv.Itoa(j)] = p
		}
		for _, bd := range fd.Blocks {
			if err := fb.buildBlock(fb.blocks[stripSigil(bd.Label)], bd); err != nil {
				return nil, err
			}
		}
		if err := fb.resolvePhis(); err != nil {
			return nil, err
		}
	}

	return b.m, nil
}

func stripSigil(s string) string {
	if s == "" {
		return s
	}
	return s[1:]
}

func (b *builder) resolveType(t *typeRef) (ctx.Type, error) {
	switch {
	case t.Int != "":
		bits, err := strconv.Atoi(t.Int[1:])
		if err != nil {
			return nil, fmt.Errorf("irtext: %s: malformed integral type %q", t.Pos, t.Int)
		}
		return b.c.IntegralType(bits), nil
	case t.Flt != "":
		bits, err := strconv.Atoi(t.Flt[1:])
		if err != nil {
			return nil, fmt.Errorf("irtext: %s: malformed float type %q", t.Pos, t.Flt)
		}
		return b.c.FloatType(bits), nil
	case t.Ptr:
		return b.c.Ptr(), nil
	case t.Void:
		return b.c.Void(), nil
	case t.Array != nil:
		elem, err := b.resolveType(t.Array.Elem)
		if err != nil {
			return nil, err
		}
		count, err := strconv.ParseInt(t.Array.Count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("irtext: %s: malformed array count %q", t.Array.Pos, t.Array.Count)
		}
		return b.c.ArrayType(elem, count), nil
	case t.Struct != "":
		name := stripSigil(t.Struct)
		st, ok := b.structs[name]
		if !ok {
			return nil, fmt.Errorf("irtext: %s: undefined struct type %q", t.Pos, t.Struct)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("irtext: %s: empty type reference", t.Pos)
	}
}

// funcBuilder builds one function's instructions, resolving %local and
// @global references against the symbol tables built in build's first
// pass plus the results accumulated so far in this function.
type funcBuilder struct {
	*builder
	fn     *ir.Function
	blocks map[string]*ir.BasicBlock
	values map[string]ir.Value

	// pendingPhis holds phi instructions whose incoming edges are
	// resolved in a second pass over the function, once every block's
	// values are registered: a phi's incoming value may be produced by
	// a block that appears later in the text (the usual case on a loop
	// back edge), so it cannot always be resolved on first sight the
	// way every other opcode's operands can.
	pendingPhis []pendingPhi
}

type pendingPhi struct {
	inst *ir.Instruction
	decl *phiInst
	typ  ctx.Type
}

func (fb *funcBuilder) buildBlock(bb *ir.BasicBlock, bd *blockDecl) error {
	for _, id := range bd.Insts {
		inst, err := fb.buildInst(id)
		if err != nil {
			return err
		}
		if id.Name != "" {
			name := stripSigil(id.Name)
			inst.SetName(name)
			fb.values[name] = inst
		}
		if inst.IsTerminator() {
			bb.SetTerminator(inst)
		} else {
			bb.PushBack(inst)
		}
	}
	return nil
}

// resolvePhis wires every deferred phi's incoming edges, once every
// value and block in the function has been built and named.
func (fb *funcBuilder) resolvePhis() error {
	for _, pp := range fb.pendingPhis {
		for _, a := range pp.decl.Args {
			bb, err := fb.block(a.Block)
			if err != nil {
				return err
			}
			v, err := fb.value(pp.typ, a.Value)
			if err != nil {
				return err
			}
			pp.inst.AddIncoming(bb, v)
		}
	}
	return nil
}

func (fb *funcBuilder) block(label string) (*ir.BasicBlock, error) {
	name := stripSigil(label)
	bb, ok := fb.blocks[name]
	if !ok {
		return nil, fmt.Errorf("irtext: %s: undefined block label %%%s", fb.fn.Name(), name)
	}
	return bb, nil
}

func (fb *funcBuilder) localValue(name string) (ir.Value, error) {
	name = stripSigil(name)
	v, ok := fb.values[name]
	if !ok {
		return nil, fmt.Errorf("irtext: %s: undefined local value %%%s", fb.fn.Name(), name)
	}
	return v, nil
}

func (fb *funcBuilder) globalValue(name string) (ir.Value, error) {
	name = stripSigil(name)
	if f := fb.m.FindFunction(name); f != nil {
		return f, nil
	}
	for _, f := range fb.m.Foreign {
		if f.Name() == name {
			return f, nil
		}
	}
	for _, g := range fb.m.Globals {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("irtext: undefined global @%s", name)
}

func (fb *funcBuilder) id(r *idRef) (ir.Value, error) {
	if r.Local != "" {
		return fb.localValue(r.Local)
	}
	return fb.globalValue(r.Global)
}

func (fb *funcBuilder) value(typ ctx.Type, r *valueRef) (ir.Value, error) {
	switch {
	case r.Local != "":
		return fb.localValue(r.Local)
	case r.Global != "":
		return fb.globalValue(r.Global)
	case r.Int != "":
		n, ok := new(big.Int).SetString(r.Int, 10)
		if !ok {
			return nil, fmt.Errorf("irtext: %s: malformed integer literal %q", r.Pos, r.Int)
		}
		return ir.NewConstantValue(fb.c.IntConstant(n, typ)), nil
	case r.Float != "":
		f, err := strconv.ParseFloat(r.Float, 64)
		if err != nil {
			return nil, fmt.Errorf("irtext: %s: malformed float literal %q", r.Pos, r.Float)
		}
		return ir.NewConstantValue(fb.c.FloatConstant(f, typ)), nil
	case r.Null:
		return ir.NewConstantValue(fb.c.NullPointer()), nil
	case r.Undef:
		return ir.NewConstantValue(fb.c.Undef(typ)), nil
	default:
		return nil, fmt.Errorf("irtext: %s: empty value reference", r.Pos)
	}
}

func (fb *funcBuilder) typedValue(tv *typedValue) (ir.Value, error) {
	typ, err := fb.resolveType(tv.Type)
	if err != nil {
		return nil, err
	}
	return fb.value(typ, tv.Val)
}

func parseIndices(raw []string) ([]int64, error) {
	out := make([]int64, len(raw))
	for i, s := range raw {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("irtext: malformed index %q", s)
		}
		out[i] = n
	}
	return out, nil
}

func unaryOpFromText(op string) (ir.UnaryOp, error) {
	switch op {
	case "neg":
		return ir.UnaryNeg, nil
	case "bnot":
		return ir.UnaryBitwiseNot, nil
	case "lnot":
		return ir.UnaryLogicalNot, nil
	default:
		return 0, fmt.Errorf("irtext: unknown unary operator %q", op)
	}
}

func binaryOpFromText(op string) (ir.BinaryOp, error) {
	switch op {
	case "add":
		return ir.BinaryAdd, nil
	case "sub":
		return ir.BinarySub, nil
	case "mul":
		return ir.BinaryMul, nil
	case "sdiv":
		return ir.BinarySDiv, nil
	case "udiv":
		return ir.BinaryUDiv, nil
	case "srem":
		return ir.BinarySRem, nil
	case "urem":
		return ir.BinaryURem, nil
	case "fadd":
		return ir.BinaryFAdd, nil
	case "fsub":
		return ir.BinaryFSub, nil
	case "fmul":
		return ir.BinaryFMul, nil
	case "fdiv":
		return ir.BinaryFDiv, nil
	case "frem":
		return ir.BinaryFRem, nil
	case "and":
		return ir.BinaryAnd, nil
	case "or":
		return ir.BinaryOr, nil
	case "xor":
		return ir.BinaryXor, nil
	case "lshl":
		return ir.BinaryLShL, nil
	case "lshr":
		return ir.BinaryLShR, nil
	case "ashl":
		return ir.BinaryAShL, nil
	case "ashr":
		return ir.BinaryAShR, nil
	default:
		return 0, fmt.Errorf("irtext: unknown binary operator %q", op)
	}
}

func cmpModeFromText(mode string) (ir.CompareMode, error) {
	switch mode {
	case "scmp":
		return ir.Signed, nil
	case "ucmp":
		return ir.Unsigned, nil
	case "fcmp":
		return ir.Float, nil
	default:
		return 0, fmt.Errorf("irtext: unknown comparison mode %q", mode)
	}
}

func cmpOpFromText(op string) (ir.CompareOp, error) {
	switch op {
	case "eq":
		return ir.CompareEq, nil
	case "ne":
		return ir.CompareNe, nil
	case "lt":
		return ir.CompareLt, nil
	case "le":
		return ir.CompareLe, nil
	case "gt":
		return ir.CompareGt, nil
	case "ge":
		return ir.CompareGe, nil
	default:
		return 0, fmt.Errorf("irtext: unknown comparison operator %q", op)
	}
}

func convKindFromText(op string) (ir.ConversionKind, error) {
	switch op {
	case "zext":
		return ir.ConvZext, nil
	case "sext":
		return ir.ConvSext, nil
	case "trunc":
		return ir.ConvTrunc, nil
	case "ftoi":
		return ir.ConvFtoI, nil
	case "itof":
		return ir.ConvItoF, nil
	case "bitcast":
		return ir.ConvBitcast, nil
	default:
		return 0, fmt.Errorf("irtext: unknown conversion operator %q", op)
	}
}

func (fb *funcBuilder) buildInst(id *instDecl) (*ir.Instruction, error) {
	switch {
	case id.Alloca != nil:
		t, err := fb.resolveType(id.Alloca.Type)
		if err != nil {
			return nil, err
		}
		var count ir.Value
		if id.Alloca.Count != nil {
			count, err = fb.typedValue(id.Alloca.Count)
			if err != nil {
				return nil, err
			}
		}
		return ir.NewAlloca(fb.c, t, count), nil

	case id.Load != nil:
		t, err := fb.resolveType(id.Load.Type)
		if err != nil {
			return nil, err
		}
		ptr, err := fb.id(id.Load.Ptr)
		if err != nil {
			return nil, err
		}
		return ir.NewLoad(ptr, t), nil

	case id.Store != nil:
		val, err := fb.typedValue(id.Store.Val)
		if err != nil {
			return nil, err
		}
		ptr, err := fb.id(id.Store.Ptr)
		if err != nil {
			return nil, err
		}
		return ir.NewStore(fb.c, ptr, val), nil

	case id.Unary != nil:
		op, err := unaryOpFromText(id.Unary.Op)
		if err != nil {
			return nil, err
		}
		t, err := fb.resolveType(id.Unary.Type)
		if err != nil {
			return nil, err
		}
		x, err := fb.value(t, id.Unary.Val)
		if err != nil {
			return nil, err
		}
		return ir.NewUnary(op, x, t), nil

	case id.Binary != nil:
		op, err := binaryOpFromText(id.Binary.Op)
		if err != nil {
			return nil, err
		}
		t, err := fb.resolveType(id.Binary.Type)
		if err != nil {
			return nil, err
		}
		lhs, err := fb.value(t, id.Binary.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := fb.value(t, id.Binary.RHS)
		if err != nil {
			return nil, err
		}
		return ir.NewBinary(op, lhs, rhs, t), nil

	case id.Cmp != nil:
		mode, err := cmpModeFromText(id.Cmp.Mode)
		if err != nil {
			return nil, err
		}
		op, err := cmpOpFromText(id.Cmp.Op)
		if err != nil {
			return nil, err
		}
		lhs, err := fb.typedValue(id.Cmp.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := fb.typedValue(id.Cmp.RHS)
		if err != nil {
			return nil, err
		}
		return ir.NewCompare(fb.c, mode, op, lhs, rhs), nil

	case id.Conv != nil:
		kind, err := convKindFromText(id.Conv.Op)
		if err != nil {
			return nil, err
		}
		target, err := fb.resolveType(id.Conv.Target)
		if err != nil {
			return nil, err
		}
		src, err := fb.typedValue(id.Conv.Src)
		if err != nil {
			return nil, err
		}
		return ir.NewConversion(kind, src, target), nil

	case id.Gep != nil:
		base, err := fb.typedValue(id.Gep.Base)
		if err != nil {
			return nil, err
		}
		idxs, err := parseIndices(id.Gep.Indices)
		if err != nil {
			return nil, err
		}
		var dynamic ir.Value
		if id.Gep.Dynamic != nil {
			dynamic, err = fb.typedValue(id.Gep.Dynamic)
			if err != nil {
				return nil, err
			}
		}
		return ir.NewGetElementPointer(fb.c, base, idxs, dynamic), nil

	case id.Extract != nil:
		t, err := fb.resolveType(id.Extract.Type)
		if err != nil {
			return nil, err
		}
		agg, err := fb.typedValue(id.Extract.Agg)
		if err != nil {
			return nil, err
		}
		idxs, err := parseIndices(id.Extract.Indices)
		if err != nil {
			return nil, err
		}
		return ir.NewExtractValue(agg, idxs, t), nil

	case id.Insert != nil:
		agg, err := fb.typedValue(id.Insert.Agg)
		if err != nil {
			return nil, err
		}
		elem, err := fb.typedValue(id.Insert.Elem)
		if err != nil {
			return nil, err
		}
		idxs, err := parseIndices(id.Insert.Indices)
		if err != nil {
			return nil, err
		}
		return ir.NewInsertValue(agg, elem, idxs), nil

	case id.Select != nil:
		cond, err := fb.typedValue(id.Select.Cond)
		if err != nil {
			return nil, err
		}
		ifTrue, err := fb.typedValue(id.Select.IfTrue)
		if err != nil {
			return nil, err
		}
		ifFalse, err := fb.value(ifTrue.Type(), id.Select.IfFalse)
		if err != nil {
			return nil, err
		}
		return ir.NewSelect(cond, ifTrue, ifFalse), nil

	case id.Call != nil:
		t, err := fb.resolveType(id.Call.Ret)
		if err != nil {
			return nil, err
		}
		callee, err := fb.globalValue(id.Call.Callee)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Value, len(id.Call.Args))
		for i, a := range id.Call.Args {
			v, err := fb.typedValue(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ir.NewCall(callee, args, t), nil

	case id.Phi != nil:
		t, err := fb.resolveType(id.Phi.Type)
		if err != nil {
			return nil, err
		}
		phi := ir.NewPhi(t)
		fb.pendingPhis = append(fb.pendingPhis, pendingPhi{inst: phi, decl: id.Phi, typ: t})
		return phi, nil

	case id.Goto != nil:
		target, err := fb.block(id.Goto.Target)
		if err != nil {
			return nil, err
		}
		return ir.NewGoto(fb.c, target), nil

	case id.Branch != nil:
		cond, err := fb.typedValue(id.Branch.Cond)
		if err != nil {
			return nil, err
		}
		ifTrue, err := fb.block(id.Branch.IfTrue)
		if err != nil {
			return nil, err
		}
		ifFalse, err := fb.block(id.Branch.IfFalse)
		if err != nil {
			return nil, err
		}
		return ir.NewBranch(fb.c, cond, ifTrue, ifFalse), nil

	case id.Return != nil:
		if id.Return.Val == nil {
			return ir.NewReturn(fb.c, nil), nil
		}
		v, err := fb.typedValue(id.Return.Val)
		if err != nil {
			return nil, err
		}
		return ir.NewReturn(fb.c, v), nil

	default:
		return nil, fmt.Errorf("irtext: %s: empty instruction", id.Pos)
	}
}
