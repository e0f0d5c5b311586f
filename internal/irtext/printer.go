package irtext

import (
	"fmt"
	"strconv"
	"strings"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// Print renders m in the textual form Parse accepts. Print is a
// canonical printer, not a verbatim echo: print(parse(text)) reproduces
// text's meaning exactly but not necessarily its original spacing or
// struct/function ordering beyond declaration order, matching the
// "round-trip modulo whitespace" guarantee.
func Print(m *ir.Module) string {
	var b strings.Builder
	for _, st := range m.Context.StructTypes() {
		printStruct(&b, st)
	}
	for _, fn := range m.Functions {
		printFunction(&b, fn)
	}
	return b.String()
}

func printStruct(b *strings.Builder, st *ctx.StructType) {
	fmt.Fprintf(b, "struct @%s {", st.Name)
	for i, mt := range st.Members {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mt.String())
	}
	b.WriteString("}\n\n")
}

func printFunction(b *strings.Builder, fn *ir.Function) {
	fmt.Fprintf(b, "func %s @%s(", fn.ReturnType(), fn.Name())
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type().String())
	}
	b.WriteString(") {\n")
	for _, bb := range fn.Blocks {
		fmt.Fprintf(b, "%%%s:\n", bb.Name())
		for _, inst := range bb.Instructions {
			b.WriteString("  ")
			printInst(b, inst)
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n\n")
}

// hasResult reports whether inst yields a value that could be named and
// referenced, matching instDecl's "[ %name = ]" being optional.
func hasResult(inst *ir.Instruction) bool {
	t := inst.Type()
	return t != nil && t.String() != "void"
}

// valueTail renders an operand without any leading type: "%name" for a
// local value, "@name" for a global, or the bare literal text for a
// constant (the type is always printed separately, by the caller, as
// part of the enclosing typed-operand form).
func valueTail(v ir.Value) string {
	switch cv := v.(type) {
	case *ir.ConstantValue:
		return constantLiteral(cv.Const)
	case *ir.BasicBlock:
		return "%" + v.Name()
	case *ir.GlobalVariable, *ir.Function, *ir.ForeignFunction:
		return "@" + v.Name()
	default:
		return "%" + v.Name()
	}
}

func constantLiteral(c ctx.Constant) string {
	switch k := c.(type) {
	case *ctx.IntConstant:
		return k.Val.String()
	case *ctx.FloatConstant:
		return strconv.FormatFloat(k.Val, 'g', -1, 64)
	case *ctx.NullPointerConstant:
		return "null"
	case *ctx.UndefConstant:
		return "undef"
	default:
		return c.String()
	}
}

func unaryOpText(op ir.UnaryOp) string {
	switch op {
	case ir.UnaryNeg:
		return "neg"
	case ir.UnaryBitwiseNot:
		return "bnot"
	case ir.UnaryLogicalNot:
		return "lnot"
	default:
		return fmt.Sprintf("unaryop(%d)", int(op))
	}
}

func binaryOpText(op ir.BinaryOp) string {
	switch op {
	case ir.BinaryAdd:
		return "add"
	case ir.BinarySub:
		return "sub"
	case ir.BinaryMul:
		return "mul"
	case ir.BinarySDiv:
		return "sdiv"
	case ir.BinaryUDiv:
		return "udiv"
	case ir.BinarySRem:
		return "srem"
	case ir.BinaryURem:
		return "urem"
	case ir.BinaryFAdd:
		return "fadd"
	case ir.BinaryFSub:
		return "fsub"
	case ir.BinaryFMul:
		return "fmul"
	case ir.BinaryFDiv:
		return "fdiv"
	case ir.BinaryFRem:
		return "frem"
	case ir.BinaryAnd:
		return "and"
	case ir.BinaryOr:
		return "or"
	case ir.BinaryXor:
		return "xor"
	case ir.BinaryLShL:
		return "lshl"
	case ir.BinaryLShR:
		return "lshr"
	case ir.BinaryAShL:
		return "ashl"
	case ir.BinaryAShR:
		return "ashr"
	default:
		return fmt.Sprintf("binop(%d)", int(op))
	}
}

func cmpModeText(mode ir.CompareMode) string {
	switch mode {
	case ir.Signed:
		return "scmp"
	case ir.Unsigned:
		return "ucmp"
	case ir.Float:
		return "fcmp"
	default:
		return fmt.Sprintf("cmpmode(%d)", int(mode))
	}
}

func cmpOpText(op ir.CompareOp) string {
	switch op {
	case ir.CompareEq:
		return "eq"
	case ir.CompareNe:
		return "ne"
	case ir.CompareLt:
		return "lt"
	case ir.CompareLe:
		return "le"
	case ir.CompareGt:
		return "gt"
	case ir.CompareGe:
		return "ge"
	default:
		return fmt.Sprintf("cmpop(%d)", int(op))
	}
}

func convOpText(op ir.ConversionKind) string {
	switch op {
	case ir.ConvZext:
		return "zext"
	case ir.ConvSext:
		return "sext"
	case ir.ConvTrunc:
		return "trunc"
	case ir.ConvFtoI:
		return "ftoi"
	case ir.ConvItoF:
		return "itof"
	case ir.ConvBitcast:
		return "bitcast"
	default:
		return fmt.Sprintf("convop(%d)", int(op))
	}
}

func printIndices(b *strings.Builder, idx []int64) {
	b.WriteString(" [")
	for i, n := range idx {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(b, "%d", n)
	}
	b.WriteString("]")
}

func printInst(b *strings.Builder, inst *ir.Instruction) {
	if hasResult(inst) {
		fmt.Fprintf(b, "%%%s = ", inst.Name())
	}

	ops := inst.Operands()
	switch inst.Op {
	case ir.OpAlloca:
		fmt.Fprintf(b, "alloca %s", inst.AllocaType)
		if count := inst.Count(); count != nil {
			fmt.Fprintf(b, ", %s %s", count.Type(), valueTail(count))
		}

	case ir.OpLoad:
		fmt.Fprintf(b, "load %s %s", inst.Type(), valueTail(ops[0]))

	case ir.OpStore:
		fmt.Fprintf(b, "store %s %s, %s", ops[1].Type(), valueTail(ops[1]), valueTail(ops[0]))

	case ir.OpUnary:
		fmt.Fprintf(b, "%s %s %s", unaryOpText(inst.UnaryOp), inst.Type(), valueTail(ops[0]))

	case ir.OpBinary:
		fmt.Fprintf(b, "%s %s %s, %s", binaryOpText(inst.BinaryOp), inst.Type(), valueTail(ops[0]), valueTail(ops[1]))

	case ir.OpCompare:
		fmt.Fprintf(b, "%s %s %s %s, %s %s", cmpModeText(inst.CompareMode), cmpOpText(inst.CompareOp),
			ops[0].Type(), valueTail(ops[0]), ops[1].Type(), valueTail(ops[1]))

	case ir.OpConversion:
		fmt.Fprintf(b, "%s %s %s %s", convOpText(inst.Conversion), inst.Type(), ops[0].Type(), valueTail(ops[0]))

	case ir.OpGetElementPointer:
		fmt.Fprintf(b, "gep %s %s", ops[0].Type(), valueTail(ops[0]))
		printIndices(b, inst.Indices)
		if dyn := inst.DynamicIndex(); dyn != nil {
			fmt.Fprintf(b, ", %s %s", dyn.Type(), valueTail(dyn))
		}

	case ir.OpExtractValue:
		fmt.Fprintf(b, "extractvalue %s %s %s", inst.Type(), ops[0].Type(), valueTail(ops[0]))
		printIndices(b, inst.Indices)

	case ir.OpInsertValue:
		fmt.Fprintf(b, "insertvalue %s %s, %s %s", ops[0].Type(), valueTail(ops[0]), ops[1].Type(), valueTail(ops[1]))
		printIndices(b, inst.Indices)

	case ir.OpSelect:
		fmt.Fprintf(b, "select %s %s, %s %s, %s",
			ops[0].Type(), valueTail(ops[0]), ops[1].Type(), valueTail(ops[1]), valueTail(ops[2]))

	case ir.OpCall:
		fmt.Fprintf(b, "call %s @%s", inst.Type(), inst.Callee().Name())
		for _, a := range inst.Args() {
			fmt.Fprintf(b, ", %s %s", a.Type(), valueTail(a))
		}

	case ir.OpPhi:
		fmt.Fprintf(b, "phi %s", inst.Type())
		for i, e := range inst.Incoming {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, " [label %%%s: %s]", e.Block.Name(), valueTail(e.Value))
		}

	case ir.OpGoto:
		fmt.Fprintf(b, "goto label %%%s", ops[0].(*ir.BasicBlock).Name())

	case ir.OpBranch:
		fmt.Fprintf(b, "branch %s %s, label %%%s, label %%%s",
			ops[0].Type(), valueTail(ops[0]), ops[1].(*ir.BasicBlock).Name(), ops[2].(*ir.BasicBlock).Name())

	case ir.OpReturn:
		if len(ops) > 0 {
			fmt.Fprintf(b, "return %s %s", ops[0].Type(), valueTail(ops[0]))
		} else {
			b.WriteString("return")
		}
	}
}
