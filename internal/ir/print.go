package ir

import (
	"fmt"
	"strings"
)

// operandString renders a debug form of a value suitable for use as an operand
// reference: "%name" for locally-named values, "@name" for globals, or a
// literal for constants. It is not the canonical textual IR grammar
// (see internal/irtext for that); it exists for %v in error messages and
// test failure output, the way golang.org/x/tools/go/ssa's Value.String
// does.
func operandString(v Value) string {
	switch v.(type) {
	case *GlobalVariable, *Function, *ForeignFunction:
		return "@" + v.Name()
	case *ConstantValue:
		return v.Name()
	case *BasicBlock:
		return "label %" + v.Name()
	default:
		return "%" + v.Name()
	}
}

// String renders inst in a debug, non-round-tripping form.
func (i *Instruction) String() string {
	var b strings.Builder
	if i.Type() != nil && i.typ.String() != "void" {
		fmt.Fprintf(&b, "%%%s = ", i.Name())
	}
	fmt.Fprintf(&b, "%s", i.Op)
	for idx, op := range i.operands {
		if idx > 0 {
			b.WriteString(",")
		}
		b.WriteString(" ")
		b.WriteString(operandString(op))
	}
	return b.String()
}

// Dump writes a readable textual trace of f to b, in the spirit of
// golang.org/x/tools/go/ssa's Function.WriteTo: one block per section,
// one instruction per line.
func (f *Function) Dump(b *strings.Builder) {
	fmt.Fprintf(b, "func %s:\n", f.Name())
	for _, bb := range f.Blocks {
		fmt.Fprintf(b, "%s:\n", bb.Name())
		for _, inst := range bb.Instructions {
			fmt.Fprintf(b, "\t%s\n", inst.String())
		}
	}
}
