package ir

import ctx "scatha/internal/context"

// ConstantValue adapts an interned context.Constant into a Value so it
// can appear as an instruction operand and be tracked on the ordinary
// use-list. Scalar and null/undef constants are interned once per
// Context and so are naturally shared across every ConstantValue that
// wraps them — but the ConstantValue wrapper itself is not interned:
// each appearance as an operand gets its own, since use-list membership
// is per-appearance, not per-value.
type ConstantValue struct {
	valueBase
	Const ctx.Constant
}

// NewConstantValue wraps c as an operand-usable Value.
func NewConstantValue(c ctx.Constant) *ConstantValue {
	v := &ConstantValue{Const: c}
	v.typ = c.Type()
	v.name = c.String()
	return v
}
