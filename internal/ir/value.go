// Package ir implements the SSA-form intermediate representation: the
// Value/User graph, basic blocks, functions and modules, and the
// structural invariants that hold over them.
package ir

import ctx "scatha/internal/context"

// Value is anything that can be the operand of an instruction: an
// instruction's own result, a basic block (used as a branch target or phi
// label), a function parameter, or a constant.
//
// The Uses list and a User's Operands list are two views of the same
// edges; addUse/removeUse are how the User side keeps the Value side in
// sync. Outside this package only Uses is visible.
type Value interface {
	Type() ctx.Type
	Name() string
	SetName(string)

	// Uses returns every Use currently referencing this value. Order is
	// not meaningful.
	Uses() []*Use

	addUse(u *Use)
	removeUse(u *Use)
}

// Use records one edge in the Value/User graph: User has Value as its
// operand at index Index.
type Use struct {
	Value Value
	User  User
	Index int
}

// User is a Value that in turn references other Values as operands.
// In this package *Instruction is the only User.
type User interface {
	Value
	Operands() []Value
	SetOperand(i int, v Value)
}

// valueBase is embedded by every concrete Value implementation. It is not
// itself a User; userBase embeds it for types that are also Users.
type valueBase struct {
	typ  ctx.Type
	name string
	uses []*Use
}

func (v *valueBase) Type() ctx.Type   { return v.typ }
func (v *valueBase) Name() string     { return v.name }
func (v *valueBase) SetName(n string) { v.name = n }
func (v *valueBase) Uses() []*Use     { return v.uses }

func (v *valueBase) addUse(u *Use) {
	v.uses = append(v.uses, u)
}

func (v *valueBase) removeUse(u *Use) {
	for i, e := range v.uses {
		if e == u {
			v.uses[i] = v.uses[len(v.uses)-1]
			v.uses = v.uses[:len(v.uses)-1]
			return
		}
	}
}

// users returns the set of distinct Users referencing v, derived from
// v.Uses(). A User that references v through more than one operand
// appears once.
func users(v Value) []User {
	seen := make(map[User]bool)
	var out []User
	for _, u := range v.Uses() {
		if !seen[u.User] {
			seen[u.User] = true
			out = append(out, u.User)
		}
	}
	return out
}

// replaceAllUsesWith redirects every use of old to new, leaving old with
// no uses. old and new must have compatible types; callers that relax
// types (e.g. during conversion-folding) are responsible for checking
// that themselves.
func replaceAllUsesWith(old, new Value) {
	for _, u := range append([]*Use(nil), old.Uses()...) {
		u.User.SetOperand(u.Index, new)
	}
}

// userBase is embedded by every concrete User implementation
// (currently only Instruction). self must be set once,
// during construction, to the outer concrete value so that Use.User
// records the real type rather than *userBase.
type userBase struct {
	valueBase
	self     User
	operands []Value
}

func (u *userBase) init(self User, typ ctx.Type, numOperands int) {
	u.self = self
	u.typ = typ
	u.operands = make([]Value, numOperands)
}

func (u *userBase) Operands() []Value { return u.operands }

// setOperandRaw assigns operand i without touching the use-list; a
// caller using it must keep the use-list in sync itself.
func (u *userBase) setOperandRaw(i int, v Value) { u.operands[i] = v }

func (u *userBase) SetOperand(i int, v Value) {
	if u.operands[i] == v {
		return
	}
	if old := u.operands[i]; old != nil {
		for _, e := range old.Uses() {
			if e.User == u.self && e.Index == i {
				old.removeUse(e)
				break
			}
		}
	}
	u.operands[i] = v
	if v != nil {
		v.addUse(&Use{Value: v, User: u.self, Index: i})
	}
}

// addOperand appends a new operand slot and wires its use, growing
// Operands() by one.
func (u *userBase) addOperand(v Value) {
	i := len(u.operands)
	u.operands = append(u.operands, nil)
	u.SetOperand(i, v)
}
