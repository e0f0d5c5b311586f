// Package context owns the lifetime of interned types and constants for a
// single compilation. Two types (or two constants) compare equal iff their
// interned pointers are equal; nothing in this package mutates a Type or
// Constant after it has been interned.
package context

import "fmt"

// Type is the common interface implemented by every interned IR type.
type Type interface {
	String() string
	Size() int64
	Align() int64

	// sealed prevents types outside this package from implementing Type,
	// so the Context is the only source of Type values.
	sealed()
}

const (
	ptrSize  = 8
	ptrAlign = 8
)

// VoidType is the unit type. It is a singleton, always reachable via
// Context.Void().
type VoidType struct{}

func (*VoidType) String() string { return "void" }
func (*VoidType) Size() int64    { return 0 }
func (*VoidType) Align() int64   { return 1 }
func (*VoidType) sealed()        {}

// IntegralType is a fixed-width integer type. Bits is one of 1, 8, 16, 32, 64.
type IntegralType struct {
	Bits int
}

func (t *IntegralType) String() string { return fmt.Sprintf("i%d", t.Bits) }
func (t *IntegralType) Size() int64    { return (int64(t.Bits) + 7) / 8 }
func (t *IntegralType) Align() int64 {
	if s := t.Size(); s < 8 {
		return s
	}
	return 8
}
func (t *IntegralType) sealed() {}

// FloatType is a 32- or 64-bit IEEE float type.
type FloatType struct {
	Bits int
}

func (t *FloatType) String() string { return fmt.Sprintf("f%d", t.Bits) }
func (t *FloatType) Size() int64    { return int64(t.Bits) / 8 }
func (t *FloatType) Align() int64   { return t.Size() }
func (t *FloatType) sealed()        {}

// PointerType is an opaque address. Its size and alignment are fixed by the
// (assumed) target at 8/8.
type PointerType struct{}

func (*PointerType) String() string { return "ptr" }
func (*PointerType) Size() int64    { return ptrSize }
func (*PointerType) Align() int64   { return ptrAlign }
func (*PointerType) sealed()        {}

// ArrayType is a fixed- or dynamically-sized sequence of a single element
// type. Dynamic arrays have Count == -1 and report a size of 0 (their real
// extent is only known at runtime).
type ArrayType struct {
	Elem  Type
	Count int64 // -1 means dynamic
}

func (t *ArrayType) Dynamic() bool { return t.Count < 0 }

func (t *ArrayType) String() string {
	if t.Dynamic() {
		return fmt.Sprintf("[%s, ?]", t.Elem)
	}
	return fmt.Sprintf("[%s, %d]", t.Elem, t.Count)
}

func (t *ArrayType) Size() int64 {
	if t.Dynamic() {
		return 0
	}
	return alignUp(t.Elem.Size(), t.Elem.Align()) * t.Count
}

func (t *ArrayType) Align() int64 { return t.Elem.Align() }
func (t *ArrayType) sealed()      {}

// StructType is an ordered sequence of named member types. Size, alignment,
// and per-member byte offsets are computed once, at interning time, using
// natural alignment.
type StructType struct {
	Name    string
	Members []Type

	size    int64
	align   int64
	offsets []int64
}

func (t *StructType) String() string { return "@" + t.Name }
func (t *StructType) Size() int64    { return t.size }
func (t *StructType) Align() int64   { return t.align }
func (t *StructType) sealed()        {}

// OffsetOf returns the byte offset of member i within the struct.
func (t *StructType) OffsetOf(i int) int64 { return t.offsets[i] }

func (t *StructType) layout() {
	var offset, align int64 = 0, 1
	offsets := make([]int64, len(t.Members))
	for i, m := range t.Members {
		a := m.Align()
		if a > align {
			align = a
		}
		offset = alignUp(offset, a)
		offsets[i] = offset
		offset += m.Size()
	}
	t.size = alignUp(offset, align)
	t.align = align
	t.offsets = offsets
}

func alignUp(v, align int64) int64 {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// FunctionType describes a callable signature: a return type and an ordered
// list of argument types. Its Size and Align are those of a pointer (it
// only ever appears as the pointee of a callable's address).
type FunctionType struct {
	Return Type
	Params []Type
}

func (t *FunctionType) String() string {
	s := t.Return.String() + "("
	for i, p := range t.Params {
		if i > 0 {
			s += ", "
		}
		s += p.String()
	}
	return s + ")"
}

func (t *FunctionType) Size() int64  { return ptrSize }
func (t *FunctionType) Align() int64 { return ptrAlign }
func (t *FunctionType) sealed()      {}
