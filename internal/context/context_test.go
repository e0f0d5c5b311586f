package context

import (
	"math/big"
	"testing"
)

func TestIntegralTypeInterning(t *testing.T) {
	c := New()
	a := c.IntegralType(32)
	b := c.IntegralType(32)
	if a != b {
		t.Errorf("IntegralType(32) not interned: %p != %p", a, b)
	}
	if c.IntegralType(64) == a {
		t.Errorf("IntegralType(64) should differ from IntegralType(32)")
	}
}

func TestIntegralTypeInvalidBits(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unsupported bitwidth")
		}
	}()
	New().IntegralType(7)
}

func TestPointerAndVoidSingletons(t *testing.T) {
	c := New()
	if c.Ptr() != c.Ptr() {
		t.Errorf("Ptr() not a singleton")
	}
	if c.Void() != c.Void() {
		t.Errorf("Void() not a singleton")
	}
}

func TestArrayTypeInterning(t *testing.T) {
	c := New()
	i32 := c.IntegralType(32)
	a1 := c.ArrayType(i32, 4)
	a2 := c.ArrayType(i32, 4)
	if a1 != a2 {
		t.Errorf("ArrayType(i32, 4) not interned")
	}
	dyn := c.ArrayType(i32, -1)
	if dyn == a1 {
		t.Errorf("dynamic array should not alias fixed array")
	}
	if dyn.Size() != 0 {
		t.Errorf("dynamic array size = %d, want 0", dyn.Size())
	}
}

func TestStructLayout(t *testing.T) {
	c := New()
	i8 := c.IntegralType(8)
	i64 := c.IntegralType(64)
	st := c.StructType("Pair", []Type{i8, i64})

	s, ok := st.(*StructType)
	if !ok {
		t.Fatalf("StructType did not return *StructType")
	}
	if s.OffsetOf(0) != 0 {
		t.Errorf("OffsetOf(0) = %d, want 0", s.OffsetOf(0))
	}
	if s.OffsetOf(1) != 8 {
		t.Errorf("OffsetOf(1) = %d, want 8 (padding for i64 alignment)", s.OffsetOf(1))
	}
	if s.Size() != 16 {
		t.Errorf("Size() = %d, want 16", s.Size())
	}
	if s.Align() != 8 {
		t.Errorf("Align() = %d, want 8", s.Align())
	}
}

func TestStructRedefinitionConflict(t *testing.T) {
	c := New()
	i8 := c.IntegralType(8)
	i64 := c.IntegralType(64)
	c.StructType("Pair", []Type{i8, i64})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on struct redefinition with different members")
		}
	}()
	c.StructType("Pair", []Type{i64, i8})
}

func TestStructRedefinitionSameMembersIsIdempotent(t *testing.T) {
	c := New()
	i8 := c.IntegralType(8)
	a := c.StructType("Solo", []Type{i8})
	b := c.StructType("Solo", []Type{i8})
	if a != b {
		t.Errorf("identical struct redefinition should return the same interned type")
	}
}

func TestFunctionTypeInterning(t *testing.T) {
	c := New()
	i32 := c.IntegralType(32)
	voidTy := c.Void()
	f1 := c.FunctionType(voidTy, []Type{i32, i32})
	f2 := c.FunctionType(voidTy, []Type{i32, i32})
	if f1 != f2 {
		t.Errorf("FunctionType not interned")
	}
}

func TestIntConstantInterning(t *testing.T) {
	c := New()
	i32 := c.IntegralType(32)
	a := c.IntConstant(big.NewInt(42), i32)
	b := c.IntConstant(big.NewInt(42), i32)
	if a != b {
		t.Errorf("IntConstant(42) not interned")
	}
	if c.IntConstant(big.NewInt(43), i32) == a {
		t.Errorf("IntConstant(43) should differ from IntConstant(42)")
	}
}

func TestFloatConstantInterning(t *testing.T) {
	c := New()
	f64 := c.FloatType(64)
	a := c.FloatConstant(1.5, f64)
	b := c.FloatConstant(1.5, f64)
	if a != b {
		t.Errorf("FloatConstant(1.5) not interned")
	}
}

func TestNullAndUndef(t *testing.T) {
	c := New()
	i32 := c.IntegralType(32)
	if c.NullPointer() != c.NullPointer() {
		t.Errorf("NullPointer() not interned")
	}
	if c.Undef(i32) != c.Undef(i32) {
		t.Errorf("Undef(i32) not interned")
	}
	if c.Undef(i32) == c.Undef(c.IntegralType(64)) {
		t.Errorf("Undef of distinct types must not alias")
	}
}

func TestNameFactoryUniqueness(t *testing.T) {
	c := New()
	f := c.NameFactory("main")
	n1 := f.Unique("x")
	n2 := f.Unique("x")
	if n1 == n2 {
		t.Errorf("NameFactory.Unique returned colliding names: %q, %q", n1, n2)
	}

	other := c.NameFactory("other")
	if other.Unique("x") != "x" {
		t.Errorf("distinct scopes should not share uniqueness state")
	}
}

func TestAggregateConstantRejectsScalarType(t *testing.T) {
	c := New()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for scalar-typed aggregate constant")
		}
	}()
	c.AggregateConstant(c.IntegralType(32), nil)
}
