package irtext_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
	"scatha/internal/irtext"
)

const straightLineFn = `
func i32 @add(i32, i32) {
%entry:
  %p = alloca i32
  store i32 0, %p
  %a = load i32 %p
  %r = add i32 %a, 1
  return i32 %r
}
`

func TestParseStraightLineFunction(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(straightLineFn, c)
	require.NoError(t, err)
	require.Len(t, m.Functions, 1)

	fn := m.Functions[0]
	assert.Equal(t, "add", fn.Name())
	require.Len(t, fn.Blocks, 1)
	assert.Len(t, fn.Blocks[0].Instructions, 5)
	assert.Empty(t, ir.Validate(m))
}

func TestPrintParseRoundTripIsIdempotent(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(straightLineFn, c)
	require.NoError(t, err)

	once := irtext.Print(m)

	c2 := ctx.New()
	m2, err := irtext.Parse(once, c2)
	require.NoError(t, err)
	twice := irtext.Print(m2)

	assert.Equal(t, once, twice)
}

const diamondWithPhi = `
func i32 @choose(i32) {
%entry:
  %c = scmp gt i32 %0, i32 0
  branch i1 %c, label %then, label %else
%then:
  goto label %merge
%else:
  goto label %merge
%merge:
  %v = phi i32 [label %then: 1], [label %else: 2]
  return i32 %v
}
`

func TestParsePhiForwardReferencesBothPredecessors(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(diamondWithPhi, c)
	require.NoError(t, err)
	require.Empty(t, ir.Validate(m))

	fn := m.FindFunction("choose")
	require.NotNil(t, fn)

	merge := fn.Blocks[3]
	phis := merge.Phis()
	require.Len(t, phis, 1)
	assert.Len(t, phis[0].Incoming, 2)
}

const callBetweenFunctions = `
func i32 @caller() {
%entry:
  %r = call i32 @callee, i32 7
  return i32 %r
}

func i32 @callee(i32) {
%entry:
  return i32 %0
}
`

func TestParseForwardCallToFunctionDeclaredLater(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(callBetweenFunctions, c)
	require.NoError(t, err)
	require.Empty(t, ir.Validate(m))

	caller := m.FindFunction("caller")
	require.NotNil(t, caller)
	call := caller.Blocks[0].Instructions[0]
	assert.Equal(t, "callee", call.Callee().Name())
}

const structType = `
struct @Point {i32, i32}

func @Point @origin() {
%entry:
  %p = alloca @Point
  %v = load @Point %p
  return @Point %v
}
`

func TestParseStructTypeRoundTrips(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(structType, c)
	require.NoError(t, err)
	require.Len(t, c.StructTypes(), 1)
	assert.Equal(t, "Point", c.StructTypes()[0].Name)

	printed := irtext.Print(m)

	c2 := ctx.New()
	_, err = irtext.Parse(printed, c2)
	require.NoError(t, err)
	require.Len(t, c2.StructTypes(), 1)
}

func TestParseSyntaxErrorIsReported(t *testing.T) {
	c := ctx.New()
	_, err := irtext.Parse(`func i32 @broken( {`, c)
	assert.Error(t, err)
}

const compareModes = `
func i1 @cmp3(i32, i32) {
%entry:
  %a = scmp lt i32 %0, i32 %1
  %b = ucmp lt i32 %0, i32 %1
  %c = fcmp eq i1 %a, i1 %b
  return i1 %c
}
`

func TestParseCompareModesRoundTrip(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(compareModes, c)
	require.NoError(t, err)
	require.Empty(t, ir.Validate(m))

	fn := m.FindFunction("cmp3")
	require.NotNil(t, fn)
	insts := fn.Blocks[0].Instructions
	assert.Equal(t, ir.Signed, insts[0].CompareMode)
	assert.Equal(t, ir.Unsigned, insts[1].CompareMode)
	assert.Equal(t, ir.Float, insts[2].CompareMode)

	printed := irtext.Print(m)
	assert.Contains(t, printed, "scmp lt")
	assert.Contains(t, printed, "ucmp lt")
	assert.Contains(t, printed, "fcmp eq")

	c2 := ctx.New()
	_, err = irtext.Parse(printed, c2)
	require.NoError(t, err)
}

const gepWithDynamicIndex = `
func ptr @index(ptr, i32) {
%entry:
  %p = gep ptr %0 [0], i32 %1
  return ptr %p
}
`

func TestParseGEPDynamicIndexRoundTrips(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(gepWithDynamicIndex, c)
	require.NoError(t, err)
	require.Empty(t, ir.Validate(m))

	fn := m.FindFunction("index")
	gep := fn.Blocks[0].Instructions[0]
	require.NotNil(t, gep.DynamicIndex())

	printed := irtext.Print(m)
	assert.Contains(t, printed, "gep ptr %0 [0], i32 %1")

	c2 := ctx.New()
	_, err = irtext.Parse(printed, c2)
	require.NoError(t, err)
}

const allocaWithCount = `
func ptr @arr(i32) {
%entry:
  %p = alloca i32, i32 %0
  return ptr %p
}
`

func TestParseAllocaCountRoundTrips(t *testing.T) {
	c := ctx.New()
	m, err := irtext.Parse(allocaWithCount, c)
	require.NoError(t, err)
	require.Empty(t, ir.Validate(m))

	fn := m.FindFunction("arr")
	alloca := fn.Blocks[0].Instructions[0]
	require.NotNil(t, alloca.Count())

	printed := irtext.Print(m)
	assert.Contains(t, printed, "alloca i32, i32 %0")

	c2 := ctx.New()
	_, err = irtext.Parse(printed, c2)
	require.NoError(t, err)
}
