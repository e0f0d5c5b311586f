package diag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scatha/internal/diag"
)

func TestReporterFormatIncludesHeaderAndLocation(t *testing.T) {
	source := "func i32 @add(i32, i32) {\n%entry:\n  %p = alocaa i32\n}\n"
	r := diag.NewReporter("ir.txt", source)

	d := diag.New(diag.LevelError, diag.MalformedInput, diag.CodeIRTextSyntax, `unexpected token "alocaa"`).
		AtPosition(diag.Position{Filename: "ir.txt", Line: 3, Column: 9}, 6).
		WithSuggestion(diag.Suggestion{Message: "did you mean 'alloca'?"})

	formatted := r.Format(d)

	assert.Contains(t, formatted, "error["+diag.CodeIRTextSyntax+"]")
	assert.Contains(t, formatted, `unexpected token "alocaa"`)
	assert.Contains(t, formatted, "ir.txt:3:9")
	assert.Contains(t, formatted, "did you mean 'alloca'?")
}

func TestReporterFormatWithoutPositionUsesValue(t *testing.T) {
	r := diag.NewReporter("<ir>", "")
	d := diag.New(diag.LevelError, diag.InvariantViolation, diag.CodeMissingTerminator, "block has no terminator").
		AtValue(stringerFunc("bb2"))

	formatted := r.Format(d)
	assert.Contains(t, formatted, "error["+diag.CodeMissingTerminator+"]")
	assert.Contains(t, formatted, "bb2")
}

type stringerFunc string

func (s stringerFunc) String() string { return string(s) }

func TestTrapAndRecoverRoundTrips(t *testing.T) {
	d, ok := recoverFrom(func() {
		diag.Trapf(diag.CodePhiArityMismatch, stringerFunc("%v"), "phi expects %d incoming edges, got %d", 2, 1)
	})
	assert.True(t, ok)
	assert.Equal(t, diag.InvariantViolation, d.Kind)
	assert.Equal(t, diag.CodePhiArityMismatch, d.Code)
	assert.Contains(t, d.Message, "expects 2 incoming edges, got 1")
}

func TestRecoverRepanicsUnrelatedPanics(t *testing.T) {
	assert.Panics(t, func() {
		defer diag.Recover()
		panic("not a trap")
	})
}

func recoverFrom(f func()) (d *diag.Diagnostic, ok bool) {
	defer func() {
		d, ok = diag.Recover()
	}()
	f()
	return
}

func TestIsWarningAndCategory(t *testing.T) {
	assert.False(t, diag.IsWarning(diag.CodeMissingTerminator))
	assert.True(t, diag.IsWarning(diag.WarningUnusedArgument))
	assert.Equal(t, "Invariant Violation", diag.Category(diag.CodeMissingTerminator))
	assert.Equal(t, "Pass Registry", diag.Category(diag.CodeUnknownPass))
	assert.Equal(t, "Warning", diag.Category(diag.WarningUnusedArgument))
}
