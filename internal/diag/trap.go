package diag

import "fmt"

// trapPayload wraps a Diagnostic inside the panic value Trap raises,
// so Recover can tell an intentional trap apart from an unrelated
// panic (a nil dereference, an out-of-bounds index) that should keep
// propagating rather than be swallowed as a diagnostic.
//
// Grounded on the panic/recover-based error-exit pattern used
// throughout this corpus's own hand-written recursive-descent parsers
// (a panic deep in the call stack, caught once at a single boundary
// function, rather than threaded back up through every return value).
type trapPayload struct {
	d *Diagnostic
}

// Trap panics with d, to be caught by Recover at a host boundary
// (cmd/scatha-ir's pass-pipeline runner). It is reserved for InvariantViolation diagnostics: the
// policy of spec §7 is that the core recovers from nothing internally
// and traps instead, since by the time an invariant violation is
// noticed (after ir.Validate has already passed) there is no longer a
// caller-facing contract to report a value to.
func Trap(d *Diagnostic) {
	d.Level = LevelError
	d.Kind = InvariantViolation
	panic(trapPayload{d: d})
}

// Trapf builds an InvariantViolation Diagnostic naming the offending
// value and traps with it.
func Trapf(code string, value fmt.Stringer, format string, args ...any) {
	Trap(&Diagnostic{
		Level:   LevelError,
		Kind:    InvariantViolation,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	})
}

// Recover must be called directly inside a deferred function at a
// trap boundary. It reports whether the panic being unwound is a Trap:
// if so it returns the Diagnostic and swallows the panic; if the
// recovered value is anything else, Recover re-panics with it
// unchanged, since Recover's contract is to catch only this taxonomy's
// own traps.
//
//	defer func() {
//	    if d, ok := diag.Recover(); ok {
//	        reportAndExit(d)
//	    }
//	}()
func Recover() (d *Diagnostic, ok bool) {
	r := recover()
	if r == nil {
		return nil, false
	}
	tp, isTrap := r.(trapPayload)
	if !isTrap {
		panic(r)
	}
	return tp.d, true
}
