// Package diag implements the three-kind error taxonomy of spec §7:
// invariant violation (a fatal trap carrying the offending Value and a
// location), malformed input (a structured error with a source
// position, returned rather than raised), and unknown pass/argument
// (the outcome passes.ArgumentMap.matchArgument already reports as a
// MatchResult; diag gives that outcome a Diagnostic to be printed
// through). Diagnostic formatting follows the teacher's
// internal/errors package: a Rust-like, colorized terminal report
// built on fatih/color.
//
// Grounded on internal/errors/reporter.go and internal/errors/codes.go.
package diag

import "fmt"

// Level is the severity at which a Diagnostic is surfaced.
type Level string

const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelNote    Level = "note"
	LevelHelp    Level = "help"
)

// Kind discriminates the three error categories of spec §7.
type Kind int

const (
	// InvariantViolation is internal IR corruption found after
	// ir.Validate has already passed: a bug in a transformation, not in
	// the input. Surfaced by Trap/Recover, never returned as an error.
	InvariantViolation Kind = iota
	// MalformedInput is caller-supplied IR text, pipeline text, or an
	// IR graph that fails to parse or fails ir.Validate. Surfaced as a
	// returned error with a source position or an offending Value.
	MalformedInput
	// UnknownPassArgument is a pipeline referring to an unregistered
	// pass name, or binding an argument a pass does not declare.
	UnknownPassArgument
)

func (k Kind) String() string {
	switch k {
	case InvariantViolation:
		return "invariant violation"
	case MalformedInput:
		return "malformed input"
	case UnknownPassArgument:
		return "unknown pass/argument"
	default:
		return "unknown diagnostic kind"
	}
}

// Position locates a Diagnostic within source text (pipeline DSL or
// textual IR). Line and Column are 1-based; Column 0 means "the whole
// line", matching ast.Position's convention.
type Position struct {
	Filename string
	Offset   int
	Line     int
	Column   int
}

// Suggestion is one proposed fix attached to a Diagnostic, rendered by
// Reporter.Format as its own colored line beneath the main report.
type Suggestion struct {
	Message     string
	Replacement string
	Position    Position
	Length      int
}

// Diagnostic is one reported problem: a level, a taxonomy Kind, a
// stable Code (see codes.go), a message, and, depending on Kind,
// either a source Position (malformed input) or a Value naming the
// offending IR (invariant violation).
type Diagnostic struct {
	Level   Level
	Kind    Kind
	Code    string
	Message string

	Position Position
	Length   int

	// Value names the offending IR for an InvariantViolation. It has
	// no source position to point at (a transformation built it, no
	// parser saw it): whatever String()s usefully, e.g. an
	// *ir.Instruction or *ir.BasicBlock. Left nil for text-sourced
	// diagnostics.
	Value fmt.Stringer

	Suggestions []Suggestion
	Notes       []string
	HelpText    string
}

func (d *Diagnostic) Error() string {
	switch {
	case d.Value != nil:
		return fmt.Sprintf("%s[%s]: %s: %s", d.Level, d.Code, d.Message, d.Value.String())
	case d.Position.Line > 0:
		return fmt.Sprintf("%s[%s]: %s:%d:%d: %s", d.Level, d.Code, d.Position.Filename, d.Position.Line, d.Position.Column, d.Message)
	default:
		return fmt.Sprintf("%s[%s]: %s", d.Level, d.Code, d.Message)
	}
}

// New builds a bare Diagnostic. Callers fill in Position or Value and
// any Suggestions/Notes/HelpText afterward.
func New(level Level, kind Kind, code, message string) *Diagnostic {
	return &Diagnostic{Level: level, Kind: kind, Code: code, Message: message}
}

// AtPosition attaches a source position (malformed-input diagnostics)
// and returns d for chaining.
func (d *Diagnostic) AtPosition(pos Position, length int) *Diagnostic {
	d.Position = pos
	d.Length = length
	return d
}

// AtValue attaches an offending IR value (invariant-violation
// diagnostics) and returns d for chaining.
func (d *Diagnostic) AtValue(v fmt.Stringer) *Diagnostic {
	d.Value = v
	return d
}

// WithNote appends a note and returns d for chaining.
func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// WithSuggestion appends a suggestion and returns d for chaining.
func (d *Diagnostic) WithSuggestion(s Suggestion) *Diagnostic {
	d.Suggestions = append(d.Suggestions, s)
	return d
}
