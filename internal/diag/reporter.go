package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders Diagnostics against one source text with Rust-like
// styling: a colored header, a "-->" location line, a line or two of
// context, a caret marker, and any suggestions/notes/help text.
//
// Grounded on internal/errors.ErrorReporter/FormatError, generalized
// from ast.Position to diag.Position and from a single CompilerError
// shape to Diagnostics that may instead carry a Value (no source
// position at all, for InvariantViolation diagnostics).
type Reporter struct {
	filename string
	lines    []string
}

// NewReporter builds a Reporter over one named source text (pipeline
// DSL or textual IR).
func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders d. A Diagnostic carrying a Value instead of a source
// Position (Kind == InvariantViolation) is rendered as a plain
// one-line report, since there is no source text to point a caret at.
func (r *Reporter) Format(d *Diagnostic) string {
	if d.Value != nil {
		return fmt.Sprintf("%s[%s]: %s: %s\n", r.levelColor(d.Level)(string(d.Level)), d.Code, d.Message, d.Value.String())
	}

	var out strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	levelColor := r.levelColor(d.Level)

	if d.Code != "" {
		fmt.Fprintf(&out, "%s[%s]: %s\n", levelColor(string(d.Level)), d.Code, d.Message)
	} else {
		fmt.Fprintf(&out, "%s: %s\n", levelColor(string(d.Level)), d.Message)
	}

	width := r.lineNumberWidth(d.Position.Line)
	indent := strings.Repeat(" ", width)

	fmt.Fprintf(&out, "%s %s %s:%d:%d\n", indent, dim("-->"), r.filename, d.Position.Line, d.Position.Column)
	fmt.Fprintf(&out, "%s %s\n", indent, dim("│"))

	if d.Position.Line > 1 && d.Position.Line-1 < len(r.lines) {
		fmt.Fprintf(&out, "%s %s %s\n", dim(fmt.Sprintf("%*d", width, d.Position.Line-1)), dim("│"), r.lines[d.Position.Line-2])
	}

	if d.Position.Line > 0 && d.Position.Line <= len(r.lines) {
		fmt.Fprintf(&out, "%s %s %s\n", bold(fmt.Sprintf("%*d", width, d.Position.Line)), dim("│"), r.lines[d.Position.Line-1])
		marker := r.marker(d.Position.Column, d.Length, d.Level)
		fmt.Fprintf(&out, "%s %s %s\n", indent, dim("│"), marker)
	}

	if d.Position.Line < len(r.lines) {
		fmt.Fprintf(&out, "%s %s %s\n", dim(fmt.Sprintf("%*d", width, d.Position.Line+1)), dim("│"), r.lines[d.Position.Line])
	}

	if len(d.Suggestions) > 0 {
		fmt.Fprintf(&out, "%s %s\n", indent, dim("│"))
		suggestionColor := color.New(color.FgCyan).SprintFunc()
		for i, s := range d.Suggestions {
			if i == 0 {
				fmt.Fprintf(&out, "%s %s %s: %s\n", indent, suggestionColor("help"), suggestionColor("try"), s.Message)
			} else {
				fmt.Fprintf(&out, "%s %s %s\n", indent, suggestionColor("    "), s.Message)
			}
			if s.Replacement != "" {
				fmt.Fprintf(&out, "%s %s\n", indent, dim("│"))
				replacement := strings.ReplaceAll(s.Replacement, "\n", fmt.Sprintf("\n%s %s ", indent, dim("│")))
				fmt.Fprintf(&out, "%s %s %s\n", indent, suggestionColor("│"), suggestionColor(replacement))
			}
		}
	}

	for _, note := range d.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		fmt.Fprintf(&out, "%s %s %s %s\n", indent, dim("│"), noteColor("note:"), note)
	}

	if d.HelpText != "" {
		helpColor := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(&out, "%s %s %s %s\n", indent, dim("│"), helpColor("help:"), d.HelpText)
	}

	out.WriteString("\n")
	return out.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case LevelError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case LevelWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case LevelNote:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case LevelHelp:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func (r *Reporter) marker(column, length int, level Level) string {
	if length <= 0 {
		length = 1
	}
	spaces := strings.Repeat(" ", maxInt(0, column-1))

	markerColor := color.New(color.FgRed, color.Bold).SprintFunc()
	if level == LevelWarning {
		markerColor = color.New(color.FgYellow, color.Bold).SprintFunc()
	}
	return spaces + markerColor(strings.Repeat("^", length))
}

func (r *Reporter) lineNumberWidth(line int) int {
	width := len(fmt.Sprintf("%d", line))
	if width < 3 {
		width = 3
	}
	return width
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
