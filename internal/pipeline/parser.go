// Package pipeline parses the pass-pipeline DSL of spec.md §4.4 (the
// comma-separated, optionally-nested pass list a host passes to select
// which passes run, e.g. "mem2reg, simplifycfg[aggressive]") into a
// typed tree that internal/passes walks to drive execution.
//
// Grounded on grammar/parser.go and grammar/shared.go's participle
// struct-tag style, reused here for a second, independent grammar
// rather than swapped out for a hand-rolled parser.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"
)

var pipelineParser = participle.MustBuild[File](
	participle.Lexer(pipelineLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses src and returns the lowered pipeline tree (see lower.go
// for the implicit-foreach rule).
func Parse(src string) ([]*Node, error) {
	file, err := pipelineParser.ParseString("", src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return lower(file), nil
}

// reportParseError prints a caret-style parse error, matching
// grammar.reportParseError's format.
func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("pipeline: unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("pipeline: syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("pipeline: syntax error at line %d, column %d:", pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
