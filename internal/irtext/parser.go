// Package irtext implements the round-trip textual form of the IR
// described in spec.md §6.3: Parse turns source text into an ir.Module,
// Print turns an ir.Module back into that same text.
//
// Grounded on the original C++ recursive-descent parser's per-opcode
// dispatch (_examples/original_source/lib/IR/Parser/Parser.cc), reworked
// as a participle struct-tag grammar in the style of grammar/parser.go
// and internal/pipeline/parser.go, rather than a hand-rolled scanner.
package irtext

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

var textParser = participle.MustBuild[File](
	participle.Lexer(textLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(2),
)

// Parse parses src as a textual IR module and builds it against c.
func Parse(src string, c *ctx.Context) (*ir.Module, error) {
	file, err := textParser.ParseString("", src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return build(c, file)
}

func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("irtext: unexpected error: %s", err)
		return
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		color.Red("irtext: syntax error at unknown location: %s", err)
		return
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", pos.Column-1) + "^"

	color.Red("irtext: syntax error at line %d, column %d:", pos.Line, pos.Column)
	fmt.Println(line)
	color.HiRed(caret)
	fmt.Printf("→ %s\n", pe.Message())
}
