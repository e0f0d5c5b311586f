package irls

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// wholeFirstLine is the fallback range for a diagnostic with no more
// precise source position available (an ir.Validate finding names a
// function/block, not a line/column).
var wholeFirstLine = protocol.Range{
	Start: protocol.Position{Line: 0, Character: 0},
	End:   protocol.Position{Line: 0, Character: 1},
}

// ConvertParseError turns the error irtext.Parse returns on a syntax
// failure into an LSP diagnostic list, the way
// internal/lsp/diagnostics.go's ConvertParseErrors does for Kanso
// source, generalized from a parser.ParseError slice to the single
// participle.Error irtext.Parse surfaces.
func ConvertParseError(err error) []protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    wholeFirstLine,
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("scatha-irls"),
			Message:  err.Error(),
		}}
	}

	pos := pe.Position()
	line := uint32(0)
	if pos.Line > 0 {
		line = uint32(pos.Line - 1)
	}
	col := uint32(0)
	if pos.Column > 0 {
		col = uint32(pos.Column - 1)
	}

	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + 1},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("scatha-irls"),
		Message:  pe.Message(),
	}}
}
