package pipeline

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// pipelineLexer tokenizes the pass-pipeline DSL (spec.md §4.4): identifiers
// naming passes and flag keys, numeric and string literal argument values,
// and the punctuation that groups arguments and per-function sub-lists.
// Mirrors the structure of grammar.KansoLexer, built for a much smaller
// token set.
var pipelineLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"String", `'[^']*'|"[^"]*"`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_-]*`, nil},
		{"Number", `[0-9]+`, nil},
		{"Punct", `[,:\[\]()]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
