package irtext

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// textLexer tokenizes the textual IR grammar of spec.md §6.3. IntType
// and FloatType must be listed before Ident so "i32"/"f64" aren't
// swallowed by the generic identifier rule, mirroring grammar.KansoLexer's
// "order matters" comment for its own keyword/identifier split.
var textLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `;[^\n]*`, nil},
		{"IntType", `i[0-9]+`, nil},
		{"FloatType", `f[0-9]+`, nil},
		{"LocalID", `%[A-Za-z0-9_][A-Za-zA-Z0-9_.]*`, nil},
		{"GlobalID", `@[A-Za-z_][A-Za-zA-Z0-9_.]*`, nil},
		{"Ident", `[A-Za-z_][A-Za-zA-Z0-9_]*`, nil},
		{"Float", `-?[0-9]+\.[0-9]+`, nil},
		{"Int", `-?[0-9]+`, nil},
		{"Punct", `[{}()\[\],:=]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
