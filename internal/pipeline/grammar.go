package pipeline

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the parse tree for spec.md §4.4's `pipeline := modulelist`
// production, before the implicit-foreach lowering in lower.go is
// applied.
type File struct {
	Pos     lexer.Position
	Modules []*moduleNode `@@ ("," @@)*`
}

// moduleNode is one `module := id [ "[" arglist "]" ] [ "(" fnlist ")" ]`
// production. A moduleNode with no Functions is syntactically
// indistinguishable from a bare fnNode; lower.go resolves the "implicit"
// alternative from the BNF by inspecting the whole top-level list.
type moduleNode struct {
	Pos       lexer.Position
	Name      string     `@Ident`
	Args      []*argNode `[ "[" @@ ("," @@)* "]" ]`
	Functions []*fnNode  `[ "(" @@ ("," @@)* ")" ]`
}

// fnNode is one `fn := id [ "[" arglist "]" ]` production.
type fnNode struct {
	Pos  lexer.Position
	Name string     `@Ident`
	Args []*argNode `[ "[" @@ ("," @@)* "]" ]`
}

// argNode is one `arg := id [ ":" value ]` production. A bare arg (no
// Value) binds its Key to true, per spec.md §4.4.
type argNode struct {
	Pos   lexer.Position
	Key   string      `@Ident`
	Value *valueToken `[ ":" @@ ]`
}

// valueToken is `value := id | number | string-literal`. Exactly one
// field is set depending on which alternative matched.
type valueToken struct {
	Pos    lexer.Position
	Ident  string `  @Ident`
	Number string `| @Number`
	Str    string `| @String`
}
