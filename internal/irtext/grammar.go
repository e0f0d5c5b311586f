package irtext

import "github.com/alecthomas/participle/v2/lexer"

// File is the parse tree for one textual IR module (spec.md §6.3): a
// sequence of struct and function declarations.
type File struct {
	Pos       lexer.Position
	Structs   []*structDecl `@@*`
	Functions []*funcDecl   `@@*`
}

type structDecl struct {
	Pos     lexer.Position
	Name    string     `"struct" @GlobalID "{"`
	Members []*typeRef `( @@ ("," @@)* )? "}"`
}

type funcDecl struct {
	Pos    lexer.Position
	Ret    *typeRef     `"func" @@`
	Name   string       `@GlobalID "("`
	Params []*typeRef   `( @@ ("," @@)* )? ")"`
	Blocks []*blockDecl `"{" @@* "}"`
}

type blockDecl struct {
	Pos   lexer.Position
	Label string      `@LocalID ":"`
	Insts []*instDecl `@@*`
}

// typeRef is `iN | fN | ptr | void | [T, N] | @StructName`.
type typeRef struct {
	Pos    lexer.Position
	Int    string     `(  @IntType`
	Flt    string     ` | @FloatType`
	Ptr    bool       ` | @"ptr"`
	Void   bool       ` | @"void"`
	Struct string     ` | @GlobalID`
	Array  *arrayType ` | @@ )`
}

type arrayType struct {
	Pos   lexer.Position
	Elem  *typeRef `"[" @@ ","`
	Count string   `@Int "]"`
}

// idRef is a bare local or global identifier, used where a value's type
// is already implied by context (pointer operands are always ptr).
type idRef struct {
	Pos    lexer.Position
	Local  string `(  @LocalID`
	Global string ` | @GlobalID )`
}

// valueRef is any operand value without its type prefix: a reference or
// a literal/keyword constant.
type valueRef struct {
	Pos    lexer.Position
	Local  string `(  @LocalID`
	Global string ` | @GlobalID`
	Int    string ` | @Int`
	Float  string ` | @Float`
	Null   bool   ` | @"null"`
	Undef  bool   ` | @"undef" )`
}

// typedValue is `<type> <value>`, the standard shape for an operand
// whose type isn't otherwise implied.
type typedValue struct {
	Pos  lexer.Position
	Type *typeRef  `@@`
	Val  *valueRef `@@`
}

// phiArg is `"[" "label" %bb ":" <value> "]"` (spec.md §6.3).
type phiArg struct {
	Pos   lexer.Position
	Block string    `"[" "label" @LocalID ":"`
	Value *valueRef `@@ "]"`
}

type instDecl struct {
	Pos     lexer.Position
	Name    string        `[ @LocalID "=" ]`
	Alloca  *allocaInst   `(  @@`
	Load    *loadInst     ` | @@`
	Store   *storeInst    ` | @@`
	Unary   *unaryInst    ` | @@`
	Binary  *binaryInst   ` | @@`
	Cmp     *cmpInst      ` | @@`
	Conv    *convInst     ` | @@`
	Gep     *gepInst      ` | @@`
	Extract *extractInst  ` | @@`
	Insert  *insertInst   ` | @@`
	Select  *selectInst   ` | @@`
	Call    *callInst     ` | @@`
	Phi     *phiInst      ` | @@`
	Goto    *gotoInst     ` | @@`
	Branch  *branchInst   ` | @@`
	Return  *returnInst   ` | @@ )`
}

type allocaInst struct {
	Pos   lexer.Position
	Type  *typeRef    `"alloca" @@`
	Count *typedValue `( "," @@ )?`
}

type loadInst struct {
	Pos  lexer.Position
	Type *typeRef `"load" @@`
	Ptr  *idRef   `@@`
}

type storeInst struct {
	Pos lexer.Position
	Val *typedValue `"store" @@ ","`
	Ptr *idRef      `@@`
}

type unaryInst struct {
	Pos  lexer.Position
	Op   string   `@( "neg" | "bnot" | "lnot" )`
	Type *typeRef `@@`
	Val  *valueRef `@@`
}

type binaryInst struct {
	Pos lexer.Position
	Op  string `@( "add" | "sub" | "mul"
		| "sdiv" | "udiv" | "srem" | "urem"
		| "fadd" | "fsub" | "fmul" | "fdiv" | "frem"
		| "and" | "or" | "xor"
		| "lshl" | "lshr" | "ashl" | "ashr" )`
	Type *typeRef  `@@`
	LHS  *valueRef `@@ ","`
	RHS  *valueRef `@@`
}

// cmpInst's mode keyword ("scmp"/"ucmp"/"fcmp") disambiguates
// signed/unsigned/float comparison the way spec.md §3's Compare mode
// requires: lt/le/gt/ge alone cannot round-trip that distinction.
type cmpInst struct {
	Pos  lexer.Position
	Mode string      `@( "scmp" | "ucmp" | "fcmp" )`
	Op   string      `@( "eq" | "ne" | "lt" | "le" | "gt" | "ge" )`
	LHS  *typedValue `@@ ","`
	RHS  *typedValue `@@`
}

type convInst struct {
	Pos    lexer.Position
	Op     string      `@( "zext" | "sext" | "trunc" | "ftoi" | "itof" | "bitcast" )`
	Target *typeRef    `@@`
	Src    *typedValue `@@`
}

type gepInst struct {
	Pos     lexer.Position
	Base    *typedValue `"gep" @@`
	Indices []string    `"[" @Int ("," @Int)* "]"`
	Dynamic *typedValue `( "," @@ )?`
}

type extractInst struct {
	Pos     lexer.Position
	Type    *typeRef    `"extractvalue" @@`
	Agg     *typedValue `@@`
	Indices []string    `"[" @Int ("," @Int)* "]"`
}

type insertInst struct {
	Pos     lexer.Position
	Agg     *typedValue `"insertvalue" @@ ","`
	Elem    *typedValue `@@`
	Indices []string    `"[" @Int ("," @Int)* "]"`
}

type selectInst struct {
	Pos     lexer.Position
	Cond    *typedValue `"select" @@ ","`
	IfTrue  *typedValue `@@ ","`
	IfFalse *valueRef   `@@`
}

type callInst struct {
	Pos     lexer.Position
	Ret     *typeRef      `"call" @@`
	Callee  string        `@GlobalID`
	Args    []*typedValue `("," @@)*`
}

type phiInst struct {
	Pos  lexer.Position
	Type *typeRef  `"phi" @@`
	Args []*phiArg `@@ ("," @@)*`
}

type gotoInst struct {
	Pos    lexer.Position
	Target string `"goto" "label" @LocalID`
}

type branchInst struct {
	Pos     lexer.Position
	Cond    *typedValue `"branch" @@ ","`
	IfTrue  string      `"label" @LocalID ","`
	IfFalse string      `"label" @LocalID`
}

type returnInst struct {
	Pos lexer.Position
	Val *typedValue `"return" [ @@ ]`
}
