package diag

// Diagnostic codes for the middle-end toolchain. Codes are used in
// messages and documentation to give consistent error identification
// across cmd/scatha-ir and cmd/scatha-irls.
//
// Code ranges:
// D0001-D0099: Invariant violations (IR structural corruption)
// D0100-D0199: Malformed textual IR (internal/irtext)
// D0200-D0299: Malformed pipeline text (internal/pipeline)
// D0300-D0399: Unknown pass / argument errors (internal/passes)
// D0400-D0499: SSA construction errors (internal/promote)
// W0001-W0999: Warning codes (W prefix, see IsWarning)
// D0900-D0999: Reserved for tooling errors

const (
	// D0001: a block has no terminator, or has one before its end.
	CodeMissingTerminator = "D0001"

	// D0002: a phi's incoming-edge count does not match its block's
	// predecessor count.
	CodePhiArityMismatch = "D0002"

	// D0003: the use/def graph is inconsistent (an operand's user list
	// does not mention the instruction using it, or vice versa).
	CodeUseListInconsistent = "D0003"

	// D0004: an instruction refers to a value from another function.
	CodeCrossFunctionValue = "D0004"

	// D0005: a non-terminator instruction was found after a block's
	// terminator.
	CodeInstructionAfterTerminator = "D0005"

	// D0006: a pass left the module failing validation. Distinct from
	// the other D00xx codes in that it is raised by the pipeline
	// executor around a pass application rather than by ir.Validate
	// itself: the specific invariant broken is still one of D0001-D0005,
	// but the fact that it appeared only after a pass ran (not in the
	// input) is itself the diagnosis.
	CodeTransformationCorruption = "D0006"

	// D0100: textual IR failed to parse.
	CodeIRTextSyntax = "D0100"

	// D0101: textual IR parsed but named an undeclared block, function,
	// or value.
	CodeIRTextUnresolvedReference = "D0101"

	// D0102: textual IR declared the same block label, or the same
	// struct name with different members, twice.
	CodeIRTextDuplicateDeclaration = "D0102"

	// D0200: pipeline text failed to parse.
	CodePipelineSyntax = "D0200"

	// D0300: a pipeline node names a pass not present in the registry.
	CodeUnknownPass = "D0300"

	// D0301: a pipeline node binds an argument key a pass does not
	// declare.
	CodeUnknownArgument = "D0301"

	// D0302: a pipeline node binds an argument to a value that does not
	// match its declared kind (not a bool, not a number, not a member
	// of its enum).
	CodeBadArgumentValue = "D0302"

	// D0303: a pass is registered under a Kind that cannot legally
	// appear where a pipeline node placed it (e.g. a ModulePass listed
	// inside a module pass's function-list group), or implements no
	// known pass kind at all.
	CodeWrongPassKind = "D0303"

	// D0400: alloca promotion found a use of an address-taken alloca it
	// cannot eliminate (escapes to a call, is stored through a GEP,
	// etc.) — not an error, reported only as a Note in verbose mode.
	CodeAllocaNotPromotable = "D0400"

	// W0001: a pipeline argument was bound but never read by the pass
	// it was bound to.
	WarningUnusedArgument = "W0001"
)

// Description returns a human-readable description of a diagnostic
// code.
func Description(code string) string {
	switch code {
	case CodeMissingTerminator:
		return "block is missing a terminator, or has one before its last instruction"
	case CodePhiArityMismatch:
		return "phi incoming-edge count does not match the block's predecessor count"
	case CodeUseListInconsistent:
		return "operand/user graph is not bidirectionally consistent"
	case CodeCrossFunctionValue:
		return "instruction operand belongs to a different function"
	case CodeInstructionAfterTerminator:
		return "instruction follows a block's terminator"
	case CodeIRTextSyntax:
		return "textual IR does not match the grammar"
	case CodeIRTextUnresolvedReference:
		return "textual IR refers to an undeclared block, function, or value"
	case CodeIRTextDuplicateDeclaration:
		return "textual IR declares the same name twice"
	case CodePipelineSyntax:
		return "pipeline text does not match the grammar"
	case CodeUnknownPass:
		return "pass is not present in the registry"
	case CodeUnknownArgument:
		return "argument key is not declared by this pass"
	case CodeBadArgumentValue:
		return "argument value does not match its declared kind"
	case CodeWrongPassKind:
		return "pass kind cannot appear in this position of the pipeline"
	case CodeAllocaNotPromotable:
		return "alloca could not be promoted to SSA values"
	case WarningUnusedArgument:
		return "argument was bound but never read"
	default:
		return "unknown diagnostic code"
	}
}

// IsWarning reports whether code names a warning rather than an error.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}

// Category returns the broad area a diagnostic code belongs to.
func Category(code string) string {
	switch {
	case code >= "D0001" && code < "D0100":
		return "Invariant Violation"
	case code >= "D0100" && code < "D0200":
		return "Textual IR"
	case code >= "D0200" && code < "D0300":
		return "Pipeline"
	case code >= "D0300" && code < "D0400":
		return "Pass Registry"
	case code >= "D0400" && code < "D0500":
		return "SSA Construction"
	case code >= "D0800" && code < "D0900":
		return "Warning"
	case IsWarning(code):
		return "Warning"
	default:
		return "Unknown"
	}
}
