package pipeline

import "strings"

// Arg is one argument binding as written in the pipeline string, before
// a pass's declared argument kinds (Flag/Numeric/String/Enum,
// internal/passes) have interpreted Value's kind. A bare arg (Bare
// true, Value "") binds its Key to the boolean true per spec.md §4.4.
type Arg struct {
	Key   string
	Bare  bool
	Value string
}

// Node is one resolved pipeline-tree element: a ModulePass (Functions
// may be non-empty, scheduling FunctionPass/LoopPass invocations
// beneath it) or a bare pass reference at any level.
type Node struct {
	Name      string
	Args      []Arg
	Functions []*Node
}

func lowerArgs(args []*argNode) []Arg {
	out := make([]Arg, 0, len(args))
	for _, a := range args {
		if a.Value == nil {
			out = append(out, Arg{Key: a.Key, Bare: true})
			continue
		}
		out = append(out, Arg{Key: a.Key, Value: valueText(a.Value)})
	}
	return out
}

func valueText(v *valueToken) string {
	switch {
	case v.Ident != "":
		return v.Ident
	case v.Number != "":
		return v.Number
	default:
		return strings.Trim(v.Str, `'"`)
	}
}

func lowerFn(fn *fnNode) *Node {
	return &Node{Name: fn.Name, Args: lowerArgs(fn.Args)}
}

func lowerModule(m *moduleNode) *Node {
	n := &Node{Name: m.Name, Args: lowerArgs(m.Args)}
	for _, fn := range m.Functions {
		n.Functions = append(n.Functions, lowerFn(fn))
	}
	return n
}

// lower applies spec.md §4.4's `implicit := fnlist` rule: when every
// top-level module production in the file omits an explicit "(fnlist)"
// group, the whole top-level list is itself the implicit fnlist and is
// wrapped in a single synthetic "foreach" node, rather than treated as
// that many independent top-level module passes. A top-level list that
// mixes bare entries with at least one explicit "(fnlist)" group is
// left as written: the bare entries there are ordinary standalone
// top-level nodes, not part of an implicit list.
func lower(file *File) []*Node {
	allBare := true
	for _, m := range file.Modules {
		if len(m.Functions) > 0 {
			allBare = false
			break
		}
	}

	if allBare && len(file.Modules) > 0 {
		root := &Node{Name: "foreach"}
		for _, m := range file.Modules {
			root.Functions = append(root.Functions, &Node{Name: m.Name, Args: lowerArgs(m.Args)})
		}
		return []*Node{root}
	}

	nodes := make([]*Node, 0, len(file.Modules))
	for _, m := range file.Modules {
		nodes = append(nodes, lowerModule(m))
	}
	return nodes
}
