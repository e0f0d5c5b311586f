// Package passes implements the typed pass framework of spec.md §4.4:
// LoopPass/FunctionPass/ModulePass, argument maps, a process-wide
// name registry, and pipeline execution over the tree
// internal/pipeline parses.
//
// Grounded on the teacher's internal/ir/optimizations.go
// (OptimizationPass interface, OptimizationPipeline.Run's per-pass
// ✓/- reporting, generalized here into Stats) and
// tetratelabs/wazero's internal/engine/wazevo/ssa/pass.go (RunPasses'
// ordered, dependency-respecting pass sequencing style).
package passes

import (
	"scatha/internal/cfg"
	ctx "scatha/internal/context"
	"scatha/internal/ir"
)

// Kind discriminates the three pass signatures of spec.md §4.4.
type Kind int

const (
	ModuleKind Kind = iota
	FunctionKind
	LoopKind
)

// Pass is the metadata every pass kind shares: a registry name, a
// descriptive category, and its declared arguments.
type Pass interface {
	Name() string
	Category() Category
	Kind() Kind
	Arguments() *ArgumentMap
}

// LoopNode is the "LoopNode" parameter of a LoopPass invocation: one
// node of a function's loop-nesting forest, together with the function
// it belongs to so a pass can derive LoopInfo/InductionVariables on
// demand.
type LoopNode struct {
	Fn   *ir.Function
	Node *cfg.LNFNode
}

// Info computes this loop's LoopInfo. Panics if Node is not a proper
// loop header, matching cfg.ComputeLoopInfo's precondition.
func (n *LoopNode) Info() *cfg.LoopInfo { return cfg.ComputeLoopInfo(n.Fn, n.Node) }

// LoopPass runs once per proper loop header of a function's
// loop-nesting forest, visited in post-order (innermost loops first);
// forest nodes that are not loop headers are skipped.
type LoopPass interface {
	Pass
	Run(c *ctx.Context, node *LoopNode, args *ArgumentMap) bool
}

// FunctionPass runs once per function. It may schedule a LoopPass over
// the function's loop-nesting forest by calling sched.Run itself, or
// ignore sched if it has no use for one.
type FunctionPass interface {
	Pass
	Run(c *ctx.Context, fn *ir.Function, sched LoopPass, args *ArgumentMap) bool
}

// ModulePass runs once per module. It may schedule a FunctionPass over
// the module's functions by calling sched.Run itself, or ignore sched.
type ModulePass interface {
	Pass
	Run(c *ctx.Context, m *ir.Module, sched FunctionPass, args *ArgumentMap) bool
}

// RunLoopPassPostOrder is the standard way a FunctionPass schedules a
// LoopPass: visit fn's loop-nesting forest in post-order (the order
// LoopPass is specified to run in) and invoke lp on every proper loop
// header.
func RunLoopPassPostOrder(c *ctx.Context, fn *ir.Function, lp LoopPass, args *ArgumentMap) bool {
	if lp == nil {
		return false
	}
	forest := cfg.LoopForest(fn)
	modified := false

	var postorder []*cfg.LNFNode
	var walk func(n *cfg.LNFNode)
	walk = func(n *cfg.LNFNode) {
		for _, child := range n.Children() {
			walk(child)
		}
		postorder = append(postorder, n)
	}
	for _, r := range forest.Roots() {
		walk(r)
	}

	for _, n := range postorder {
		if !n.IsProperLoop() {
			continue
		}
		if lp.Run(c, &LoopNode{Fn: fn, Node: n}, args) {
			modified = true
		}
	}
	return modified
}

// RunFunctionPassOverModule is the standard way a ModulePass schedules
// a FunctionPass: run fp over every function the module defines, in
// declaration order.
func RunFunctionPassOverModule(c *ctx.Context, m *ir.Module, fp FunctionPass, sched LoopPass, args *ArgumentMap) bool {
	if fp == nil {
		return false
	}
	modified := false
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		if fp.Run(c, fn, sched, args) {
			modified = true
		}
	}
	return modified
}
