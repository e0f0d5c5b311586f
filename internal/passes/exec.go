package passes

import (
	"errors"
	"fmt"

	ctx "scatha/internal/context"
	"scatha/internal/diag"
	"scatha/internal/ir"
	"scatha/internal/pipeline"
)

// Stats summarizes one pipeline run, in the spirit of the teacher's
// OptimizationPipeline.Run printing a ✓/- line per pass.
type Stats struct {
	PassesRun     int
	ModifiedCount int
}

// Options configures pipeline execution.
type Options struct {
	// ValidateAfterEachPass re-runs ir.Validate on the module after
	// every pass application, surfacing invariant regressions at the
	// pass boundary rather than only at module exit.
	ValidateAfterEachPass bool
}

// RunPipeline walks nodes (as produced by pipeline.Parse) and executes
// each against m, in order. Pipeline execution never short-circuits: a
// pass that returns false simply means "no change", not "stop", and no
// argument or option makes the executor stop early.
func RunPipeline(c *ctx.Context, m *ir.Module, nodes []*pipeline.Node, opts Options) (Stats, error) {
	e := &executor{ctx: c, module: m, opts: opts}
	for _, n := range nodes {
		e.execTop(n)
	}
	if len(e.errs) > 0 {
		return e.stats, errors.Join(e.errs...)
	}
	return e.stats, nil
}

type executor struct {
	ctx    *ctx.Context
	module *ir.Module
	opts   Options
	stats  Stats
	errs   []error
}

// record tallies one pass application and, if requested, re-validates
// the module immediately afterward. A failure here is not reported
// like an ordinary pipeline error: per ir.Validate's own contract, a
// violation found after validation has already passed once indicates a
// bug in the pass that just ran, not in the input, so it traps instead
// of accumulating onto e.errs.
func (e *executor) record(modified bool) {
	e.stats.PassesRun++
	if modified {
		e.stats.ModifiedCount++
	}
	if e.opts.ValidateAfterEachPass {
		if verrs := ir.Validate(e.module); len(verrs) > 0 {
			diag.Trapf(diag.CodeTransformationCorruption, nil,
				"pass left the module invalid: %s", errors.Join(verrs...))
		}
	}
}

func (e *executor) bind(args *ArgumentMap, raw []pipeline.Arg, passName string) {
	for _, a := range raw {
		switch args.matchArgument(a.Key, a.Bare, a.Value) {
		case UnknownArgument:
			e.errs = append(e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeUnknownArgument,
				fmt.Sprintf("%s: unknown argument %q", passName, a.Key)))
		case BadValue:
			e.errs = append(e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeBadArgumentValue,
				fmt.Sprintf("%s: bad value for argument %q", passName, a.Key)))
		}
	}
}

// execTop executes one top-level pipeline.Node against the module.
func (e *executor) execTop(node *pipeline.Node) {
	if node.Name == "foreach" {
		for _, child := range node.Functions {
			e.execForEachChild(child)
		}
		return
	}

	p, ok := Lookup(node.Name)
	if !ok {
		e.errs = append(e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeUnknownPass,
			fmt.Sprintf("unknown pass %q", node.Name)))
		return
	}

	switch pk := p.(type) {
	case ModulePass:
		args := pk.Arguments().Clone()
		e.bind(args, node.Args, node.Name)
		var sched FunctionPass
		if len(node.Functions) > 0 {
			sched = &compositeFunctionPass{e: e, children: node.Functions}
		}
		e.record(pk.Run(e.ctx, e.module, sched, args))

	case FunctionPass:
		args := pk.Arguments().Clone()
		e.bind(args, node.Args, node.Name)
		e.record(RunFunctionPassOverModule(e.ctx, e.module, pk, nil, args))

	case LoopPass:
		args := pk.Arguments().Clone()
		e.bind(args, node.Args, node.Name)
		modified := false
		for _, fn := range e.module.Functions {
			if fn.IsDeclaration() {
				continue
			}
			if RunLoopPassPostOrder(e.ctx, fn, pk, args) {
				modified = true
			}
		}
		e.record(modified)

	default:
		e.errs = append(e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeWrongPassKind,
			fmt.Sprintf("%q is registered but implements no known pass kind", node.Name)))
	}
}

// execForEachChild handles one pass reference inside an implicit
// foreach list: it runs over every function in the module directly
// (as a FunctionPass) or over every loop in every function (as a
// LoopPass).
func (e *executor) execForEachChild(child *pipeline.Node) {
	p, ok := Lookup(child.Name)
	if !ok {
		e.errs = append(e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeUnknownPass,
			fmt.Sprintf("unknown pass %q", child.Name)))
		return
	}
	args := p.Arguments().Clone()
	e.bind(args, child.Args, child.Name)

	switch pk := p.(type) {
	case FunctionPass:
		e.record(RunFunctionPassOverModule(e.ctx, e.module, pk, nil, args))
	case LoopPass:
		modified := false
		for _, fn := range e.module.Functions {
			if fn.IsDeclaration() {
				continue
			}
			if RunLoopPassPostOrder(e.ctx, fn, pk, args) {
				modified = true
			}
		}
		e.record(modified)
	case ModulePass:
		e.record(pk.Run(e.ctx, e.module, nil, args))
	}
}

// compositeFunctionPass is the FunctionPass a ModulePass node's
// "(fnlist)" group lowers to: scheduled once per function by the
// module pass it belongs to, it in turn runs each listed child pass
// (FunctionPass directly, or LoopPass over that function's loop-nesting
// forest) against that one function.
type compositeFunctionPass struct {
	e        *executor
	children []*pipeline.Node
}

func (c *compositeFunctionPass) Name() string        { return "<scheduled-function-list>" }
func (c *compositeFunctionPass) Category() Category   { return Schedule }
func (c *compositeFunctionPass) Kind() Kind           { return FunctionKind }
func (c *compositeFunctionPass) Arguments() *ArgumentMap { return NewArgumentMap(nil) }

func (c *compositeFunctionPass) Run(ctxArg *ctx.Context, fn *ir.Function, _ LoopPass, _ *ArgumentMap) bool {
	modified := false
	for _, child := range c.children {
		p, ok := Lookup(child.Name)
		if !ok {
			c.e.errs = append(c.e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeUnknownPass,
				fmt.Sprintf("unknown pass %q", child.Name)))
			continue
		}
		args := p.Arguments().Clone()
		c.e.bind(args, child.Args, child.Name)

		switch pk := p.(type) {
		case FunctionPass:
			if pk.Run(ctxArg, fn, nil, args) {
				modified = true
			}
		case LoopPass:
			if RunLoopPassPostOrder(ctxArg, fn, pk, args) {
				modified = true
			}
		default:
			c.e.errs = append(c.e.errs, diag.New(diag.LevelError, diag.UnknownPassArgument, diag.CodeWrongPassKind,
				fmt.Sprintf("%q cannot run within a function-list group", child.Name)))
		}
	}
	return modified
}
