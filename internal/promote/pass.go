package promote

import (
	ctx "scatha/internal/context"
	"scatha/internal/ir"
	"scatha/internal/passes"
)

// mem2regPass adapts Run to the passes.FunctionPass interface, so the
// pipeline DSL can name it ("mem2reg, simplifycfg") exactly like any
// other registered pass.
type mem2regPass struct {
	args *passes.ArgumentMap
}

func (p *mem2regPass) Name() string     { return "mem2reg" }
func (p *mem2regPass) Category() passes.Category { return passes.Canonicalization }
func (p *mem2regPass) Kind() passes.Kind { return passes.FunctionKind }
func (p *mem2regPass) Arguments() *passes.ArgumentMap { return p.args }

func (p *mem2regPass) Run(c *ctx.Context, fn *ir.Function, _ passes.LoopPass, _ *passes.ArgumentMap) bool {
	return Run(c, fn)
}

func init() {
	passes.Register(&mem2regPass{args: passes.NewArgumentMap(nil)})
}
