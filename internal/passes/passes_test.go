package passes

import (
	"testing"

	ctx "scatha/internal/context"
	"scatha/internal/ir"
	"scatha/internal/pipeline"
)

// --- fake passes for exercising the framework without a real transform ---

type fakeFunctionPass struct {
	name  string
	calls *int
}

func (p *fakeFunctionPass) Name() string          { return p.name }
func (p *fakeFunctionPass) Category() Category     { return Simplification }
func (p *fakeFunctionPass) Kind() Kind             { return FunctionKind }
func (p *fakeFunctionPass) Arguments() *ArgumentMap {
	return NewArgumentMap(map[string]ArgSpec{"aggressive": {Kind: ArgFlag}})
}
func (p *fakeFunctionPass) Run(c *ctx.Context, fn *ir.Function, sched LoopPass, args *ArgumentMap) bool {
	*p.calls++
	return args.Bool("aggressive")
}

type fakeLoopPass struct {
	name  string
	calls *int
}

func (p *fakeLoopPass) Name() string           { return p.name }
func (p *fakeLoopPass) Category() Category      { return Optimization }
func (p *fakeLoopPass) Kind() Kind              { return LoopKind }
func (p *fakeLoopPass) Arguments() *ArgumentMap { return NewArgumentMap(nil) }
func (p *fakeLoopPass) Run(c *ctx.Context, node *LoopNode, args *ArgumentMap) bool {
	*p.calls++
	return true
}

type fakeModulePass struct {
	name string
}

func (p *fakeModulePass) Name() string           { return p.name }
func (p *fakeModulePass) Category() Category      { return Schedule }
func (p *fakeModulePass) Kind() Kind              { return ModuleKind }
func (p *fakeModulePass) Arguments() *ArgumentMap { return NewArgumentMap(map[string]ArgSpec{"limit": {Kind: ArgNumeric}}) }
func (p *fakeModulePass) Run(c *ctx.Context, m *ir.Module, sched FunctionPass, args *ArgumentMap) bool {
	if sched == nil {
		return false
	}
	return RunFunctionPassOverModule(c, m, sched, nil, NewArgumentMap(nil))
}

func oneFunctionModule(t *testing.T) (*ctx.Context, *ir.Module) {
	t.Helper()
	c := ctx.New()
	m := ir.NewModule("m", c)
	f := ir.NewFunction(c, "f", c.FunctionType(c.Void(), nil))
	entry := ir.NewBasicBlock(c, "entry")
	f.AppendBlock(entry)
	entry.SetTerminator(ir.NewReturn(c, nil))
	m.AddFunction(f)
	return c, m
}

func TestRunPipelineImplicitForeachRunsFunctionPasses(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var calls int
	Register(&fakeFunctionPass{name: "mem2reg", calls: &calls})

	c, m := oneFunctionModule(t)
	nodes, err := pipeline.Parse("mem2reg")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	stats, err := RunPipeline(c, m, nodes, Options{})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected mem2reg to run once, ran %d times", calls)
	}
	if stats.PassesRun != 1 {
		t.Errorf("expected PassesRun == 1, got %d", stats.PassesRun)
	}
}

func TestRunPipelineBindsArguments(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var calls int
	Register(&fakeFunctionPass{name: "simplifycfg", calls: &calls})

	c, m := oneFunctionModule(t)
	nodes, err := pipeline.Parse("simplifycfg[aggressive]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	stats, err := RunPipeline(c, m, nodes, Options{})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if stats.ModifiedCount != 1 {
		t.Errorf("expected the bare 'aggressive' flag to bind true and report modified, stats=%+v", stats)
	}
}

func TestRunPipelineUnknownArgumentIsAnError(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var calls int
	Register(&fakeFunctionPass{name: "simplifycfg", calls: &calls})

	c, m := oneFunctionModule(t)
	nodes, err := pipeline.Parse("simplifycfg[bogus:1]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = RunPipeline(c, m, nodes, Options{})
	if err == nil {
		t.Fatalf("expected an error for an unknown argument")
	}
}

func TestRunPipelineModuleSchedulesFunctionAndLoopPasses(t *testing.T) {
	reset()
	t.Cleanup(reset)

	var fnCalls, loopCalls int
	Register(&fakeModulePass{name: "cgscc"})
	Register(&fakeFunctionPass{name: "dce", calls: &fnCalls})
	Register(&fakeLoopPass{name: "licm", calls: &loopCalls})

	c, m := oneFunctionModule(t)
	nodes, err := pipeline.Parse("cgscc(dce, licm)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = RunPipeline(c, m, nodes, Options{})
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if fnCalls != 1 {
		t.Errorf("expected dce to run once via the module's function scheduler, ran %d times", fnCalls)
	}
	if loopCalls != 0 {
		t.Errorf("expected licm to find no loops in a single-block function, got %d calls", loopCalls)
	}
}

func TestRunPipelineUnknownPassIsAnError(t *testing.T) {
	reset()
	t.Cleanup(reset)

	c, m := oneFunctionModule(t)
	nodes, err := pipeline.Parse("nosuchpass")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	_, err = RunPipeline(c, m, nodes, Options{})
	if err == nil {
		t.Fatalf("expected an error for an unregistered pass name")
	}
}
