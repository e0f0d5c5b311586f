// SPDX-License-Identifier: Apache-2.0

// Command scatha-ir is the host tool of spec §6.4: it parses a textual
// IR file, validates it, optionally runs a pipeline string over it,
// and prints the result.
//
// Grounded on cmd/kanso-cli/main.go and the teacher's root main.go:
// flag-driven single-file CLI, fatih/color for success/failure
// coloring, caret-style position reporting for parse errors.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	ctx "scatha/internal/context"
	"scatha/internal/diag"
	"scatha/internal/ir"
	"scatha/internal/irtext"
	"scatha/internal/passes"
	"scatha/internal/pipeline"

	_ "scatha/internal/promote" // registers "mem2reg"
)

func main() {
	pipelineFlag := flag.String("pipeline", "", `pipeline string to run, e.g. "mem2reg, simplifycfg"`)
	validateOnly := flag.Bool("validate", false, "parse and validate only; do not print the module")
	listPasses := flag.Bool("list-passes", false, "print every registered pass name and exit")
	flag.Parse()

	if *listPasses {
		for _, name := range passes.Registered() {
			fmt.Println(name)
		}
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Println("Usage: scatha-ir [-pipeline 'p1, p2[arg]'] [-validate] [-list-passes] <file.sir>")
		os.Exit(1)
	}

	path := args[0]
	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("Failed to read file: %s", err)
		os.Exit(1)
	}

	if code := run(path, string(source), *pipelineFlag, *validateOnly); code != 0 {
		os.Exit(code)
	}
}

// run does the actual work behind a recover boundary: an
// InvariantViolation diagnostic raised anywhere in internal/ir,
// internal/cfg, internal/passes, or internal/promote unwinds here
// rather than crashing the process bare, matching spec §7's policy
// that the core traps instead of recovering internally.
func run(path, source, pipelineStr string, validateOnly bool) (exitCode int) {
	defer func() {
		if d, ok := diag.Recover(); ok {
			r := diag.NewReporter(path, source)
			fmt.Fprint(os.Stderr, r.Format(d))
			exitCode = 1
		}
	}()

	c := ctx.New()
	m, err := irtext.Parse(source, c)
	if err != nil {
		// irtext.Parse already printed a caret-style report.
		return 1
	}

	if verrs := ir.Validate(m); len(verrs) > 0 {
		color.Red("%s: module fails validation:", path)
		for _, verr := range verrs {
			fmt.Fprintf(os.Stderr, "  %s\n", verr)
		}
		return 1
	}

	if pipelineStr != "" {
		nodes, err := pipeline.Parse(pipelineStr)
		if err != nil {
			// pipeline.Parse already printed a caret-style report.
			return 1
		}
		stats, err := passes.RunPipeline(c, m, nodes, passes.Options{ValidateAfterEachPass: true})
		if err != nil {
			color.Red("pipeline run failed: %s", err)
			return 1
		}
		color.Green("✅ ran %d pass applications (%d modified)", stats.PassesRun, stats.ModifiedCount)
	}

	if validateOnly {
		color.Green("✅ %s is valid", path)
		return 0
	}

	fmt.Print(irtext.Print(m))
	return 0
}
