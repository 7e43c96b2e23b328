// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"ssamid/internal/cli"
	"ssamid/internal/fold"
	"ssamid/internal/ir"
	"ssamid/internal/lower"
	"ssamid/internal/mir"
	"ssamid/internal/passes"
	"ssamid/internal/textir"
	"ssamid/internal/verify"

	"ssamid/repl"
)

type options struct {
	Passes      string `cli:"passes,comma-separated pass pipeline to run (e.g. peephole)"`
	DebugPass   string `cli:"debug-pass,checked against arguments|structure|executions|details; no schedule trace is printed"`
	PrintOnly   bool   `cli:"print-only,parse and print without running any pass"`
	Interactive bool   `cli:"i,read functions from stdin instead of a file"`
	Lower       bool   `cli:"lower,lower to two-address machine IR and print that instead of text IR"`
}

// lowerAndPrint runs §4.6's SSA-to-two-address lowering over every
// defined function in m and prints the resulting machine IR, the way
// -passes prints text IR: a debugging view onto the lowering boundary
// rather than a target-ready emission.
func lowerAndPrint(m *ir.Module) error {
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		mfn, err := lower.Lower(fn)
		if err != nil {
			return fmt.Errorf("%s: %w", fn.Name, err)
		}
		lower.TwoAddressPass{}.Run(mfn)
		fmt.Print(mir.Print(mfn))
	}
	return nil
}

// registry maps a pass name from -passes to a constructor, mirroring
// the teacher's PassManager scheduling every registered pass declares
// its own Info() granularity and analysis contract.
func registry(ctx *ir.Context) map[string]passes.Pass {
	return map[string]passes.Pass{
		"peephole": fold.NewPeephole(ctx),
		"domtree":  &passes.DomTreeAnalysis{},
		"escape":   &passes.EscapeAnalysis{},
		"verify":   &passes.VerifyPass{},
	}
}

// resolvePipeline looks up each requested pass name in reg, exiting
// with an error message if one is unregistered.
func resolvePipeline(reg map[string]passes.Pass, names []string) []passes.Pass {
	pipeline := make([]passes.Pass, 0, len(names))
	for _, name := range names {
		p, ok := reg[name]
		if !ok {
			color.Red("ssamid-opt: unknown pass %q", name)
			os.Exit(1)
		}
		pipeline = append(pipeline, p)
	}
	return pipeline
}

func main() {
	fs := flag.NewFlagSet("ssamid-opt", flag.ExitOnError)
	opts := &options{}
	if err := cli.RegisterStruct(fs, opts); err != nil {
		color.Red("ssamid-opt: %s", err)
		os.Exit(1)
	}
	fs.Parse(os.Args[1:])

	if opts.DebugPass != "" {
		if _, ok := cli.ParseDebugPassLevel(opts.DebugPass); !ok {
			color.Red("ssamid-opt: unknown -debug-pass level %q", opts.DebugPass)
			os.Exit(1)
		}
	}

	if opts.Interactive {
		ctx := ir.NewContext()
		reg := registry(ctx)
		pipeline := resolvePipeline(reg, cli.ParsePassPipeline(opts.Passes))
		repl.Start(os.Stdin, os.Stdout, pipeline...)
		return
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-opt [options] <file.ir>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	file, err := textir.ParseFile(path)
	if err != nil {
		os.Exit(1)
	}

	ctx := ir.NewContext()
	m, err := textir.Build(ctx, "module", file)
	if err != nil {
		color.Red("ssamid-opt: %s", err)
		os.Exit(1)
	}

	if !opts.PrintOnly {
		reg := registry(ctx)
		pipeline := resolvePipeline(reg, cli.ParsePassPipeline(opts.Passes))
		pm := passes.NewPassManager(pipeline...)
		if _, err := pm.Run(m); err != nil {
			color.Red("ssamid-opt: %s", err)
			os.Exit(1)
		}
	}

	if result := verify.Module(m); result.HasErrors() {
		for _, e := range result.Errors {
			color.Red("ssamid-opt: post-pass verification failed: %s", e)
		}
		os.Exit(1)
	}

	if opts.Lower {
		if err := lowerAndPrint(m); err != nil {
			color.Red("ssamid-opt: %s", err)
			os.Exit(1)
		}
		return
	}

	ir.WriteModule(os.Stdout, m)
}
