// SPDX-License-Identifier: Apache-2.0
//
// ssamid-link concatenates N bitcode modules into one, resolving a
// declaration in one module against a definition of the same name in
// another (§6.1's "link"-like driver: reader ×N -> linker -> writer).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"ssamid/internal/cli"
	"ssamid/internal/codec"
	"ssamid/internal/ir"
)

type options struct {
	OutputPath string `cli:"o,output bitcode path"`
}

func main() {
	fs := flag.NewFlagSet("ssamid-link", flag.ExitOnError)
	opts := &options{OutputPath: "a.bc"}
	if err := cli.RegisterStruct(fs, opts); err != nil {
		color.Red("ssamid-link: %s", err)
		os.Exit(1)
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-link [options] <file.bc>...")
		os.Exit(1)
	}

	ctx := ir.NewContext()
	merged := ctx.NewModule("linked")

	for _, path := range fs.Args() {
		m, err := decode(ctx, path)
		if err != nil {
			color.Red("ssamid-link: %s", err)
			os.Exit(1)
		}
		if merged.Target == nil {
			merged.Target = m.Target
		}
		if err := mergeInto(merged, m); err != nil {
			color.Red("ssamid-link: %s", err)
			os.Exit(1)
		}
	}

	out, err := os.Create(opts.OutputPath)
	if err != nil {
		color.Red("ssamid-link: %s", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := codec.EncodeModule(out, merged); err != nil {
		color.Red("ssamid-link: %s", err)
		os.Exit(1)
	}
	color.Green("linked %d module(s) -> %s", fs.NArg(), opts.OutputPath)
}

func decode(ctx *ir.Context, path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.DecodeModule(f, ctx)
}

// mergeInto appends m's functions and globals into merged, preferring
// a definition over a declaration when the same name appears in more
// than one input module (the common "weak declaration resolved by a
// later definition" linker behavior) and rejecting two conflicting
// definitions.
func mergeInto(merged, m *ir.Module) error {
	existingFns := make(map[string]*ir.Function, len(merged.Functions))
	for _, fn := range merged.Functions {
		existingFns[fn.Name] = fn
	}

	for _, fn := range m.Functions {
		prior, ok := existingFns[fn.Name]
		if !ok {
			fn.Module = merged
			merged.Functions = append(merged.Functions, fn)
			existingFns[fn.Name] = fn
			continue
		}
		switch {
		case prior.IsDeclaration() && !fn.IsDeclaration():
			replaceFunction(merged, prior, fn)
			existingFns[fn.Name] = fn
		case !prior.IsDeclaration() && fn.IsDeclaration():
			// keep the existing definition
		case prior.IsDeclaration() && fn.IsDeclaration():
			// both declarations: no-op
		default:
			return fmt.Errorf("duplicate definition of %s", fn.Name)
		}
	}

	existingGlobals := make(map[string]*ir.GlobalVariable, len(merged.Globals))
	for _, gv := range merged.Globals {
		existingGlobals[gv.Name] = gv
	}
	for _, gv := range m.Globals {
		if _, ok := existingGlobals[gv.Name]; ok {
			continue
		}
		gv.Module = merged
		merged.Globals = append(merged.Globals, gv)
		existingGlobals[gv.Name] = gv
	}
	return nil
}

func replaceFunction(merged *ir.Module, prior, next *ir.Function) {
	next.Module = merged
	for i, fn := range merged.Functions {
		if fn == prior {
			merged.Functions[i] = next
			return
		}
	}
}
