// SPDX-License-Identifier: Apache-2.0
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
	Func string `cli:"fn,print only this function, materializing no other function body (§4.5 lazy load)"`
}

func main() {
	fs := flag.NewFlagSet("ssamid-dis", flag.ExitOnError)
	opts := &options{}
	if err := cli.RegisterStruct(fs, opts); err != nil {
		color.Red("ssamid-dis: %s", err)
		os.Exit(1)
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-dis [-fn name] <file.bc>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		color.Red("ssamid-dis: %s", err)
		os.Exit(1)
	}

	ctx := ir.NewContext()
	lm, err := codec.OpenLazy(data, ctx)
	if err != nil {
		color.Red("ssamid-dis: %s", err)
		os.Exit(1)
	}

	if opts.Func == "" {
		if err := lm.MaterializeAll(); err != nil {
			color.Red("ssamid-dis: %s", err)
			os.Exit(1)
		}
		ir.WriteModule(os.Stdout, lm.Module)
		return
	}

	for _, fn := range lm.Module.Functions {
		if fn.Name != opts.Func {
			continue
		}
		if err := lm.Materialize(fn); err != nil {
			color.Red("ssamid-dis: %s", err)
			os.Exit(1)
		}
		ir.WriteFunction(os.Stdout, fn)
		return
	}
	color.Red("ssamid-dis: no such function %q", opts.Func)
	os.Exit(1)
}
