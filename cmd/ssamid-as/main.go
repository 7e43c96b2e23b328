// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"ssamid/internal/cli"
	"ssamid/internal/codec"
	"ssamid/internal/ir"
	"ssamid/internal/textir"
	"ssamid/internal/verify"
)

type options struct {
	OutputPath string `cli:"o,output bitcode path (defaults to <input>.bc)"`
	Verbose    bool   `cli:"v,print progress to stderr"`
}

func main() {
	fs := flag.NewFlagSet("ssamid-as", flag.ExitOnError)
	opts := &options{}
	if err := cli.RegisterStruct(fs, opts); err != nil {
		color.Red("ssamid-as: %s", err)
		os.Exit(1)
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-as [options] <file.ir>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	file, err := textir.ParseFile(path)
	if err != nil {
		os.Exit(1)
	}

	ctx := ir.NewContext()
	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := textir.Build(ctx, moduleName, file)
	if err != nil {
		color.Red("ssamid-as: %s", err)
		os.Exit(1)
	}

	result := verify.Module(m)
	if result.HasErrors() {
		for _, e := range result.Errors {
			color.Red("ssamid-as: %s", e)
		}
		os.Exit(1)
	}

	out := opts.OutputPath
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".bc"
	}

	f, err := os.Create(out)
	if err != nil {
		color.Red("ssamid-as: %s", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := codec.EncodeModule(f, m); err != nil {
		color.Red("ssamid-as: %s", err)
		os.Exit(1)
	}

	if opts.Verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", out)
	}
	color.Green("assembled %s -> %s", path, out)
}
