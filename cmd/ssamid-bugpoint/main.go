// SPDX-License-Identifier: Apache-2.0
//
// ssamid-bugpoint shrinks a failing bitcode module (§6.1's "bugpoint"
// driver: forks a child that runs a pipeline, bisects). Given a module
// that makes a checker command fail, it repeatedly halves the set of
// function definitions (demoting the other half to declarations),
// re-runs the checker, and keeps whichever half still reproduces the
// failure, converging on a minimal failing subset.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/fatih/color"

	"ssamid/internal/codec"
	"ssamid/internal/diag"
	"ssamid/internal/ir"
)

func main() {
	fs := flag.NewFlagSet("ssamid-bugpoint", flag.ExitOnError)
	timeout := fs.Int("timeout", 30, "seconds to allow the checker command to run before killing it")
	fs.Parse(os.Args[1:])

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-bugpoint <file.bc> <checker-command> [args...]")
		os.Exit(1)
	}
	bcPath := fs.Arg(0)
	checker := fs.Args()[1:]

	ctx := ir.NewContext()
	m, err := loadModule(ctx, bcPath)
	if err != nil {
		color.Red("ssamid-bugpoint: %s", err)
		os.Exit(1)
	}

	names := definedFunctionNames(m)
	if !reproduces(checker, m, names, *timeout) {
		color.Red("ssamid-bugpoint: checker does not fail on the full module; nothing to reduce")
		os.Exit(1)
	}

	kept := bisect(checker, m, names, *timeout)
	color.Green("minimal failing set: %d/%d function(s): %v", len(kept), len(names), kept)
}

func loadModule(ctx *ir.Context, path string) (*ir.Module, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return codec.DecodeModule(f, ctx)
}

func definedFunctionNames(m *ir.Module) []string {
	var names []string
	for _, fn := range m.Functions {
		if !fn.IsDeclaration() {
			names = append(names, fn.Name)
		}
	}
	return names
}

// bisect performs the classic delta-debugging halving search: split
// the candidate set in two, test each half in isolation, and recurse
// into the first half that still reproduces the failure. If neither
// half reproduces on its own, the whole candidate set is returned
// unchanged.
func bisect(checker []string, m *ir.Module, names []string, timeoutSec int) []string {
	if len(names) <= 1 {
		return names
	}
	mid := len(names) / 2
	left, right := names[:mid], names[mid:]

	if reproduces(checker, m, left, timeoutSec) {
		return bisect(checker, m, left, timeoutSec)
	}
	if reproduces(checker, m, right, timeoutSec) {
		return bisect(checker, m, right, timeoutSec)
	}
	return names
}

// reproduces writes a module keeping only `keep`'s function bodies
// (every other defined function is demoted to a bare declaration),
// runs the checker against it, and reports whether the checker
// process exited non-zero within the timeout (exit 0 means "does not
// reproduce the bug").
func reproduces(checker []string, m *ir.Module, keep []string, timeoutSec int) bool {
	path, cleanup, err := writeReducedModule(m, keep)
	if err != nil {
		color.Red("ssamid-bugpoint: %s", err)
		return false
	}
	defer cleanup()

	args := append(append([]string{}, checker[1:]...), path)
	cctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(cctx, checker[0], args...)
	err = cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		color.Red("ssamid-bugpoint: %s", diag.New(diag.ExecutionFailed, "checker command timed out"))
		return false
	}
	return err != nil
}

func writeReducedModule(m *ir.Module, keep []string) (string, func(), error) {
	keepSet := make(map[string]bool, len(keep))
	for _, n := range keep {
		keepSet[n] = true
	}

	keptBlocks := make(map[*ir.Function][]*ir.BasicBlock, len(m.Functions))
	for _, fn := range m.Functions {
		if fn.IsDeclaration() || keepSet[fn.Name] {
			continue
		}
		keptBlocks[fn] = fn.Blocks
		fn.Blocks = nil // demote to a declaration for this trial
	}
	restore := func() {
		for fn, blocks := range keptBlocks {
			fn.Blocks = blocks
		}
	}

	tmp, err := os.CreateTemp("", "bugpoint-*.bc")
	if err != nil {
		restore()
		return "", nil, err
	}
	if err := codec.EncodeModule(tmp, m); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		restore()
		return "", nil, err
	}
	tmp.Close()

	cleanup := func() {
		os.Remove(tmp.Name())
		restore()
	}
	return tmp.Name(), cleanup, nil
}
