// SPDX-License-Identifier: Apache-2.0
//
// ssamid-prof reads a bitcode module plus a profile-data file and
// prints a per-function annotated report (§6.1's "prof"-like driver:
// reader -> annotate -> print). Profile data is a simple line-oriented
// "funcname count" text format; this driver does not itself collect
// counts, only reports against counts gathered elsewhere.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"ssamid/internal/codec"
	"ssamid/internal/ir"
)

func main() {
	fs := flag.NewFlagSet("ssamid-prof", flag.ExitOnError)
	fs.Parse(os.Args[1:])

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: ssamid-prof <file.bc> <profile.txt>")
		os.Exit(1)
	}
	bcPath, profPath := fs.Arg(0), fs.Arg(1)

	f, err := os.Open(bcPath)
	if err != nil {
		color.Red("ssamid-prof: %s", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := ir.NewContext()
	m, err := codec.DecodeModule(f, ctx)
	if err != nil {
		color.Red("ssamid-prof: %s", err)
		os.Exit(1)
	}

	counts, err := readProfile(profPath)
	if err != nil {
		color.Red("ssamid-prof: %s", err)
		os.Exit(1)
	}

	fmt.Printf("%-24s %8s %8s %10s\n", "FUNCTION", "BLOCKS", "INSTS", "EXECS")
	for _, fn := range m.Functions {
		if fn.IsDeclaration() {
			continue
		}
		insts := 0
		for _, b := range fn.Blocks {
			insts += len(b.Insts)
		}
		count, ok := counts[fn.Name]
		execs := "?"
		if ok {
			execs = strconv.FormatUint(count, 10)
		}
		fmt.Printf("%-24s %8d %8d %10s\n", fn.Name, len(fn.Blocks), insts, execs)
	}
}

func readProfile(path string) (map[string]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	counts := make(map[string]uint64)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed profile line %q", line)
		}
		n, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed profile count %q: %w", fields[1], err)
		}
		counts[fields[0]] = n
	}
	return counts, scanner.Err()
}
