// Package repl SPDX-License-Identifier: Apache-2.0
//
// repl is the interactive console behind ssamid-opt -i: it reads one
// text-IR function at a time (terminated by a blank line), builds it,
// runs the caller-selected pass pipeline over it, and prints the
// post-pass IR back out, adapted from the teacher's read-parse-print
// loop onto internal/textir/internal/passes instead of the source
// language's lexer/parser.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"ssamid/internal/ir"
	"ssamid/internal/passes"
	"ssamid/internal/textir"
	"ssamid/internal/verify"
)

const PROMPT = "ssamid> "

// Start runs the loop, reading from in and writing prompts, parse
// errors, and post-pass IR to out. pipeline is empty for a plain
// parse-and-print console.
func Start(in io.Reader, out io.Writer, pipeline ...passes.Pass) {
	scanner := bufio.NewScanner(in)
	pm := passes.NewPassManager(pipeline...)

	for {
		fmt.Fprint(out, PROMPT)
		block, ok := readBlock(scanner)
		if !ok {
			return
		}
		if strings.TrimSpace(block) == "" {
			continue
		}
		runOne(out, pm, block)
	}
}

// readBlock accumulates lines until a blank line or EOF, mirroring
// how a .ir file separates function definitions.
func readBlock(scanner *bufio.Scanner) (string, bool) {
	var b strings.Builder
	sawLine := false
	for scanner.Scan() {
		sawLine = true
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if !sawLine {
		return "", false
	}
	return b.String(), true
}

func runOne(out io.Writer, pm *passes.PassManager, src string) {
	ctx := ir.NewContext()
	file, err := textir.ParseString("<repl>", src)
	if err != nil {
		return // textir.ParseString already reported the caret diagnostic
	}

	m, err := textir.Build(ctx, "repl", file)
	if err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}

	if _, err := pm.Run(m); err != nil {
		fmt.Fprintf(out, "error: %s\n", err)
		return
	}

	if result := verify.Module(m); result.HasErrors() {
		for _, e := range result.Errors {
			fmt.Fprintf(out, "verify: %s\n", e)
		}
		return
	}

	ir.WriteModule(out, m)
}
