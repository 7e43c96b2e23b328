package cli

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

type driverOptions struct {
	OutputPath    string
	MaxIterations int
	EmitTextIR    bool
	Verbose       bool `cli:"v,print progress to stderr"`
}

func TestRegisterStructDerivesKebabFlagNames(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts := &driverOptions{MaxIterations: 3}
	require.NoError(t, RegisterStruct(fs, opts))

	require.NoError(t, fs.Parse([]string{"-output-path=out.bc", "-max-iterations=5", "-emit-text-ir", "-v"}))
	require.Equal(t, "out.bc", opts.OutputPath)
	require.Equal(t, 5, opts.MaxIterations)
	require.True(t, opts.EmitTextIR)
	require.True(t, opts.Verbose)
}

func TestRegisterStructRejectsNonStructPointer(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var notAStruct int
	require.Error(t, RegisterStruct(fs, &notAStruct))
}

func TestParseDebugPassLevel(t *testing.T) {
	lvl, ok := ParseDebugPassLevel("Structure")
	require.True(t, ok)
	require.Equal(t, DebugPassStructure, lvl)

	_, ok = ParseDebugPassLevel("bogus")
	require.False(t, ok)
}

func TestParsePassPipeline(t *testing.T) {
	require.Equal(t, []string{"fold", "peephole"}, ParsePassPipeline("fold, peephole"))
	require.Nil(t, ParsePassPipeline(""))
}
