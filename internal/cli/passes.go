package cli

import "strings"

// DebugPassLevel names a `-debug-pass=Arguments|Structure|Executions|Details`
// level (§6.1). ssamid-opt only validates the level; PassManager logs
// nothing at any level.
type DebugPassLevel int

const (
	DebugPassNone DebugPassLevel = iota
	DebugPassArguments
	DebugPassStructure
	DebugPassExecutions
	DebugPassDetails
)

var debugPassNames = map[string]DebugPassLevel{
	"":           DebugPassNone,
	"arguments":  DebugPassArguments,
	"structure":  DebugPassStructure,
	"executions": DebugPassExecutions,
	"details":    DebugPassDetails,
}

// ParseDebugPassLevel parses the -debug-pass flag's value.
func ParseDebugPassLevel(s string) (DebugPassLevel, bool) {
	lvl, ok := debugPassNames[strings.ToLower(s)]
	return lvl, ok
}

// ParsePassPipeline splits a `-passes=fold,peephole` flag value into
// the ordered list of pass names a driver should look up in its own
// pass registry and assemble into a passes.PassManager.
func ParsePassPipeline(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}
