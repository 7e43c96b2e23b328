// Package diag implements the error taxonomy shared by every driver and
// library package: structural (verifier), codec, type-mismatch,
// unresolved-symbol, execution, and I/O failures.
package diag

// Code ranges:
//
//	E01xx  structural  — verifier invariant violations
//	E02xx  codec       — malformed or truncated bytecode
//	E03xx  type        — builder/constant-fold type mismatches
//	E04xx  unresolved  — name lookup failed
//	E05xx  execution   — external child process (bugpoint, reducer helpers)
//	E06xx  io          — underlying read/write failure
const (
	StructuralMissingTerminator = "E0101"
	StructuralExtraTerminator   = "E0102"
	StructuralPhiMismatch       = "E0103"
	StructuralDanglingUse       = "E0104"
	StructuralDominance         = "E0105"
	StructuralEntryHasPreds     = "E0106"
	StructuralBadOperandType    = "E0107"

	CodecBadMagic       = "E0201"
	CodecTruncated      = "E0202"
	CodecUnresolvedRef  = "E0203"
	CodecBadVersion     = "E0204"
	CodecConstOutOfRange = "E0205"

	TypeMismatch = "E0301"

	UnresolvedSymbol = "E0401"

	ExecutionFailed = "E0501"

	IoFailure = "E0601"
)

var descriptions = map[string]string{
	StructuralMissingTerminator: "basic block has no terminator",
	StructuralExtraTerminator:   "terminator is not the block's last instruction",
	StructuralPhiMismatch:       "phi incoming values do not match block predecessors",
	StructuralDanglingUse:       "use does not appear in its definition's use list",
	StructuralDominance:         "use is not dominated by its definition",
	StructuralEntryHasPreds:     "function entry block has predecessors",
	StructuralBadOperandType:    "operand type does not match instruction signature",

	CodecBadMagic:        "bytecode stream has an invalid magic number",
	CodecTruncated:       "bytecode stream ended unexpectedly",
	CodecUnresolvedRef:   "forward reference left unresolved at end of scope",
	CodecBadVersion:      "bytecode format version is unsupported",
	CodecConstOutOfRange: "constant value is out of range for its type",

	TypeMismatch: "operand type does not match expected type",

	UnresolvedSymbol: "symbol could not be resolved",

	ExecutionFailed: "external process exited non-zero or timed out",

	IoFailure: "read or write of the underlying stream failed",
}

// Describe returns a human-readable description of a code, or "" if unknown.
func Describe(code string) string {
	return descriptions[code]
}

// Category buckets a code into one of the six top-level error classes.
func Category(code string) string {
	if len(code) != 5 || code[0] != 'E' {
		return "unknown"
	}
	switch code[1:3] {
	case "01":
		return "structural"
	case "02":
		return "codec"
	case "03":
		return "type"
	case "04":
		return "unresolved"
	case "05":
		return "execution"
	case "06":
		return "io"
	default:
		return "unknown"
	}
}
