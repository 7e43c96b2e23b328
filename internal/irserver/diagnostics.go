package irserver

import (
	"github.com/alecthomas/participle/v2"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssamid/internal/verify"
)

// ConvertParseError transforms a textir.ParseString syntax error into
// an LSP diagnostic. participle reports a precise line/column, so the
// range is a single-character span at the failure point.
func ConvertParseError(err error) []protocol.Diagnostic {
	pe, ok := err.(participle.Error)
	if !ok {
		return []protocol.Diagnostic{{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("ir-parser"),
			Message:  err.Error(),
		}}
	}

	pos := pe.Position()
	return []protocol.Diagnostic{{
		Range: protocol.Range{
			Start: protocol.Position{
				Line:      uint32(pos.Line - 1),
				Character: uint32(pos.Column - 1),
			},
			End: protocol.Position{
				Line:      uint32(pos.Line - 1),
				Character: uint32(pos.Column),
			},
		},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("ir-parser"),
		Message:  pe.Message(),
	}}
}

// ConvertBuildError transforms a textir.Build error (an unresolved
// construct: unknown type, unresolved operand, wrong operand count)
// into a diagnostic. Build errors carry no source position of their
// own, since the AST produced by ParseString doesn't track node
// positions past the parse stage.
func ConvertBuildError(err error) []protocol.Diagnostic {
	return []protocol.Diagnostic{{
		Range:    protocol.Range{},
		Severity: ptrSeverity(protocol.DiagnosticSeverityError),
		Source:   ptrString("ir-builder"),
		Message:  err.Error(),
	}}
}

// ConvertVerifyResult transforms every structural violation in res
// into a diagnostic. Like build errors, these have no source position
// (verify walks the in-memory ir.Module, not the text); Subject, when
// present, names the offending value or block so the message still
// points the reader somewhere.
func ConvertVerifyResult(res *verify.Result) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic
	for _, e := range res.Errors {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{},
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString("ir-verify"),
			Message:  e.Error(),
		})
	}
	return diagnostics
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
