package irserver_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssamid/internal/irserver"
)

const sampleIR = `define i32 @add(i32 %a, i32 %b) {
entry:
  %sum = add i32 %a, %b
  ret i32 %sum
}
`

const malformedIR = `define i32 @broken( {
entry:
  ret i32 0
}
`

func writeTempIR(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.ir")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func fileURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

func TestTextDocumentDidOpenPublishesNoDiagnosticsForValidIR(t *testing.T) {
	path := writeTempIR(t, sampleIR)
	h := irserver.NewHandler()

	var published []protocol.Diagnostic
	ctx := &glsp.Context{Notify: func(method string, params any) {
		if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
			published = p.Diagnostics
		}
	}}

	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: fileURI(path)},
	})
	require.NoError(t, err)
	require.Empty(t, published)
}

func TestTextDocumentDidOpenReportsParseError(t *testing.T) {
	path := writeTempIR(t, malformedIR)
	h := irserver.NewHandler()

	var published []protocol.Diagnostic
	ctx := &glsp.Context{Notify: func(method string, params any) {
		if p, ok := params.(*protocol.PublishDiagnosticsParams); ok {
			published = p.Diagnostics
		}
	}}

	err := h.TextDocumentDidOpen(ctx, &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: fileURI(path)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, published)
	require.Equal(t, "ir-parser", *published[0].Source)
}

func TestTextDocumentSemanticTokensFull(t *testing.T) {
	path := writeTempIR(t, sampleIR)
	h := irserver.NewHandler()

	ctx := &glsp.Context{Notify: func(method string, params any) {}}
	params := &protocol.SemanticTokensParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: fileURI(path)},
	}

	tokens, err := h.TextDocumentSemanticTokensFull(ctx, params)
	require.NoError(t, err)
	require.NotNil(t, tokens)
	require.NotEmpty(t, tokens.Data)

	decoded, err := decodeSemanticTokens(tokens.Data)
	require.NoError(t, err)

	byType := make(map[string]int)
	for _, tok := range decoded {
		byType[tok.Type]++
	}
	require.Greater(t, byType["keyword"], 0, "should have keyword tokens for define/ret/add")
	require.Greater(t, byType["function"], 0, "should have function tokens for @add")
	require.Greater(t, byType["variable"], 0, "should have variable tokens for %a/%b/%sum")
	require.Greater(t, byType["type"], 0, "should have type tokens for i32")
	require.Greater(t, byType["namespace"], 0, "should have a namespace token for the entry label")
}

type decodedToken struct {
	Line   uint32
	Char   uint32
	Length uint32
	Type   string
}

func decodeSemanticTokens(raw []uint32) ([]decodedToken, error) {
	if len(raw)%5 != 0 {
		return nil, fmt.Errorf("raw token data length %d is not a multiple of 5", len(raw))
	}
	var decoded []decodedToken
	var line, char uint32
	for i := 0; i < len(raw); i += 5 {
		deltaLine, deltaStart, length, typeIdx := raw[i], raw[i+1], raw[i+2], raw[i+3]
		if deltaLine == 0 {
			char += deltaStart
		} else {
			line += deltaLine
			char = deltaStart
		}
		decoded = append(decoded, decodedToken{
			Line:   line,
			Char:   char,
			Length: length,
			Type:   irserver.SemanticTokenTypes[typeIdx],
		})
	}
	return decoded, nil
}
