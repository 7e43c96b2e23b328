// Package irserver is an LSP server that diagnoses and highlights
// textual IR source files, adapted from the teacher's source-language
// handler (internal/lsp) onto internal/textir's parser and
// internal/verify's structural checker: a client opens a .ir file, the
// handler parses and verifies it on every open/change, and publishes
// diagnostics plus semantic tokens over glsp's LSP transport.
package irserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ssamid/internal/ir"
	"ssamid/internal/textir"
	"ssamid/internal/verify"
)

// SemanticTokenTypes and SemanticTokenModifiers are the legend
// advertised in Initialize; collectSemanticTokens indexes into these
// by name.
var SemanticTokenTypes = []string{
	"keyword", "function", "variable", "parameter", "type", "namespace",
}

var SemanticTokenModifiers = []string{
	"declaration",
}

// Handler holds one open document's source text and last-built module
// per file path, guarded by mu since glsp dispatches notifications
// from its own goroutines.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
	modules map[string]*ir.Module
	ctx     *ir.Context
}

func NewHandler() *Handler {
	return &Handler{
		content: make(map[string]string),
		modules: make(map[string]*ir.Module),
		ctx:     ir.NewContext(),
	}
}

func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("ir-language-server Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			CompletionProvider: &protocol.CompletionOptions{
				ResolveProvider: ptrBool(false),
			},
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true),
			},
		},
	}, nil
}

func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("ir-language-server Initialized")
	return nil
}

func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("ir-language-server Shutdown")
	return nil
}

func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateModule(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("Closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	delete(h.modules, path)
	return nil
}

func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("Changed file: %s\n", params.TextDocument.URI)

	diagnostics, err := h.updateModule(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to update module: %w", err)
	}
	sendDiagnosticNotification(ctx, params.TextDocument.URI, diagnostics)
	return nil
}

func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (interface{}, error) {
	// No IR-specific completion yet.
	return &protocol.CompletionList{
		IsIncomplete: false,
		Items:        []protocol.CompletionItem{},
	}, nil
}

func (h *Handler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Println("TextDocumentSemanticTokensFull called for:", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	src, err := h.getOrReadSource(ctx, path, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens, err := collectSemanticTokens(src)
	if err != nil {
		return nil, err
	}

	var data []uint32
	var prevLine, prevStart uint32
	for _, token := range tokens {
		deltaLine := token.Line - prevLine
		var deltaStart uint32
		if deltaLine == 0 {
			deltaStart = token.StartChar - prevStart
		} else {
			deltaStart = token.StartChar
		}
		data = append(data, deltaLine, deltaStart, token.Length, uint32(token.TokenType), uint32(token.TokenModifiers))
		prevLine, prevStart = token.Line, token.StartChar
	}

	return &protocol.SemanticTokens{Data: data}, nil
}

func (h *Handler) getOrReadSource(ctx *glsp.Context, path string, rawURI protocol.DocumentUri) (string, error) {
	h.mu.RLock()
	src, ok := h.content[path]
	h.mu.RUnlock()
	if ok {
		return src, nil
	}

	diagnostics, err := h.updateModule(rawURI)
	if err != nil {
		return "", err
	}
	sendDiagnosticNotification(ctx, rawURI, diagnostics)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.content[path], nil
}

// updateModule re-reads rawURI off disk, reparses it as textual IR,
// builds the IR module, and runs the structural verifier, returning
// the diagnostics for whichever stage failed (or none, if the module
// is well-formed).
func (h *Handler) updateModule(rawURI protocol.DocumentUri) ([]protocol.Diagnostic, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	h.mu.Lock()
	h.content[path] = string(content)
	h.mu.Unlock()

	file, err := textir.ParseString(path, string(content))
	if err != nil {
		h.mu.Lock()
		delete(h.modules, path)
		h.mu.Unlock()
		return ConvertParseError(err), nil
	}

	moduleName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := textir.Build(h.ctx, moduleName, file)
	if err != nil {
		return ConvertBuildError(err), nil
	}

	h.mu.Lock()
	h.modules[path] = m
	h.mu.Unlock()

	return ConvertVerifyResult(verify.Module(m)), nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	diagnosticsJSON, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		fmt.Println("Failed to marshal diagnostics:", err)
		return
	}
	log.Println("Sending diagnostics:", string(diagnosticsJSON))

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
