package irserver

import (
	"strings"

	"ssamid/internal/textir"
)

// SemanticToken is one entry in the LSP semantic-tokens-full wire
// format before delta-encoding; Line and StartChar are 0-based.
type SemanticToken struct {
	Line           uint32
	StartChar      uint32
	Length         uint32
	TokenType      int
	TokenModifiers int
}

var keywords = map[string]bool{
	"define": true, "declare": true, "target": true, "datalayout": true,
	"global": true, "constant": true, "null": true, "undef": true, "label": true,
}

var primitiveTypes = map[string]bool{
	"void": true, "bool": true,
	"i8": true, "i16": true, "i32": true, "i64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"float": true, "double": true,
}

// collectSemanticTokens tokenizes src with the same stateful lexer
// textir.ParseString builds its parser on (Lexer, defined in
// internal/textir/lexer.go) and classifies each identifier token by
// its sigil and surrounding punctuation, since the parsed AST
// (internal/textir/grammar.go) doesn't carry source positions past
// the parse stage.
func collectSemanticTokens(src string) ([]SemanticToken, error) {
	def := textir.Lexer
	symbols := def.Symbols()
	names := make(map[int]string, len(symbols))
	for name, t := range symbols {
		names[int(t)] = name
	}

	lex, err := def.Lex("", strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	var raw []token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			break
		}
		kind := names[int(tok.Type)]
		if kind == "Whitespace" || kind == "Comment" {
			continue
		}
		raw = append(raw, token{kind: kind, value: tok.Value, line: tok.Pos.Line, col: tok.Pos.Column})
	}

	var tokens []SemanticToken
	for i, t := range raw {
		if t.kind != "Ident" {
			continue
		}
		tokenType := classify(t.value, raw, i)
		tokens = append(tokens, SemanticToken{
			Line:           uint32(t.line - 1),
			StartChar:      uint32(t.col - 1),
			Length:         uint32(len(t.value)),
			TokenType:      indexOf(tokenType, SemanticTokenTypes),
			TokenModifiers: 0,
		})
	}
	return tokens, nil
}

type token struct {
	kind  string
	value string
	line  int
	col   int
}

// classify names the semantic token type for identifier raw[i],
// looking at the token itself (sigil, keyword membership) and, for
// block labels, the punctuation that immediately follows it.
func classify(value string, raw []token, i int) string {
	switch {
	case keywords[value]:
		return "keyword"
	case strings.HasPrefix(value, "@"):
		return "function"
	case strings.HasPrefix(value, "%"):
		return "variable"
	case primitiveTypes[value]:
		return "type"
	case i+1 < len(raw) && raw[i+1].kind == "Punctuation" && raw[i+1].value == ":":
		return "namespace"
	default:
		// Everything else is an instruction mnemonic (add, ret, br, ...).
		return "keyword"
	}
}

func indexOf(target string, list []string) int {
	for i, v := range list {
		if v == target {
			return i
		}
	}
	return -1
}
