package textir

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer tokenizes the textual IR surface syntax emitted by
// internal/ir's printer and consumed back by Parse. Its rule set
// mirrors an assembly listing rather than a source language: no
// block comments, just identifiers, floats, integers, double-quoted
// strings, punctuation, and line comments starting with ";".
var Lexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "Comment", Pattern: `;[^\n]*`, Action: nil},
		{Name: "Ident", Pattern: `[%@][a-zA-Z_.][a-zA-Z0-9_.]*|[a-zA-Z_][a-zA-Z0-9_]*`, Action: nil},
		{Name: "Float", Pattern: `[0-9]+\.[0-9]+`, Action: nil},
		{Name: "Integer", Pattern: `-?[0-9]+`, Action: nil},
		{Name: "String", Pattern: `"(\\.|[^"])*"`, Action: nil},
		{Name: "Punctuation", Pattern: `[{}()\[\],:=*]`, Action: nil},
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`, Action: nil},
	},
})
