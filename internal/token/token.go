package token

import "fmt"

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	LITERAL     TokenType = "LITERAL"     // ( ) [ ] { } , ;
	IDENT       TokenType = "IDENT"       // foo, i_add, def
	SYMBOL      TokenType = "SYMBOL"      // +, **, =>
	QUAL_IDENT  TokenType = "QUAL_IDENT"  // math:sqrt
	QUAL_SYMBOL TokenType = "QUAL_SYMBOL" // math:+
	NUMBER      TokenType = "NUMBER"      // 1.5, 2e10
	INTEGER     TokenType = "INTEGER"     // 42
	STRING      TokenType = "STRING"      // "text" (quotes kept, escapes raw)
	FUNC_VAL    TokenType = "FUNC_VAL"    // \f, \+\
	QUAL_FUNC   TokenType = "QUAL_FUNC"   // \math:sqrt
	EMPTY_ARGS  TokenType = "EMPTY_ARGS"  // ()
	FUNC_SYMBOL TokenType = "FUNC_SYMBOL" // i_+, r_**, u_!
	ELLIPSIS    TokenType = "ELLIPSIS"    // ...
)

// Token is a single lexical token. Value holds the raw source text.
type Token struct {
	Type   TokenType
	Value  string
	Line   int
	Column int
}

// Is reports whether the token is the punctuation literal c.
func (t Token) Is(c byte) bool {
	return t.Type == LITERAL && len(t.Value) == 1 && t.Value[0] == c
}

// IsWord reports whether the token's raw text equals s (e.g. "def" or "=>").
func (t Token) IsWord(s string) bool {
	return t.Type != STRING && t.Value == s
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}
