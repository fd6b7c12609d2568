package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/token"
)

// Lexer splits Lavender source into tokens.
//
// Qualified names are written without spaces around the separator
// (math:sqrt, math:+). A '#' starts a comment that runs to end of line; it
// is never part of a symbol because ':' inside symbolic names is stored
// as '#'.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize lexes the whole input. It stops at the first illegal token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var toks []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// NextToken returns the next token, or an EOF token at end of input.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	line, col := l.line, l.column
	start := l.position

	switch {
	case l.ch == 0 && l.position >= len(l.input):
		return token.Token{Type: token.EOF, Line: line, Column: col}, nil
	case l.ch == '(':
		if l.peekChar() == ')' {
			l.readChar()
			l.readChar()
			return token.Token{Type: token.EMPTY_ARGS, Value: "()", Line: line, Column: col}, nil
		}
		l.readChar()
		return token.Token{Type: token.LITERAL, Value: "(", Line: line, Column: col}, nil
	case isPunct(l.ch):
		ch := l.ch
		l.readChar()
		return token.Token{Type: token.LITERAL, Value: string(ch), Line: line, Column: col}, nil
	case l.ch == '"':
		return l.readString(line, col)
	case isDigit(l.ch):
		typ := l.readNumber()
		return token.Token{Type: typ, Value: l.input[start:l.position], Line: line, Column: col}, nil
	case isLetter(l.ch):
		typ := l.readName()
		return token.Token{Type: typ, Value: l.input[start:l.position], Line: line, Column: col}, nil
	case l.ch == '\\':
		return l.readFuncValue(line, col)
	case isSymbolChar(l.ch):
		l.readSymbol()
		value := l.input[start:l.position]
		typ := token.SYMBOL
		if value == "..." {
			typ = token.ELLIPSIS
		}
		return token.Token{Type: typ, Value: value, Line: line, Column: col}, nil
	}

	tok := token.Token{Type: token.ILLEGAL, Value: string(l.ch), Line: line, Column: col}
	return tok, diagnostics.NewError(diagnostics.ErrIllegalChar, tok, "")
}

// readName reads an identifier, a fixing-tagged symbol (i_+) or a
// qualified name (ns:name, ns:sub:+).
func (l *Lexer) readName() token.TokenType {
	start := l.position
	l.readIdent()
	ident := l.input[start:l.position]
	if isFixingTag(ident) && isSymbolChar(l.ch) && l.ch != ':' {
		l.readSymbol()
		return token.FUNC_SYMBOL
	}
	typ := token.IDENT
	for l.ch == ':' {
		next := l.peekChar()
		switch {
		case isLetter(next):
			l.readChar()
			l.readIdent()
			typ = token.QUAL_IDENT
		case isSymbolChar(next):
			l.readChar()
			l.readSymbol()
			return token.QUAL_SYMBOL
		default:
			return typ
		}
	}
	return typ
}

// readFuncValue reads \name, \name\ (infix), \ns:name or \+\.
func (l *Lexer) readFuncValue(line, col int) (token.Token, error) {
	start := l.position
	l.readChar() // consume '\'
	var typ token.TokenType
	switch {
	case isLetter(l.ch):
		typ = token.FUNC_VAL
		if l.readName() != token.IDENT {
			typ = token.QUAL_FUNC
		}
	case isSymbolChar(l.ch):
		typ = token.FUNC_VAL
		l.readSymbol()
	default:
		tok := token.Token{Type: token.ILLEGAL, Value: l.input[start:l.position], Line: line, Column: col}
		return tok, diagnostics.NewError(diagnostics.ErrIllegalChar, tok, "function value needs a name")
	}
	if l.ch == '\\' {
		l.readChar()
	}
	return token.Token{Type: typ, Value: l.input[start:l.position], Line: line, Column: col}, nil
}

// readString reads a double-quoted string. The token keeps both quotes and
// the raw escapes; only the escape set is validated here.
func (l *Lexer) readString(line, col int) (token.Token, error) {
	start := l.position
	l.readChar() // opening quote
	for l.ch != '"' {
		if l.ch == 0 && l.position >= len(l.input) {
			tok := token.Token{Type: token.ILLEGAL, Value: l.input[start:], Line: line, Column: col}
			return tok, diagnostics.NewError(diagnostics.ErrUnterminString, tok, "")
		}
		if l.ch == '\\' {
			l.readChar()
			if !strings.ContainsRune(`nt"'\`, l.ch) || l.ch == 0 {
				tok := token.Token{Type: token.ILLEGAL, Value: `\` + string(l.ch), Line: l.line, Column: l.column - 1}
				return tok, diagnostics.NewError(diagnostics.ErrBadEscape, tok, "")
			}
		}
		l.readChar()
	}
	l.readChar() // closing quote
	return token.Token{Type: token.STRING, Value: l.input[start:l.position], Line: line, Column: col}, nil
}

func (l *Lexer) readNumber() token.TokenType {
	typ := token.INTEGER
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = token.NUMBER
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			typ = token.NUMBER
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return typ
}

func (l *Lexer) readIdent() {
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) readSymbol() {
	for isSymbolChar(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '#' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		break
	}
}

func isPunct(ch rune) bool {
	switch ch {
	case ')', '[', ']', '{', '}', ',', ';':
		return true
	}
	return false
}

func isSymbolChar(ch rune) bool {
	return strings.ContainsRune("~!@$%^&*-+=|:<>?/.", ch) && ch != 0
}

func isFixingTag(ident string) bool {
	return len(ident) == 2 && ident[1] == '_' && strings.ContainsRune("iru", rune(ident[0]))
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}
