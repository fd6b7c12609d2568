package token

// Stream is an ordered token sequence addressed by position.
// Positions are plain indexes; len(Tokens) is the end of stream.
type Stream struct {
	Tokens []Token
	File   string
}

func NewStream(tokens []Token) *Stream {
	return &Stream{Tokens: tokens}
}

// Len returns the number of tokens.
func (s *Stream) Len() int {
	return len(s.Tokens)
}

// AtEnd reports whether pos is past the last token.
func (s *Stream) AtEnd(pos int) bool {
	return pos >= len(s.Tokens)
}

// At returns the token at pos and whether it exists.
func (s *Stream) At(pos int) (Token, bool) {
	if pos < 0 || pos >= len(s.Tokens) {
		return Token{}, false
	}
	return s.Tokens[pos], true
}

// Get returns the token at pos, or a zero token when out of range.
// Useful for error positions at end of stream.
func (s *Stream) Get(pos int) Token {
	if tok, ok := s.At(pos); ok {
		return tok
	}
	if len(s.Tokens) > 0 {
		last := s.Tokens[len(s.Tokens)-1]
		return Token{Type: ILLEGAL, Line: last.Line, Column: last.Column + len(last.Value)}
	}
	return Token{Type: ILLEGAL}
}
