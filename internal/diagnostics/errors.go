package diagnostics

import (
	"fmt"

	"github.com/Elipzer/clavender/internal/token"
)

type ErrorCode string

// Lexer errors
const (
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated string
	ErrL003 ErrorCode = "L003" // unknown escape sequence
)

// Compiler errors
const (
	ErrE001 ErrorCode = "E001" // not a function declaration
	ErrE002 ErrorCode = "E002" // end of input while parsing
	ErrE003 ErrorCode = "E003" // expected an argument list
	ErrE004 ErrorCode = "E004" // malformed argument list
	ErrE005 ErrorCode = "E005" // missing function body
	ErrE006 ErrorCode = "E006" // duplicate declaration
	ErrE007 ErrorCode = "E007" // name not found
	ErrE008 ErrorCode = "E008" // expected operator
	ErrE009 ErrorCode = "E009" // expected operand
	ErrE010 ErrorCode = "E010" // unexpected token
	ErrE011 ErrorCode = "E011" // unbalanced grouping
	ErrE012 ErrorCode = "E012" // bad arity
)

// Driver errors, not tied to a token
const (
	ErrC001 ErrorCode = "C001" // configuration or prelude could not be loaded
	ErrV001 ErrorCode = "V001" // compiled program failed stack verification
)

// Named aliases used by the compiler and declaration parser.
const (
	ErrNotAFunction   = ErrE001
	ErrUnterminated   = ErrE002
	ErrExpectedArgs   = ErrE003
	ErrBadArgList     = ErrE004
	ErrMissingBody    = ErrE005
	ErrDuplicateDecl  = ErrE006
	ErrNameNotFound   = ErrE007
	ErrExpectInfix    = ErrE008
	ErrExpectOperand  = ErrE009
	ErrUnexpectedTok  = ErrE010
	ErrUnbalanced     = ErrE011
	ErrBadArity       = ErrE012
	ErrIllegalChar    = ErrL001
	ErrUnterminString = ErrL002
	ErrBadEscape      = ErrL003
	ErrSetup          = ErrC001
	ErrVerify         = ErrV001
)

var messages = map[ErrorCode]string{
	ErrL001: "Illegal character",
	ErrL002: "Unterminated string literal",
	ErrL003: "Unknown escape sequence",
	ErrE001: "Expr does not define a function",
	ErrE002: "Reached end of input while parsing",
	ErrE003: "Expected an argument list",
	ErrE004: "Malformed argument list",
	ErrE005: "Missing function body",
	ErrE006: "Duplicate function definition",
	ErrE007: "Simple function name not found",
	ErrE008: "Expected operator",
	ErrE009: "Expected operand",
	ErrE010: "Encountered unexpected token",
	ErrE011: "Unbalanced grouping",
	ErrE012: "Wrong number of arguments",
	ErrC001: "Setup failed",
	ErrV001: "Stack verification failed",
}

// Message returns the fixed human-readable text for code.
func (c ErrorCode) Message() string {
	if msg, ok := messages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// DiagnosticError is a compile error anchored at a token.
type DiagnosticError struct {
	Code   ErrorCode
	Token  token.Token
	File   string
	Detail string
}

// NewError creates a diagnostic. Detail is optional extra context, such as
// the name that failed to resolve.
func NewError(code ErrorCode, tok token.Token, detail string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Detail: detail}
}

func (e *DiagnosticError) Error() string {
	msg := e.Code.Message()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	pos := e.File
	if e.Token.Line > 0 {
		pos = fmt.Sprintf("%d:%d", e.Token.Line, e.Token.Column)
		if e.File != "" {
			pos = e.File + ":" + pos
		}
	}
	if pos == "" {
		return fmt.Sprintf("[%s] %s", e.Code, msg)
	}
	return fmt.Sprintf("%s: [%s] %s", pos, e.Code, msg)
}

// Is matches on the error code so errors.Is works against a bare code
// wrapped with AsError.
func (e *DiagnosticError) Is(target error) bool {
	t, ok := target.(*DiagnosticError)
	return ok && t.Token == (token.Token{}) && t.Code == e.Code
}

// AsError returns a token-less error value for code, for use with errors.Is.
func AsError(code ErrorCode) error {
	return &DiagnosticError{Code: code}
}
