package parser

import (
	"errors"
	"fmt"

	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// header is a parsed and registered function header
type header struct {
	op            *symbols.Operator
	bodyPos       int
	parenthesized bool
}

// parseHeader parses `[(] def [name] ( params ) =>`.
func (d *Declarator) parseHeader(pos int, enclosing *symbols.Operator) (*header, error) {
	h := &header{}
	p := pos

	if tok, ok := d.stream.At(p); ok && tok.Is('(') {
		h.parenthesized = true
		p++
	}
	if tok, ok := d.stream.At(p); !ok || tok.Type != token.IDENT || tok.Value != config.DefKeyword {
		return nil, diagnostics.NewError(diagnostics.ErrNotAFunction, d.stream.Get(p), "")
	}
	p++

	// 1. Optional name with fixing
	tok, err := d.require(p)
	if err != nil {
		return nil, err
	}
	nameTok := tok
	fixing := symbols.FixPrefix
	simple := ""
	switch tok.Type {
	case token.IDENT, token.FUNC_SYMBOL, token.SYMBOL:
		simple = tok.Value
		if specifiesFixing(tok) {
			fixing, _ = symbols.FixingFromTag(tok.Value[0])
			simple = tok.Value[2:]
		}
		p++
		if tok, err = d.require(p); err != nil {
			return nil, err
		}
	}

	// 2. Parameter list
	var params []symbols.Param
	varargs := false
	switch {
	case tok.Type == token.EMPTY_ARGS:
		p++
	case tok.Is('('):
		params, varargs, p, err = d.parseParams(p + 1)
		if err != nil {
			return nil, err
		}
	default:
		return nil, diagnostics.NewError(diagnostics.ErrExpectedArgs, tok, "")
	}
	if fixing == symbols.FixUnary && len(params) != 1 {
		return nil, diagnostics.NewError(diagnostics.ErrBadArgList, nameTok,
			fmt.Sprintf("unary %s takes exactly one parameter", simple))
	}

	// 3. Body arrow; the body must not be empty
	if tok, err = d.require(p); err != nil {
		return nil, err
	}
	if !tok.IsWord(config.BodyArrow) {
		return nil, diagnostics.NewError(diagnostics.ErrMissingBody, tok, "")
	}
	p++
	if _, err = d.require(p); err != nil {
		return nil, err
	}
	h.bodyPos = p

	// 4. Register
	if simple == "" {
		simple = d.registry.NextAnonymousName()
	}
	op := &symbols.Operator{
		Name:      symbols.QualifiedName(enclosing.ChildScope(), simple),
		Namespace: fixing.Namespace(),
		Fixing:    fixing,
		Varargs:   varargs,
		Params:    params,
		Forward:   true,
	}
	// A nested function captures the whole frame of the function it is
	// declared in as trailing parameters.
	if frame := enclosing.FrameSize(); frame > 0 {
		if frame > len(enclosing.Params) {
			frame = len(enclosing.Params)
		}
		op.Params = append(op.Params, enclosing.Params[:frame]...)
		op.CaptureCount = frame
	}
	op.Arity = len(op.Params)

	if err := d.registry.Add(op); err != nil {
		if errors.Is(err, symbols.ErrDuplicate) {
			return nil, diagnostics.NewError(diagnostics.ErrDuplicateDecl, nameTok, op.Name)
		}
		return nil, err
	}
	d.logger.Printf("declared %s %s/%d", op.Fixing, op.Name, op.ExplicitArity())
	h.op = op
	return h, nil
}

// parseParams parses the parameters after '(' through the closing ')'.
// Each parameter is an identifier, optionally preceded by "=>" (by-name).
// The last one may be followed by "..." to collect extra arguments.
func (d *Declarator) parseParams(p int) ([]symbols.Param, bool, int, error) {
	tok, err := d.require(p)
	if err != nil {
		return nil, false, p, err
	}
	if tok.Is(')') {
		return nil, false, p + 1, nil
	}

	var params []symbols.Param
	seen := make(map[string]bool)
	varargs := false
	for {
		byName := false
		if tok.IsWord(config.ByNameMarker) {
			byName = true
			p++
			if tok, err = d.require(p); err != nil {
				return nil, false, p, err
			}
		}
		if tok.Type != token.IDENT {
			return nil, false, p, diagnostics.NewError(diagnostics.ErrBadArgList, tok, "expected a parameter name")
		}
		if seen[tok.Value] {
			return nil, false, p, diagnostics.NewError(diagnostics.ErrBadArgList, tok, "duplicate parameter "+tok.Value)
		}
		seen[tok.Value] = true
		params = append(params, symbols.Param{Name: tok.Value, ByName: byName})
		p++
		if tok, err = d.require(p); err != nil {
			return nil, false, p, err
		}

		if tok.Type == token.ELLIPSIS {
			varargs = true
			p++
			if tok, err = d.require(p); err != nil {
				return nil, false, p, err
			}
			if !tok.Is(')') {
				return nil, false, p, diagnostics.NewError(diagnostics.ErrBadArgList, tok, "... must follow the last parameter")
			}
		}

		switch {
		case tok.Is(')'):
			return params, varargs, p + 1, nil
		case tok.Is(','):
			p++
			if tok, err = d.require(p); err != nil {
				return nil, false, p, err
			}
		default:
			return nil, false, p, diagnostics.NewError(diagnostics.ErrBadArgList, tok, "parameters must be separated by ','")
		}
	}
}

// require returns the token at p or an end-of-input error.
func (d *Declarator) require(p int) (token.Token, error) {
	tok, ok := d.stream.At(p)
	if !ok {
		return tok, diagnostics.NewError(diagnostics.ErrUnterminated, d.stream.Get(p), "")
	}
	return tok, nil
}

// specifiesFixing reports whether a name token carries a fixing tag:
// every function symbol, and identifiers like i_add longer than the tag.
func specifiesFixing(tok token.Token) bool {
	switch tok.Type {
	case token.FUNC_SYMBOL:
		return true
	case token.IDENT:
		v := tok.Value
		return len(v) > 2 && v[1] == '_' &&
			(v[0] == config.FixingTagLeft || v[0] == config.FixingTagRight || v[0] == config.FixingTagUnary)
	}
	return false
}
