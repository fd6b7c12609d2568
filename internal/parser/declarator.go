// Package parser parses Lavender function declarations.
package parser

import (
	"log"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/logutil"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// BodyCompiler compiles the body of a declared function starting at pos and
// returns the position just past it. *vm.Compiler implements it.
type BodyCompiler interface {
	CompileBody(pos int, fn *symbols.Operator) (int, error)
}

// Declarator parses `def` headers, registers the declared operators and
// hands their bodies to a BodyCompiler.
type Declarator struct {
	stream   *token.Stream
	registry *symbols.Registry
	body     BodyCompiler
	logger   *log.Logger
}

func NewDeclarator(stream *token.Stream, registry *symbols.Registry, body BodyCompiler) *Declarator {
	return &Declarator{
		stream:   stream,
		registry: registry,
		body:     body,
		logger:   logutil.Discard,
	}
}

// SetLogger enables tracing of declarations.
func (d *Declarator) SetLogger(l *log.Logger) {
	d.logger = logutil.OrDiscard(l)
}

// DeclareFunction parses the header at pos, which is either `def` or a `(`
// directly before it, and registers a forward declaration nested in
// enclosing. It returns the operator and the position of the first body
// token.
func (d *Declarator) DeclareFunction(pos int, enclosing *symbols.Operator) (*symbols.Operator, int, error) {
	h, err := d.parseHeader(pos, enclosing)
	if err != nil {
		return nil, pos, err
	}
	return h.op, h.bodyPos, nil
}

// DefineFunction declares the function at pos and compiles its body. It
// returns the operator and the position just past the definition; a
// definition opened with `(` also consumes its closing `)`.
func (d *Declarator) DefineFunction(pos int, enclosing *symbols.Operator) (*symbols.Operator, int, error) {
	h, err := d.parseHeader(pos, enclosing)
	if err != nil {
		return nil, pos, err
	}
	end, err := d.body.CompileBody(h.bodyPos, h.op)
	if err != nil {
		return nil, end, err
	}
	h.op.Forward = false

	if h.parenthesized {
		tok, ok := d.stream.At(end)
		if !ok {
			return nil, end, diagnostics.NewError(diagnostics.ErrUnterminated, d.stream.Get(end), "missing ) after definition")
		}
		if !tok.Is(')') {
			return nil, end, diagnostics.NewError(diagnostics.ErrUnbalanced, tok, "missing ) after definition")
		}
		end++
	}
	d.logger.Printf("defined %s %s/%d (captures %d)", h.op.Fixing, h.op.Name, h.op.Arity, h.op.CaptureCount)
	return h.op, end, nil
}
