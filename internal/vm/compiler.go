package vm

import (
	"fmt"
	"log"

	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/logutil"
	"github.com/Elipzer/clavender/internal/parser"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// FunctionDefiner parses a def inside an expression, compiles its body and
// returns the declared operator with the position just past the body.
// *parser.Declarator implements it.
type FunctionDefiner interface {
	DefineFunction(pos int, enclosing *symbols.Operator) (*symbols.Operator, int, error)
}

// Compiler turns a token stream into postfix programs
type Compiler struct {
	stream    *token.Stream
	registry  *symbols.Registry
	definer   FunctionDefiner
	namespace string
	logger    *log.Logger

	// Bodies and top-level expressions compiled so far
	unit *Unit
}

// NewCompiler creates a compiler over stream. Nested definitions are handled
// by a parser.Declarator sharing the same stream and registry.
func NewCompiler(stream *token.Stream, registry *symbols.Registry) *Compiler {
	c := &Compiler{
		stream:    stream,
		registry:  registry,
		namespace: config.RootNamespace,
		logger:    logutil.Discard,
		unit:      &Unit{File: stream.File},
	}
	c.definer = parser.NewDeclarator(stream, registry, c)
	return c
}

// SetDefiner replaces the handler for nested definitions.
func (c *Compiler) SetDefiner(d FunctionDefiner) {
	c.definer = d
}

// SetNamespace sets the namespace top-level definitions are declared in.
func (c *Compiler) SetNamespace(ns string) {
	c.namespace = ns
}

// SetLogger enables tracing of compiled programs. The logger is shared
// with the default declarator.
func (c *Compiler) SetLogger(l *log.Logger) {
	c.logger = logutil.OrDiscard(l)
	if d, ok := c.definer.(*parser.Declarator); ok {
		d.SetLogger(c.logger)
	}
}

// Unit returns everything compiled so far.
func (c *Compiler) Unit() *Unit {
	return c.unit
}

// CompileExpr compiles the expression starting at pos. enclosing supplies
// parameter names, captures and the scope ladder. It returns the program
// and the position of the first token not belonging to the expression: the
// end of the stream, an unmatched closer, a top-level ';' or a top-level
// "=>".
func (c *Compiler) CompileExpr(pos int, enclosing *symbols.Operator) (*Program, int, error) {
	cx := newExprContext(c, pos, enclosing)
	if err := cx.run(); err != nil {
		c.attachFile(err)
		return nil, cx.pos, err
	}
	prog := &Program{File: c.stream.File, Code: cx.out.items}
	return prog, cx.pos, nil
}

// CompileBody compiles the body of fn starting at pos and records it in the
// unit. It implements parser.BodyCompiler.
func (c *Compiler) CompileBody(pos int, fn *symbols.Operator) (int, error) {
	prog, end, err := c.CompileExpr(pos, fn)
	if err != nil {
		return end, err
	}
	prog.Name = fn.Name
	c.unit.Functions = append(c.unit.Functions, &Function{Op: fn, Program: prog})
	c.logger.Printf("compiled %s %s/%d: %d instructions", fn.Fixing, fn.Name, fn.Arity, len(prog.Code))
	return end, nil
}

// CompileUnit compiles the whole stream as a ';'-separated list of
// top-level expressions. A trailing ';' is allowed.
func (c *Compiler) CompileUnit() (*Unit, error) {
	root := symbols.NewRoot(c.namespace)
	pos := 0
	for !c.stream.AtEnd(pos) {
		prog, end, err := c.CompileExpr(pos, root)
		if err != nil {
			return nil, err
		}
		prog.Name = fmt.Sprintf("%s[%d]", c.namespace, len(c.unit.Main))
		c.unit.Main = append(c.unit.Main, prog)
		c.logger.Printf("compiled %s: %d instructions", prog.Name, len(prog.Code))

		tok, ok := c.stream.At(end)
		if !ok {
			break
		}
		if !tok.Is(';') {
			err := diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "expected ';' between expressions")
			c.attachFile(err)
			return nil, err
		}
		pos = end + 1
	}
	return c.unit, nil
}

func (c *Compiler) attachFile(err error) {
	if de, ok := err.(*diagnostics.DiagnosticError); ok && de.File == "" {
		de.File = c.stream.File
	}
}
