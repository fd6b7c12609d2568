package vm

import (
	"github.com/Elipzer/clavender/internal/config"
	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// stack is a LIFO over a slice. Emptiness is always checked explicitly.
type stack[T any] struct {
	items []T
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *stack[T]) pop() T {
	v := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return v
}

// top returns a pointer to the last element so it can be updated in place.
func (s *stack[T]) top() *T {
	return &s.items[len(s.items)-1]
}

func (s *stack[T]) empty() bool {
	return len(s.items) == 0
}

// arity is the argument count tracked for an open grouping or a pending
// operator application. A pending count has not seen its first argument
// yet; it becomes resolved on the first operand or on "()".
type arity struct {
	n        int
	resolved bool
}

func pending(n int) arity { return arity{n: n} }
func resolved(n int) arity { return arity{n: n, resolved: true} }

// exprContext is the state of one CompileExpr call. Nested definitions get
// their own context.
type exprContext struct {
	c             *Compiler
	pos           int
	decl          *symbols.Operator
	startOfName   int
	expectOperand bool
	nesting       int

	ops     stack[Instruction]
	out     stack[Instruction]
	arities stack[arity]
}

func newExprContext(c *Compiler, pos int, decl *symbols.Operator) *exprContext {
	return &exprContext{
		c:             c,
		pos:           pos,
		decl:          decl,
		startOfName:   decl.SimpleNameStart(),
		expectOperand: true,
	}
}

// run drives the shunting yard over the tokens of one expression.
func (cx *exprContext) run() error {
	stream := cx.c.stream
	for !stream.AtEnd(cx.pos) {
		tok := stream.Tokens[cx.pos]

		if tok.Type == token.IDENT && tok.Value == config.DefKeyword {
			if !cx.expectOperand {
				return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "def in operator position")
			}
			op, end, err := cx.c.definer.DefineFunction(cx.pos, cx.decl)
			if err != nil {
				return err
			}
			cx.pos = end
			cx.expectOperand = false
			ins := Instruction{Op: OP_FUNCTION_VAL, Func: op, Line: tok.Line, Column: tok.Column}
			if err := cx.shunt(ins, tok); err != nil {
				return err
			}
			continue
		}
		if tok.IsWord(config.BodyArrow) {
			break
		}

		ins, err := cx.classify(tok)
		if err != nil {
			return err
		}
		if cx.nesting < 0 || tok.Is(';') {
			break
		}
		if err := cx.shunt(ins, tok); err != nil {
			return err
		}
		cx.pos++
	}

	end := stream.Get(cx.pos)
	for !cx.ops.empty() {
		if isOpener(*cx.ops.top()) {
			return diagnostics.NewError(diagnostics.ErrUnbalanced, end, "unclosed "+string(cx.ops.top().Literal))
		}
		if err := cx.reduce(end); err != nil {
			return err
		}
	}
	if cx.out.empty() {
		return diagnostics.NewError(diagnostics.ErrExpectOperand, end, "empty expression")
	}
	if cx.out.top().Op == OP_EMPTY_ARGS {
		return diagnostics.NewError(diagnostics.ErrUnexpectedTok, end, "dangling ()")
	}
	return nil
}

// fixArityFirstArg records that the innermost pending application has
// received its first argument.
func (cx *exprContext) fixArityFirstArg() {
	if !cx.arities.empty() && !cx.arities.top().resolved {
		*cx.arities.top() = resolved(cx.arities.top().n)
	}
}

// emit appends to the output stack. A "()" placeholder on top is
// overwritten, never kept.
func (cx *exprContext) emit(ins Instruction) {
	if !cx.out.empty() && cx.out.top().Op == OP_EMPTY_ARGS {
		*cx.out.top() = ins
		return
	}
	cx.out.push(ins)
}

func isOpener(ins Instruction) bool {
	return ins.isLiteral('(') || ins.isLiteral('[') || ins.isLiteral('{')
}

func isCloser(ins Instruction) bool {
	return ins.isLiteral(')') || ins.isLiteral(']') || ins.isLiteral('}')
}
