package vm

import (
	"fmt"
	"strings"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// shunt runs one step of the shunting yard for ins, produced by tok.
//
// Besides the classic algorithm it validates argument counts through the
// arity stack and implements square bracket relocation: the reduced
// contents of [ ... ] are moved back onto the operator stack and applied
// after the operand that follows.
func (cx *exprContext) shunt(ins Instruction, tok token.Token) error {
	switch {
	case ins.Op == OP_EMPTY_ARGS:
		if cx.arities.empty() || cx.arities.top().resolved {
			return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "() must directly follow a function")
		}
		*cx.arities.top() = resolved(cx.arities.top().n - 1)
		// Kept on the output so a following ',' can be rejected.
		cx.emit(ins)
		return nil

	case ins.Op == OP_LITERAL:
		return cx.shuntLiteral(ins, tok)

	case ins.Op == OP_FUNCTION_VAL && ins.Func.CaptureCount > 0:
		// Self-reference captures only the parameters, never the locals.
		frame := cx.decl.FrameSize()
		if ins.Func == cx.decl {
			frame = cx.decl.Arity
		}
		cx.emitCaptures(ins.Func, frame, ins)
		cx.emit(ins)
		cx.fixArityFirstArg()
		cx.emit(Instruction{Op: OP_CAPTURE, CallArity: ins.Func.CaptureCount, Line: ins.Line, Column: ins.Column})
		return nil

	case ins.Op == OP_CALL2:
		for !cx.ops.empty() && compare(ins, *cx.ops.top())-1 < 0 {
			if err := cx.reduce(tok); err != nil {
				return err
			}
		}
		if cx.expectOperand {
			// "(" form: arguments follow and are closed by ')'
			cx.ops.push(ins)
			cx.ops.push(Instruction{Op: OP_LITERAL, Literal: '(', Line: ins.Line, Column: ins.Column})
			cx.arities.push(pending(2))
		} else {
			// "()" form: the callee alone
			ins.CallArity = 1
			cx.emit(ins)
		}
		return nil

	case ins.Op != OP_FUNCTION || ins.Func.ExplicitArity() == 0:
		cx.fixArityFirstArg()
		if ins.Op == OP_FUNCTION {
			cx.emitCaptures(ins.Func, cx.captureFrame(ins.Func), ins)
		}
		cx.emit(ins)
		return nil
	}

	// Left infix operators also reduce on equal precedence.
	sub := 0
	if ins.Func.Fixing == symbols.FixLeftInfix {
		sub = 1
	}
	for !cx.ops.empty() && compare(ins, *cx.ops.top())-sub < 0 {
		if err := cx.reduce(tok); err != nil {
			return err
		}
	}
	cx.ops.push(ins)
	// A prefix function has not seen its first argument. An infix one has
	// its left operand already, and a unary one needs nothing more.
	switch {
	case ins.Func.Fixing == symbols.FixPrefix:
		cx.arities.push(pending(1))
	case ins.Func.ExplicitArity() == 1:
		cx.arities.push(resolved(1))
	default:
		cx.arities.push(pending(2))
	}
	return nil
}

func (cx *exprContext) shuntLiteral(ins Instruction, tok token.Token) error {
	switch ins.Literal {
	case '(':
		cx.ops.push(ins)

	case '[':
		cx.ops.push(ins)
		cx.out.push(ins)

	case '{':
		cx.fixArityFirstArg()
		cx.ops.push(ins)
		cx.arities.push(pending(1))

	case '}':
		if err := cx.reduceUntil(tok, '{'); err != nil {
			return err
		}
		cx.ops.pop()
		n := cx.arities.pop()
		count := n.n
		if !n.resolved {
			count = 0 // {}
		}
		cx.emit(Instruction{Op: OP_MAKE_VECT, CallArity: count, Line: ins.Line, Column: ins.Column})

	case ']':
		if err := cx.reduceUntil(tok, '['); err != nil {
			return err
		}
		// Move the reduced region back onto the operator stack so it is
		// replayed, in order, when the ']' is reduced.
		for !cx.out.empty() && !cx.out.top().isLiteral('[') {
			cx.ops.push(cx.out.pop())
		}
		if cx.out.empty() {
			return diagnostics.NewError(diagnostics.ErrUnbalanced, tok, "unmatched ]")
		}
		cx.out.pop()
		cx.arities.push(pending(1))
		cx.ops.push(ins)

	case ')':
		if err := cx.reduceUntil(tok, '('); err != nil {
			return err
		}
		cx.ops.pop()

	case ',':
		if err := cx.reduceUntil(tok, '(', '{'); err != nil {
			return err
		}
		// Nothing may follow an explicit "()".
		if !cx.out.empty() && cx.out.top().Op == OP_EMPTY_ARGS {
			return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "argument after ()")
		}
		if cx.arities.empty() || !cx.arities.top().resolved {
			return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "")
		}
		cx.arities.top().n++
	}
	return nil
}

// reduceUntil reduces operators until the top of the operator stack is one
// of the given openers, which is left in place. Any other opener means the
// groupings are crossed.
func (cx *exprContext) reduceUntil(tok token.Token, openers ...byte) error {
	for {
		if cx.ops.empty() {
			return diagnostics.NewError(diagnostics.ErrUnbalanced, tok, "unmatched "+tok.Value)
		}
		top := *cx.ops.top()
		for _, c := range openers {
			if top.isLiteral(c) {
				return nil
			}
		}
		if isOpener(top) {
			return diagnostics.NewError(diagnostics.ErrUnbalanced, tok, fmt.Sprintf("%c closed by %s", top.Literal, tok.Value))
		}
		if err := cx.reduce(tok); err != nil {
			return err
		}
	}
}

// reduce moves the top of the operator stack to the output, checking the
// argument count of function applications.
func (cx *exprContext) reduce(tok token.Token) error {
	if cx.ops.top().isLiteral(']') {
		return cx.reduceBracket(tok)
	}
	ins := cx.ops.pop()
	switch {
	case ins.Op == OP_FUNCTION && ins.Func.ExplicitArity() > 0:
		return cx.reduceFunction(ins, tok)

	case ins.Op == OP_CALL2:
		n := cx.arities.pop()
		if !n.resolved {
			return diagnostics.NewError(diagnostics.ErrBadArity, tok, "call without a first argument")
		}
		ins.CallArity = n.n
		cx.emit(ins)
		return nil
	}
	cx.emit(ins)
	return nil
}

func (cx *exprContext) reduceFunction(ins Instruction, tok token.Token) error {
	fn := ins.Func
	want := fn.ExplicitArity()
	n := cx.arities.pop()
	if !n.resolved {
		return diagnostics.NewError(diagnostics.ErrBadArity, tok, fmt.Sprintf("%s expects %d arguments, got none", fn.Name, want))
	}
	got := n.n
	if fn.Varargs {
		// The last declared parameter and everything after it become one
		// vector; it may be empty.
		extra := got - (want - 1)
		if extra < 0 {
			return diagnostics.NewError(diagnostics.ErrBadArity, tok, fmt.Sprintf("%s expects at least %d arguments, got %d", fn.Name, want-1, got))
		}
		cx.emit(Instruction{Op: OP_MAKE_VECT, CallArity: extra, Line: ins.Line, Column: ins.Column})
		got = want
	}
	cx.emitCaptures(fn, cx.captureFrame(fn), ins)
	cx.fixArityFirstArg()
	cx.emit(ins)
	if got != want {
		return diagnostics.NewError(diagnostics.ErrBadArity, tok, fmt.Sprintf("%s expects %d arguments, got %d", fn.Name, want, got))
	}
	return nil
}

// reduceBracket replays a relocated [ ... ] region after the operand that
// followed it and applies it with a CALL.
func (cx *exprContext) reduceBracket(tok token.Token) error {
	n := cx.arities.pop()
	if !n.resolved {
		return diagnostics.NewError(diagnostics.ErrBadArity, tok, "[...] must be followed by an operand")
	}
	closer := cx.ops.pop()
	for {
		if cx.ops.empty() {
			return diagnostics.NewError(diagnostics.ErrUnbalanced, tok, "unmatched ]")
		}
		top := cx.ops.top()
		if top.isLiteral('[') {
			break
		}
		if top.isLiteral(']') {
			if err := cx.reduceBracket(tok); err != nil {
				return err
			}
			continue
		}
		cx.emit(cx.ops.pop())
	}
	cx.fixArityFirstArg()
	cx.emit(Instruction{Op: OP_CALL, CallArity: n.n, Line: closer.Line, Column: closer.Column})
	cx.ops.pop()
	return nil
}

// captureFrame is the frame size capture indices count back from when fn
// is applied inside the current body.
func (cx *exprContext) captureFrame(fn *symbols.Operator) int {
	if fn == cx.decl {
		return cx.decl.Arity
	}
	return cx.decl.FrameSize()
}

// emitCaptures pushes one parameter reference per captured value of fn,
// taken from the last slots of a frame of the given size.
func (cx *exprContext) emitCaptures(fn *symbols.Operator, frame int, at Instruction) {
	for i := fn.CaptureCount; i > 0; i-- {
		cx.emit(Instruction{Op: OP_PARAM, Param: frame - i, Line: at.Line, Column: at.Column})
	}
}

// compare orders a and b for reduction; a positive result means a binds
// tighter. Closers rank above everything, openers below everything, then
// prefix and unary functions, call2, and finally infix operators by the
// first character of their simple name.
func compare(a, b Instruction) int {
	if isOperand(a) || isOperand(b) {
		panic(fmt.Sprintf("vm: compare called with an operand (%s, %s)", a, b))
	}

	ac, bc := isCloser(a), isCloser(b)
	if ac || bc {
		return boolInt(ac) - boolInt(bc)
	}
	if isOpener(a) {
		return -1
	}
	if isOpener(b) {
		return 1
	}

	afix, bfix := fixingRank(a), fixingRank(b)
	if afix != bfix {
		return afix - bfix
	}
	if afix != 0 {
		return 0
	}

	an, bn := a.Func.SimpleName(), b.Func.SimpleName()
	ap, bp := InfixPrecedence(an), InfixPrecedence(bn)
	if ap != bp {
		return ap - bp
	}
	return boolInt(strings.HasPrefix(an, "**")) - boolInt(strings.HasPrefix(bn, "**"))
}

// isOperand reports whether ins is a value rather than something that can
// sit on the operator stack.
func isOperand(ins Instruction) bool {
	switch ins.Op {
	case OP_LITERAL, OP_CALL2:
		return false
	case OP_FUNCTION:
		return ins.Func.ExplicitArity() == 0
	}
	return true
}

// fixingRank: prefix and unary 2, call2 1, infix 0.
func fixingRank(ins Instruction) int {
	if ins.Op == OP_CALL2 {
		return 1
	}
	if ins.Func.Fixing == symbols.FixPrefix || ins.Func.ExplicitArity() == 1 {
		return 2
	}
	return 0
}

// InfixPrecedence ranks an infix operator by the first character of its
// simple name. A ':' is stored as '#'.
func InfixPrecedence(name string) int {
	if name == "" {
		return 0
	}
	switch name[0] {
	case '|':
		return 1
	case '^':
		return 2
	case '&':
		return 3
	case '!', '=':
		return 4
	case '>', '<':
		return 5
	case '#':
		return 6
	case '-', '+':
		return 7
	case '%', '/', '*':
		return 8
	case '~', '?':
		return 9
	}
	return 0
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
