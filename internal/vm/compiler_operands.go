package vm

import (
	"strconv"
	"strings"

	"github.com/Elipzer/clavender/internal/diagnostics"
	"github.com/Elipzer/clavender/internal/symbols"
	"github.com/Elipzer/clavender/internal/token"
)

// classify converts tok into an instruction and updates expectOperand and
// the nesting counter.
func (cx *exprContext) classify(tok token.Token) (Instruction, error) {
	ins := Instruction{Line: tok.Line, Column: tok.Column}
	var err error
	switch tok.Type {
	case token.LITERAL:
		err = cx.classifyLiteral(&ins, tok)
	case token.IDENT:
		err = cx.classifyIdent(&ins, tok)
	case token.SYMBOL:
		err = cx.classifySymbol(&ins, tok, tok.Value)
	case token.QUAL_IDENT, token.QUAL_SYMBOL:
		err = cx.classifyQualName(&ins, tok, tok.Value)
	case token.NUMBER:
		err = cx.classifyNumber(&ins, tok)
	case token.INTEGER:
		err = cx.classifyInteger(&ins, tok)
	case token.STRING:
		err = cx.classifyString(&ins, tok)
	case token.FUNC_VAL, token.QUAL_FUNC:
		err = cx.classifyFuncValue(&ins, tok)
	case token.EMPTY_ARGS:
		cx.classifyEmptyArgs(&ins)
	default:
		err = diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, tok.Value)
	}
	return ins, err
}

func (cx *exprContext) classifyLiteral(ins *Instruction, tok token.Token) error {
	ins.Op = OP_LITERAL
	ins.Literal = tok.Value[0]
	switch ins.Literal {
	case '(':
		if !cx.expectOperand {
			// "f(x)" where f is a value
			ins.Op = OP_CALL2
			cx.expectOperand = true
		}
		cx.nesting++
	case '[', '{':
		cx.nesting++
		if !cx.expectOperand {
			return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "")
		}
	case '}':
		// In operand position '}' may only directly follow '{'.
		if cx.expectOperand && !cx.arities.empty() && cx.arities.top().resolved {
			return diagnostics.NewError(diagnostics.ErrExpectOperand, tok, "")
		}
		cx.nesting--
		cx.expectOperand = false
	case ']', ')', ',':
		if ins.Literal != ',' {
			cx.nesting--
		}
		if cx.expectOperand {
			return diagnostics.NewError(diagnostics.ErrExpectOperand, tok, "")
		}
	case ';':
		if cx.nesting != 0 {
			return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "';' inside a grouping")
		}
	default:
		return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, tok.Value)
	}
	if ins.Literal == ']' || ins.Literal == ',' {
		cx.expectOperand = true
	}
	return nil
}

// classifyIdent prefers the enclosing function's parameters and locals in
// operand position.
func (cx *exprContext) classifyIdent(ins *Instruction, tok token.Token) error {
	if cx.expectOperand {
		if idx, ok := cx.decl.ParamIndex(tok.Value); ok {
			ins.Op = OP_PARAM
			ins.Param = idx
			cx.expectOperand = false
			return nil
		}
	}
	return cx.classifySymbol(ins, tok, tok.Value)
}

func (cx *exprContext) namespace() symbols.Namespace {
	if cx.expectOperand {
		return symbols.NamespacePrefix
	}
	return symbols.NamespaceInfix
}

func (cx *exprContext) classifySymbol(ins *Instruction, tok token.Token, name string) error {
	op, err := cx.resolve(tok, name, cx.namespace())
	if err != nil {
		return err
	}
	cx.setFunction(ins, op)
	return nil
}

func (cx *exprContext) classifyQualName(ins *Instruction, tok token.Token, name string) error {
	op, err := cx.resolveQualified(tok, name, cx.namespace())
	if err != nil {
		return err
	}
	cx.setFunction(ins, op)
	return nil
}

// setFunction stores op and flips expectOperand when op consumes a right
// hand operand from operator position or is itself a complete operand.
func (cx *exprContext) setFunction(ins *Instruction, op *symbols.Operator) {
	ins.Op = OP_FUNCTION
	ins.Func = op
	n := op.ExplicitArity()
	if (!cx.expectOperand && n != 1) || n == 0 {
		cx.expectOperand = !cx.expectOperand
	}
}

// classifyFuncValue handles \name, \ns:name and the infix form \name\.
func (cx *exprContext) classifyFuncValue(ins *Instruction, tok token.Token) error {
	if !cx.expectOperand {
		return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "")
	}
	name := strings.TrimPrefix(tok.Value, `\`)
	ns := symbols.NamespacePrefix
	if strings.HasSuffix(name, `\`) {
		ns = symbols.NamespaceInfix
		name = strings.TrimSuffix(name, `\`)
	}
	var op *symbols.Operator
	var err error
	if tok.Type == token.QUAL_FUNC {
		op, err = cx.resolveQualified(tok, name, ns)
	} else {
		op, err = cx.resolve(tok, name, ns)
	}
	if err != nil {
		return err
	}
	ins.Op = OP_FUNCTION_VAL
	ins.Func = op
	cx.expectOperand = false
	return nil
}

func (cx *exprContext) classifyNumber(ins *Instruction, tok token.Token) error {
	if !cx.expectOperand {
		return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "")
	}
	f, err := strconv.ParseFloat(tok.Value, 64)
	if err != nil {
		return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "malformed number "+tok.Value)
	}
	ins.Op = OP_NUMBER
	ins.Number = f
	cx.expectOperand = false
	return nil
}

func (cx *exprContext) classifyInteger(ins *Instruction, tok token.Token) error {
	if !cx.expectOperand {
		return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "")
	}
	n, err := strconv.ParseUint(tok.Value, 10, 64)
	if err != nil {
		return diagnostics.NewError(diagnostics.ErrUnexpectedTok, tok, "integer literal "+tok.Value+" out of range")
	}
	ins.Op = OP_INTEGER
	ins.Integer = n
	cx.expectOperand = false
	return nil
}

func (cx *exprContext) classifyString(ins *Instruction, tok token.Token) error {
	if !cx.expectOperand {
		return diagnostics.NewError(diagnostics.ErrExpectInfix, tok, "")
	}
	s, err := decodeString(tok)
	if err != nil {
		return err
	}
	ins.Op = OP_STRING
	ins.Str = s
	cx.expectOperand = false
	return nil
}

// decodeString strips the quotes from a STRING token and decodes \n, \t,
// \", \' and \\.
func decodeString(tok token.Token) (string, error) {
	raw := tok.Value[1 : len(tok.Value)-1]
	var sb strings.Builder
	sb.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == len(raw) {
			return "", diagnostics.NewError(diagnostics.ErrBadEscape, tok, `trailing \`)
		}
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '"', '\'', '\\':
			sb.WriteByte(raw[i])
		default:
			return "", diagnostics.NewError(diagnostics.ErrBadEscape, tok, `\`+string(raw[i]))
		}
	}
	return sb.String(), nil
}

// classifyEmptyArgs handles "()". After a value it is a zero-argument
// call2; in operand position it fixes the pending application's count.
func (cx *exprContext) classifyEmptyArgs(ins *Instruction) {
	if !cx.expectOperand {
		ins.Op = OP_CALL2
		return
	}
	ins.Op = OP_EMPTY_ARGS
	cx.expectOperand = false
}
