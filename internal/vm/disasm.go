package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the program
func Disassemble(p *Program, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	for offset := range p.Code {
		disassembleInstruction(&sb, p, offset)
	}

	return sb.String()
}

// DisassembleUnit lists every function body followed by the top-level
// expressions.
func DisassembleUnit(u *Unit) string {
	var sb strings.Builder
	for _, fn := range u.Functions {
		sb.WriteString(Disassemble(fn.Program, fmt.Sprintf("%s %s/%d", fn.Op.Fixing, fn.Op.Name, fn.Op.Arity)))
	}
	for i, p := range u.Main {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("<expr %d>", i)
		}
		sb.WriteString(Disassemble(p, name))
	}
	return sb.String()
}

func disassembleInstruction(sb *strings.Builder, p *Program, offset int) {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	ins := p.Code[offset]
	if offset > 0 && ins.Line == p.Code[offset-1].Line {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", ins.Line))
	}

	switch ins.Op {
	case OP_FUNCTION:
		sb.WriteString(fmt.Sprintf("%-16s %s/%d\n", ins.Op, ins.Func.Name, ins.Func.ExplicitArity()))
	case OP_FUNCTION_VAL:
		sb.WriteString(fmt.Sprintf("%-16s %s\n", ins.Op, ins.Func.Name))
	case OP_STRING:
		sb.WriteString(fmt.Sprintf("%-16s %q\n", ins.Op, ins.Str))
	case OP_NUMBER:
		sb.WriteString(fmt.Sprintf("%-16s %g\n", ins.Op, ins.Number))
	case OP_INTEGER:
		sb.WriteString(fmt.Sprintf("%-16s %d\n", ins.Op, ins.Integer))
	case OP_PARAM:
		sb.WriteString(fmt.Sprintf("%-16s %4d\n", ins.Op, ins.Param))
	case OP_CALL, OP_CALL2, OP_MAKE_VECT, OP_CAPTURE:
		sb.WriteString(fmt.Sprintf("%-16s %4d\n", ins.Op, ins.CallArity))
	default:
		sb.WriteString(fmt.Sprintf("%s\n", ins))
	}
}
