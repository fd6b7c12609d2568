package vm

import "fmt"

// Verify evaluates the program's stack effect without running it. Every
// operand pushes one value and every application pops its arguments and
// pushes its result, so a well-formed expression never underflows and
// leaves exactly one value.
func Verify(p *Program) error {
	depth := 0
	for offset, ins := range p.Code {
		var pops int
		switch ins.Op {
		case OP_NUMBER, OP_INTEGER, OP_STRING, OP_PARAM, OP_FUNCTION_VAL:
			pops = 0
		case OP_FUNCTION:
			pops = ins.Func.Arity
		case OP_CALL:
			pops = ins.CallArity + 1
		case OP_CALL2, OP_MAKE_VECT:
			pops = ins.CallArity
		case OP_CAPTURE:
			pops = ins.CallArity + 1
		default:
			return fmt.Errorf("%04d: %s must not appear in a program", offset, ins.Op)
		}
		if depth < pops {
			return fmt.Errorf("%04d: %s needs %d values, stack has %d", offset, ins, pops, depth)
		}
		depth += 1 - pops
	}
	if depth != 1 {
		return fmt.Errorf("program leaves %d values on the stack, want 1", depth)
	}
	return nil
}
