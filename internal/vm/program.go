package vm

import (
	"fmt"
	"strconv"

	"github.com/Elipzer/clavender/internal/symbols"
)

// Instruction is one element of a postfix program. Which payload field is
// meaningful depends on Op.
type Instruction struct {
	Op        Opcode
	Literal   byte              // OP_LITERAL
	Number    float64           // OP_NUMBER
	Integer   uint64            // OP_INTEGER
	Str       string            // OP_STRING
	Param     int               // OP_PARAM
	Func      *symbols.Operator // OP_FUNCTION, OP_FUNCTION_VAL
	CallArity int               // OP_CALL, OP_CALL2, OP_MAKE_VECT, OP_CAPTURE

	// Source position of the token that produced the instruction
	Line   int
	Column int
}

func (ins Instruction) isLiteral(c byte) bool {
	return ins.Op == OP_LITERAL && ins.Literal == c
}

func (ins Instruction) String() string {
	switch ins.Op {
	case OP_LITERAL:
		return fmt.Sprintf("%s '%c'", ins.Op, ins.Literal)
	case OP_NUMBER:
		return ins.Op.String() + " " + strconv.FormatFloat(ins.Number, 'g', -1, 64)
	case OP_INTEGER:
		return ins.Op.String() + " " + strconv.FormatUint(ins.Integer, 10)
	case OP_STRING:
		return ins.Op.String() + " " + strconv.Quote(ins.Str)
	case OP_PARAM:
		return ins.Op.String() + " " + strconv.Itoa(ins.Param)
	case OP_FUNCTION, OP_FUNCTION_VAL:
		return ins.Op.String() + " " + ins.Func.Name
	case OP_CALL, OP_CALL2, OP_MAKE_VECT, OP_CAPTURE:
		return ins.Op.String() + " " + strconv.Itoa(ins.CallArity)
	}
	return ins.Op.String()
}

// Program is a compiled expression in postfix order.
type Program struct {
	Name string
	File string
	Code []Instruction
}

// Listing returns the String form of every instruction.
func (p *Program) Listing() []string {
	out := make([]string, len(p.Code))
	for i, ins := range p.Code {
		out[i] = ins.String()
	}
	return out
}

// Function pairs a declared operator with its compiled body.
type Function struct {
	Op      *symbols.Operator
	Program *Program
}

// Unit is the result of compiling a whole source file: the top-level
// expressions in order and every function body defined along the way.
type Unit struct {
	File      string
	Main      []*Program
	Functions []*Function
}

// Function returns the compiled body of the operator called name in ns.
func (u *Unit) Function(name string, ns symbols.Namespace) *Function {
	for _, fn := range u.Functions {
		if fn.Op.Name == name && fn.Op.Namespace == ns {
			return fn
		}
	}
	return nil
}
