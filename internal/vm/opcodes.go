// Package vm compiles Lavender expressions to postfix programs.
package vm

// Opcode tags a single postfix instruction
type Opcode byte

const (
	// Operands
	OP_LITERAL      Opcode = iota // Punctuation char; only lives on the working stacks
	OP_NUMBER                     // Floating point constant
	OP_INTEGER                    // Unsigned integer constant
	OP_STRING                     // String constant, escapes decoded
	OP_PARAM                      // Frame slot of the enclosing function
	OP_FUNCTION_VAL               // First-class function reference

	// Applications
	OP_FUNCTION  // Apply a registry operator to its arguments
	OP_CALL      // Apply the value produced by a bracket region
	OP_CALL2     // Call a function value; CallArity counts the callee
	OP_MAKE_VECT // Build a vector from CallArity values
	OP_CAPTURE   // Bind CallArity captured values to the function value below them

	// Placeholder for "()" until the next push overwrites it
	OP_EMPTY_ARGS
)

var opcodeNames = map[Opcode]string{
	OP_LITERAL:      "LITERAL",
	OP_NUMBER:       "NUMBER",
	OP_INTEGER:      "INTEGER",
	OP_STRING:       "STRING",
	OP_PARAM:        "PARAM",
	OP_FUNCTION_VAL: "FUNCTION_VAL",
	OP_FUNCTION:     "FUNCTION",
	OP_CALL:         "CALL",
	OP_CALL2:        "CALL2",
	OP_MAKE_VECT:    "MAKE_VECT",
	OP_CAPTURE:      "CAPTURE",
	OP_EMPTY_ARGS:   "EMPTY_ARGS",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}
