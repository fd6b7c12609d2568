package vm

import (
	"testing"

	"github.com/Elipzer/clavender/internal/symbols"
)

func fn(name string, fixing symbols.Fixing, arity int) Instruction {
	return Instruction{Op: OP_FUNCTION, Func: &symbols.Operator{Name: name, Fixing: fixing, Arity: arity}}
}

func lit(c byte) Instruction {
	return Instruction{Op: OP_LITERAL, Literal: c}
}

func TestInfixPrecedence(t *testing.T) {
	// Lowest to highest
	classes := [][]string{
		{"||", "|>"},
		{"^", "^^"},
		{"&&", "&"},
		{"==", "!="},
		{"<", ">=", "<+>"},
		{"##"},
		{"+", "-", "++"},
		{"*", "/", "%", "**"},
		{"~", "?"},
	}
	for i, class := range classes {
		for _, name := range class {
			if got := InfixPrecedence(name); got != i+1 {
				t.Errorf("InfixPrecedence(%q) = %d, want %d", name, got, i+1)
			}
		}
	}
	if got := InfixPrecedence("add"); got != 0 {
		t.Errorf("named operators rank lowest, got %d", got)
	}
}

func TestCompare(t *testing.T) {
	plus := fn("lv:+", symbols.FixLeftInfix, 2)
	times := fn("lv:*", symbols.FixLeftInfix, 2)
	pow := fn("lv:**", symbols.FixRightInfix, 2)
	neg := fn("lv:-", symbols.FixPrefix, 1)
	bang := fn("lv:!", symbols.FixUnary, 1)
	call2 := Instruction{Op: OP_CALL2}

	tests := []struct {
		name string
		a, b Instruction
		sign int
	}{
		{"tighter infix", times, plus, 1},
		{"looser infix", plus, times, -1},
		{"same infix", plus, plus, 0},
		{"power over product", pow, times, 1},
		{"prefix over infix", neg, plus, 1},
		{"unary over infix", bang, times, 1},
		{"prefix and unary tie", neg, bang, 0},
		{"call2 over infix", call2, pow, 1},
		{"prefix over call2", neg, call2, 1},
		{"opener below all", lit('('), plus, -1},
		{"all above opener", plus, lit('{'), 1},
		{"closer above all", lit(']'), neg, 1},
		{"all below closer", neg, lit(']'), -1},
		{"closers tie", lit(']'), lit(')'), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compare(tt.a, tt.b)
			if sign(got) != tt.sign {
				t.Errorf("compare = %d, want sign %d", got, tt.sign)
			}
		})
	}
}

func TestCompareRejectsOperands(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("compare accepted an operand")
		}
	}()
	compare(Instruction{Op: OP_INTEGER}, lit('('))
}

func TestArityStack(t *testing.T) {
	var s stack[arity]
	s.push(pending(2))
	s.push(resolved(1))
	if s.top().n != 1 || !s.top().resolved {
		t.Fatalf("top = %+v", *s.top())
	}
	s.top().n++
	if got := s.pop(); got != resolved(2) {
		t.Errorf("pop = %+v, want resolved 2", got)
	}
	if got := s.pop(); got != pending(2) {
		t.Errorf("pop = %+v, want pending 2", got)
	}
	if !s.empty() {
		t.Error("stack not empty")
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
