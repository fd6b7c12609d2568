package symbols

import (
	"strings"

	"github.com/Elipzer/clavender/internal/config"
)

// Namespace separates operators looked up in operand position (prefix)
// from those looked up in operator position (infix).
type Namespace int

const (
	NamespacePrefix Namespace = iota
	NamespaceInfix
)

func (ns Namespace) String() string {
	if ns == NamespaceInfix {
		return "infix"
	}
	return "prefix"
}

// Fixing is the syntactic position class of an operator, stored as its
// one-character tag.
type Fixing byte

const (
	FixPrefix     Fixing = 'p'
	FixLeftInfix  Fixing = config.FixingTagLeft
	FixRightInfix Fixing = config.FixingTagRight
	FixUnary      Fixing = config.FixingTagUnary
)

// FixingFromTag converts a name prefix tag (i, r, u) to a Fixing.
func FixingFromTag(tag byte) (Fixing, bool) {
	switch tag {
	case config.FixingTagLeft:
		return FixLeftInfix, true
	case config.FixingTagRight:
		return FixRightInfix, true
	case config.FixingTagUnary:
		return FixUnary, true
	case byte(FixPrefix):
		return FixPrefix, true
	}
	return 0, false
}

// Namespace returns the namespace operators with this fixing live in.
func (f Fixing) Namespace() Namespace {
	if f == FixPrefix {
		return NamespacePrefix
	}
	return NamespaceInfix
}

func (f Fixing) String() string {
	switch f {
	case FixPrefix:
		return "prefix"
	case FixLeftInfix:
		return "left-infix"
	case FixRightInfix:
		return "right-infix"
	case FixUnary:
		return "unary"
	}
	return "fixing(" + string(rune(f)) + ")"
}

// Param is a declared parameter or local slot.
type Param struct {
	Name   string
	ByName bool
}

// Operator describes a function or operator known to the registry.
//
// Arity counts every argument slot including implicit captures, which are
// always the trailing CaptureCount parameters. Params holds Arity+Locals
// entries: parameters first, then locals.
type Operator struct {
	Name         string // fully qualified, e.g. "main:f:g"
	Namespace    Namespace
	Arity        int
	Fixing       Fixing
	Varargs      bool
	CaptureCount int
	Locals       int
	Params       []Param
	Builtin      bool // loaded from a prelude
	Forward      bool // declared, body not compiled yet
}

// ExplicitArity is the number of arguments written at a call site.
func (o *Operator) ExplicitArity() int {
	return o.Arity - o.CaptureCount
}

// FrameSize is the number of parameter and local slots.
func (o *Operator) FrameSize() int {
	return o.Arity + o.Locals
}

// SimpleNameStart returns the index in Name where the unqualified name begins.
func (o *Operator) SimpleNameStart() int {
	return strings.LastIndexByte(o.Name, config.NamespaceSeparator) + 1
}

// SimpleName returns the unqualified name.
func (o *Operator) SimpleName() string {
	return o.Name[o.SimpleNameStart():]
}

// ChildScope is the namespace that declarations nested in o are placed in.
func (o *Operator) ChildScope() string {
	return strings.TrimSuffix(o.Name, string(config.NamespaceSeparator))
}

// ParamIndex returns the frame slot of the parameter or local called name.
func (o *Operator) ParamIndex(name string) (int, bool) {
	n := o.FrameSize()
	if n > len(o.Params) {
		n = len(o.Params)
	}
	for i := 0; i < n; i++ {
		if o.Params[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (o *Operator) String() string {
	return o.Name
}

// QualifiedName joins a scope and a simple name, rewriting separator
// characters inside the simple name.
func QualifiedName(scope, simple string) string {
	return scope + string(config.NamespaceSeparator) + EscapeSimpleName(simple)
}

// EscapeSimpleName rewrites every namespace separator in name.
func EscapeSimpleName(name string) string {
	return strings.ReplaceAll(name, string(config.NamespaceSeparator), string(config.SymbolSeparator))
}

// NormalizeQualified rewrites the separators that follow the first one, so
// "lv:::" names the operator "::" in scope lv.
func NormalizeQualified(qual string) string {
	sep := strings.IndexByte(qual, config.NamespaceSeparator)
	if sep < 0 {
		return qual
	}
	return qual[:sep+1] + EscapeSimpleName(qual[sep+1:])
}

// NewRoot returns the synthetic descriptor top-level expressions are
// compiled against. Its name is "<scope>:" so its simple name is empty and
// its scope ladder holds exactly "<scope>:".
func NewRoot(scope string) *Operator {
	return &Operator{
		Name:      scope + string(config.NamespaceSeparator),
		Namespace: NamespacePrefix,
		Fixing:    FixPrefix,
	}
}
